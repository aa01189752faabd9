package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pcds2030/internal/daterange"
	apperrors "pcds2030/internal/errors"
	"pcds2030/internal/models"
	"pcds2030/internal/pagination"
	"pcds2030/internal/services"
)

// PeriodHandler handles reporting period requests.
type PeriodHandler struct {
	periodService services.PeriodServicer
	auditService  services.AuditServicer
}

// NewPeriodHandler creates a new PeriodHandler.
func NewPeriodHandler(periodService services.PeriodServicer, auditService services.AuditServicer) *PeriodHandler {
	return &PeriodHandler{periodService: periodService, auditService: auditService}
}

// PeriodRequest represents the request payload for creating or updating a period.
type PeriodRequest struct {
	Year         int                 `json:"year" binding:"required,min=2000,max=2100"`
	PeriodType   models.PeriodType   `json:"period_type" binding:"required,period_type"`
	PeriodNumber int                 `json:"period_number" binding:"required,min=1,max=4"`
	StartDate    string              `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate      string              `json:"end_date" binding:"required,datetime=2006-01-02"`
	Status       models.PeriodStatus `json:"status" binding:"omitempty,period_status"`
}

// PeriodStatusRequest represents the request payload for opening or closing a period.
type PeriodStatusRequest struct {
	Status models.PeriodStatus `json:"status" binding:"required"`
}

func (r PeriodRequest) toInput() (services.PeriodInput, error) {
	start, err := daterange.ParseDay(r.StartDate)
	if err != nil {
		return services.PeriodInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	end, err := daterange.ParseDay(r.EndDate)
	if err != nil {
		return services.PeriodInput{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return services.PeriodInput{
		Year:         r.Year,
		PeriodType:   r.PeriodType,
		PeriodNumber: r.PeriodNumber,
		StartDate:    start,
		EndDate:      end,
		Status:       r.Status,
	}, nil
}

// CreatePeriod handles the creation of a reporting period.
// @Summary     Create a reporting period
// @Description Create a period; overlapping or duplicate periods are rejected
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body PeriodRequest true "Period details"
// @Success     201 {object} models.ReportingPeriod "Period created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Permission denied"
// @Failure     409 {object} ErrorResponse "Duplicate or overlapping period"
// @Router      /periods [post]
func (h *PeriodHandler) CreatePeriod(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := h.periodService.CreatePeriod(actor, input)
	if err != nil {
		h.auditService.Log(actor.UserID, services.AuditCreatePeriod, models.AuditStatusFailure, c.ClientIP(),
			map[string]any{"year": req.Year, "period_type": req.PeriodType, "period_number": req.PeriodNumber, "error": err.Error()})
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, services.AuditCreatePeriod, models.AuditStatusSuccess, c.ClientIP(),
		map[string]any{"period_id": period.ID, "label": period.Label(), "status": period.Status})

	c.JSON(http.StatusCreated, gin.H{"period": period})
}

// UpdatePeriod handles updating a reporting period.
// @Summary     Update a reporting period
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int           true "Period ID"
// @Param       request body PeriodRequest true "Period details"
// @Success     200 {object} models.ReportingPeriod "Period updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Failure     409 {object} ErrorResponse "Duplicate or overlapping period"
// @Router      /periods/{id} [put]
func (h *PeriodHandler) UpdatePeriod(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := h.periodService.UpdatePeriod(actor, periodID, input)
	if err != nil {
		h.auditService.Log(actor.UserID, services.AuditUpdatePeriod, models.AuditStatusFailure, c.ClientIP(),
			map[string]any{"period_id": periodID, "year": req.Year, "period_type": req.PeriodType, "period_number": req.PeriodNumber, "error": err.Error()})
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, services.AuditUpdatePeriod, models.AuditStatusSuccess, c.ClientIP(),
		map[string]any{"period_id": period.ID, "label": period.Label()})

	c.JSON(http.StatusOK, gin.H{"period": period})
}

// SetPeriodStatus handles opening or closing a period.
// @Summary     Open or close a reporting period
// @Description Opening a period closes every other period
// @Tags        periods
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                 true "Period ID"
// @Param       request body PeriodStatusRequest true "New status"
// @Success     200 {object} models.ReportingPeriod "Period updated"
// @Failure     400 {object} ErrorResponse "Invalid status"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Router      /periods/{id}/status [put]
func (h *PeriodHandler) SetPeriodStatus(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PeriodStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	period, err := h.periodService.SetPeriodStatus(actor, periodID, req.Status)
	if err != nil {
		h.auditService.Log(actor.UserID, services.AuditSetPeriodStatus, models.AuditStatusFailure, c.ClientIP(),
			map[string]any{"period_id": periodID, "status": req.Status, "error": err.Error()})
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, services.AuditSetPeriodStatus, models.AuditStatusSuccess, c.ClientIP(),
		map[string]any{"period_id": period.ID, "label": period.Label(), "status": period.Status})

	c.JSON(http.StatusOK, gin.H{"period": period})
}

// DeletePeriod handles deleting a period without submissions.
// @Summary     Delete a reporting period
// @Tags        periods
// @Security    BearerAuth
// @Param       id path int true "Period ID"
// @Success     204 "Period deleted"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Failure     409 {object} ErrorResponse "Period has submissions"
// @Router      /periods/{id} [delete]
func (h *PeriodHandler) DeletePeriod(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.periodService.DeletePeriod(actor, periodID); err != nil {
		h.auditService.Log(actor.UserID, services.AuditDeletePeriod, models.AuditStatusFailure, c.ClientIP(),
			map[string]any{"period_id": periodID, "error": err.Error()})
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, services.AuditDeletePeriod, models.AuditStatusSuccess, c.ClientIP(),
		map[string]any{"period_id": periodID})

	c.Status(http.StatusNoContent)
}

// GetPeriod returns one period.
// @Summary     Get a reporting period
// @Tags        periods
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Period ID"
// @Success     200 {object} models.ReportingPeriod "Period"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Router      /periods/{id} [get]
func (h *PeriodHandler) GetPeriod(c *gin.Context) {
	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := h.periodService.GetPeriodByID(periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"period": period})
}

// GetCurrentPeriod returns the open period, or null when none is open.
// @Summary     Get the open reporting period
// @Tags        periods
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} models.ReportingPeriod "Open period or null"
// @Router      /periods/current [get]
func (h *PeriodHandler) GetCurrentPeriod(c *gin.Context) {
	period, err := h.periodService.GetCurrentPeriod()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"period": period})
}

// ListPeriods returns a page of periods.
// @Summary     List reporting periods
// @Tags        periods
// @Produce     json
// @Security    BearerAuth
// @Param       year      query int    false "Filter by year"
// @Param       status    query string false "Filter by status (open/closed)"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.ReportingPeriod] "Paginated periods"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /periods [get]
func (h *PeriodHandler) ListPeriods(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.PeriodFilter
	if v := c.Query("year"); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be a number"))
			return
		}
		filter.Year = &year
	}
	if v := c.Query("status"); v != "" {
		status := models.PeriodStatus(v)
		if !status.Valid() {
			respondWithError(c, apperrors.ErrInvalidStatus)
			return
		}
		filter.Status = &status
	}

	result, err := h.periodService.ListPeriods(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
