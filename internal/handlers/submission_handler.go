package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pcds2030/internal/errors"
	"pcds2030/internal/models"
	"pcds2030/internal/pagination"
	"pcds2030/internal/services"
)

// SubmissionHandler handles program report submissions.
type SubmissionHandler struct {
	submissionService services.SubmissionServicer
	programService    services.ProgramServicer
	auditService      services.AuditServicer
}

// NewSubmissionHandler creates a new SubmissionHandler.
func NewSubmissionHandler(submissionService services.SubmissionServicer, programService services.ProgramServicer, auditService services.AuditServicer) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		programService:    programService,
		auditService:      auditService,
	}
}

// TargetRequest is one target row of a submission payload.
type TargetRequest struct {
	TargetNumber      string              `json:"target_number" binding:"max=20"`
	TargetDescription string              `json:"target_description" binding:"required"`
	StatusIndicator   models.TargetStatus `json:"status_indicator" binding:"target_status"`
	Remarks           string              `json:"remarks"`
	StartDate         *string             `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate           *string             `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

// CreateSubmissionRequest represents the request payload for starting a draft.
// Omitting targets on a revision copies the latest finalized targets.
type CreateSubmissionRequest struct {
	ProgramID   uint            `json:"program_id" binding:"required"`
	PeriodID    uint            `json:"period_id" binding:"required"`
	Description string          `json:"description"`
	Targets     []TargetRequest `json:"targets" binding:"omitempty,dive"`
}

// UpdateSubmissionRequest represents the request payload for editing a draft.
// Omitting targets leaves them unchanged.
type UpdateSubmissionRequest struct {
	Description string          `json:"description"`
	Targets     []TargetRequest `json:"targets" binding:"omitempty,dive"`
}

func toTargetInputs(reqs []TargetRequest) ([]services.TargetInput, error) {
	if reqs == nil {
		return nil, nil
	}
	inputs := make([]services.TargetInput, 0, len(reqs))
	for _, r := range reqs {
		start, err := parseOptionalDay("start_date", r.StartDate)
		if err != nil {
			return nil, err
		}
		end, err := parseOptionalDay("end_date", r.EndDate)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, services.TargetInput{
			TargetNumber:      r.TargetNumber,
			TargetDescription: r.TargetDescription,
			StatusIndicator:   r.StatusIndicator,
			Remarks:           r.Remarks,
			StartDate:         start,
			EndDate:           end,
		})
	}
	return inputs, nil
}

// CreateSubmission handles starting a draft report.
// @Summary     Create a draft submission
// @Description Start a draft for a program and period; a draft on top of a finalized version is a revision
// @Tags        submissions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateSubmissionRequest true "Submission details"
// @Success     201 {object} models.ProgramSubmission "Draft created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Permission denied"
// @Failure     409 {object} ErrorResponse "Draft exists or period not open"
// @Router      /submissions [post]
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	targets, err := toTargetInputs(req.Targets)
	if err != nil {
		respondWithError(c, err)
		return
	}

	submission, err := h.submissionService.CreateSubmission(actor, req.ProgramID, req.PeriodID, req.Description, targets)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, services.AuditCreateSubmission, models.AuditStatusSuccess, c.ClientIP(),
		map[string]any{"submission_id": submission.ID, "program_id": req.ProgramID, "period_id": req.PeriodID})

	c.JSON(http.StatusCreated, gin.H{"submission": submission})
}

// GetSubmission returns one submission version.
// @Summary     Get a submission
// @Tags        submissions
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Submission ID"
// @Success     200 {object} models.ProgramSubmission "Submission"
// @Failure     403 {object} ErrorResponse "Permission denied"
// @Failure     404 {object} ErrorResponse "Submission not found"
// @Router      /submissions/{id} [get]
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	submissionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	submission, err := h.submissionService.GetSubmissionByID(actor, submissionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submission": submission})
}

// UpdateSubmission handles editing a draft.
// @Summary     Update a draft submission
// @Tags        submissions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                     true "Submission ID"
// @Param       request body UpdateSubmissionRequest true "Draft changes"
// @Success     200 {object} models.ProgramSubmission "Draft updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Submission not found"
// @Failure     409 {object} ErrorResponse "Submission is not a draft"
// @Router      /submissions/{id} [put]
func (h *SubmissionHandler) UpdateSubmission(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	submissionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	targets, err := toTargetInputs(req.Targets)
	if err != nil {
		respondWithError(c, err)
		return
	}

	submission, err := h.submissionService.UpdateDraft(actor, submissionID, req.Description, targets)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, services.AuditUpdateSubmission, models.AuditStatusSuccess, c.ClientIP(),
		map[string]any{"submission_id": submissionID, "targets_replaced": targets != nil})

	c.JSON(http.StatusOK, gin.H{"submission": submission})
}

// FinalizeSubmission handles finalizing a draft.
// @Summary     Finalize a submission
// @Description Finalizing an already finalized submission returns it with already_finalized=true
// @Tags        submissions
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Submission ID"
// @Success     200 {object} services.FinalizeResult "Finalized submission"
// @Failure     403 {object} ErrorResponse "Permission denied"
// @Failure     404 {object} ErrorResponse "Submission not found"
// @Failure     409 {object} ErrorResponse "Period not open"
// @Router      /submissions/{id}/finalize [post]
func (h *SubmissionHandler) FinalizeSubmission(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	submissionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.submissionService.Finalize(actor, submissionID)
	if err != nil {
		h.auditService.Log(actor.UserID, services.AuditFinalize, models.AuditStatusFailure, c.ClientIP(),
			map[string]any{"submission_id": submissionID, "error": err.Error()})
		respondWithError(c, err)
		return
	}

	if !result.AlreadyFinalized {
		h.auditService.Log(actor.UserID, services.AuditFinalize, models.AuditStatusSuccess, c.ClientIP(),
			map[string]any{"submission_id": submissionID})
	}

	c.JSON(http.StatusOK, result)
}

// DeleteSubmission handles soft-deleting a submission.
// @Summary     Delete a submission
// @Tags        submissions
// @Security    BearerAuth
// @Param       id path int true "Submission ID"
// @Success     204 "Submission deleted"
// @Failure     403 {object} ErrorResponse "Permission denied"
// @Failure     404 {object} ErrorResponse "Submission not found"
// @Router      /submissions/{id} [delete]
func (h *SubmissionHandler) DeleteSubmission(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	submissionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.submissionService.DeleteSubmission(actor, submissionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, services.AuditDeleteSubmission, models.AuditStatusSuccess, c.ClientIP(),
		map[string]any{"submission_id": submissionID})

	c.Status(http.StatusNoContent)
}

// parseProgramPeriod reads the :id and :period_id path parameters.
func parseProgramPeriod(c *gin.Context) (programID, periodID uint, err error) {
	if programID, err = parsePathID(c, "id"); err != nil {
		return 0, 0, err
	}
	if periodID, err = parsePathID(c, "period_id"); err != nil {
		return 0, 0, err
	}
	return programID, periodID, nil
}

// GetLatestFinalized returns the latest finalized version of a program's report.
// @Summary     Get the latest finalized submission
// @Tags        submissions
// @Produce     json
// @Security    BearerAuth
// @Param       id        path int true "Program ID"
// @Param       period_id path int true "Period ID"
// @Success     200 {object} models.ProgramSubmission "Latest finalized submission"
// @Failure     403 {object} ErrorResponse "Permission denied"
// @Failure     404 {object} ErrorResponse "No finalized submission"
// @Router      /programs/{id}/periods/{period_id}/latest [get]
func (h *SubmissionHandler) GetLatestFinalized(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	programID, periodID, err := parseProgramPeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if _, err := h.programService.GetProgramByID(actor, programID); err != nil {
		respondWithError(c, err)
		return
	}

	submission, err := h.submissionService.GetLatestFinalized(programID, periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if submission == nil {
		respondWithError(c, apperrors.ErrNoFinalizedSubmission)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submission": submission})
}

// GetDraft returns the open draft of a program's report, or null.
// @Summary     Get the open draft
// @Tags        submissions
// @Produce     json
// @Security    BearerAuth
// @Param       id        path int true "Program ID"
// @Param       period_id path int true "Period ID"
// @Success     200 {object} models.ProgramSubmission "Draft or null"
// @Failure     403 {object} ErrorResponse "Permission denied"
// @Router      /programs/{id}/periods/{period_id}/draft [get]
func (h *SubmissionHandler) GetDraft(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	programID, periodID, err := parseProgramPeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	submission, err := h.submissionService.GetDraft(actor, programID, periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submission": submission})
}

// ListHistory returns every version of a program's report, newest first.
// @Summary     List submission history
// @Tags        submissions
// @Produce     json
// @Security    BearerAuth
// @Param       id        path int true "Program ID"
// @Param       period_id path int true "Period ID"
// @Success     200 {array} models.ProgramSubmission "Versions"
// @Failure     403 {object} ErrorResponse "Permission denied"
// @Router      /programs/{id}/periods/{period_id}/history [get]
func (h *SubmissionHandler) ListHistory(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	programID, periodID, err := parseProgramPeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	versions, err := h.submissionService.ListHistory(actor, programID, periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"submissions": versions})
}

// Unsubmit returns the latest finalized version to draft.
// @Summary     Unsubmit a program report
// @Description Admin only. Reverts exactly the latest finalized version to draft
// @Tags        submissions
// @Produce     json
// @Security    BearerAuth
// @Param       id        path int true "Program ID"
// @Param       period_id path int true "Period ID"
// @Success     200 {object} models.ProgramSubmission "Reverted submission"
// @Failure     403 {object} ErrorResponse "Permission denied"
// @Failure     404 {object} ErrorResponse "No finalized submission"
// @Failure     409 {object} ErrorResponse "Draft already exists"
// @Router      /programs/{id}/periods/{period_id}/unsubmit [post]
func (h *SubmissionHandler) Unsubmit(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	programID, periodID, err := parseProgramPeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	submission, err := h.submissionService.Unsubmit(actor, programID, periodID)
	if err != nil {
		h.auditService.Log(actor.UserID, services.AuditUnsubmit, models.AuditStatusFailure, c.ClientIP(),
			map[string]any{"program_id": programID, "period_id": periodID, "error": err.Error()})
		respondWithError(c, err)
		return
	}

	h.auditService.Log(actor.UserID, services.AuditUnsubmit, models.AuditStatusSuccess, c.ClientIP(),
		map[string]any{"program_id": programID, "period_id": periodID, "submission_id": submission.ID})

	c.JSON(http.StatusOK, gin.H{"submission": submission})
}

// ListFinalizedForPeriod is the admin view of a period's finalized reports.
// @Summary     List finalized submissions for a period
// @Tags        submissions
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  int true  "Period ID"
// @Param       agency_id query int false "Filter by agency"
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.ProgramSubmission] "Latest finalized submissions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /periods/{id}/submissions [get]
func (h *SubmissionHandler) ListFinalizedForPeriod(c *gin.Context) {
	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	agencyID, err := parseOptionalUint(c, "agency_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.submissionService.ListFinalizedForPeriod(periodID, agencyID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
