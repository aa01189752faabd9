package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pcds2030/internal/errors"
	"pcds2030/internal/pagination"
	"pcds2030/internal/services"
)

// ProgramHandler handles program requests.
type ProgramHandler struct {
	programService services.ProgramServicer
	auditService   services.AuditServicer
}

// NewProgramHandler creates a new ProgramHandler.
func NewProgramHandler(programService services.ProgramServicer, auditService services.AuditServicer) *ProgramHandler {
	return &ProgramHandler{programService: programService, auditService: auditService}
}

// CreateProgramRequest represents the request payload for creating a program.
type CreateProgramRequest struct {
	AgencyID    uint   `json:"agency_id" binding:"required"`
	Name        string `json:"program_name" binding:"required,max=255"`
	Number      string `json:"program_number" binding:"max=20"`
	Description string `json:"description"`
}

// UpdateProgramRequest represents the request payload for updating a program.
type UpdateProgramRequest struct {
	Name        string `json:"program_name" binding:"required,max=255"`
	Number      string `json:"program_number" binding:"max=20"`
	Description string `json:"description"`
}

// CreateProgram handles program creation.
// @Summary     Create a program
// @Tags        programs
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateProgramRequest true "Program details"
// @Success     201 {object} models.Program "Program created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Permission denied"
// @Failure     404 {object} ErrorResponse "Agency not found"
// @Router      /programs [post]
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	program, err := h.programService.CreateProgram(actor, req.AgencyID, req.Name, req.Number, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"program": program})
}

// UpdateProgram handles program updates.
// @Summary     Update a program
// @Tags        programs
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path int                  true "Program ID"
// @Param       request body UpdateProgramRequest true "Program details"
// @Success     200 {object} models.Program "Program updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Program not found"
// @Router      /programs/{id} [put]
func (h *ProgramHandler) UpdateProgram(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	programID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	program, err := h.programService.UpdateProgram(actor, programID, req.Name, req.Number, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"program": program})
}

// GetProgram returns one program.
// @Summary     Get a program
// @Tags        programs
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Program ID"
// @Success     200 {object} models.Program "Program"
// @Failure     403 {object} ErrorResponse "Permission denied"
// @Failure     404 {object} ErrorResponse "Program not found"
// @Router      /programs/{id} [get]
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	programID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	program, err := h.programService.GetProgramByID(actor, programID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"program": program})
}

// ListPrograms returns a page of programs visible to the caller.
// @Summary     List programs
// @Description Agency users only see their own agency's programs
// @Tags        programs
// @Produce     json
// @Security    BearerAuth
// @Param       agency_id query int false "Filter by agency (admin only)"
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Program] "Paginated programs"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /programs [get]
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	actor, err := getActor(c)
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

	result, err := h.programService.ListPrograms(actor, page, agencyID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

