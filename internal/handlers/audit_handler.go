package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pcds2030/internal/errors"
	"pcds2030/internal/pagination"
	"pcds2030/internal/services"
)

// AuditHandler exposes the audit trail to administrators.
type AuditHandler struct {
	auditService services.AuditServicer
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditService services.AuditServicer) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// ListAuditLogs returns a page of audit entries, newest first.
// @Summary     List audit logs
// @Tags        audit
// @Produce     json
// @Security    BearerAuth
// @Param       user_id   query int    false "Filter by user"
// @Param       action    query string false "Filter by action"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.AuditLog] "Paginated audit entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /audit-logs [get]
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	userID, err := parseOptionalUint(c, "user_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.auditService.List(page, services.AuditFilter{UserID: userID, Action: c.Query("action")})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
