package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pcds2030/internal/errors"
	"pcds2030/internal/models"
	"pcds2030/internal/report"
	"pcds2030/internal/services"
)

// StatisticsHandler serves the admin dashboard aggregates.
type StatisticsHandler struct {
	statisticsService services.StatisticsServicer
	auditService      services.AuditServicer
}

// NewStatisticsHandler creates a new StatisticsHandler.
func NewStatisticsHandler(statisticsService services.StatisticsServicer, auditService services.AuditServicer) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, auditService: auditService}
}

// GetStatistics returns completion statistics for a period.
// @Summary     Get period statistics
// @Description Per-agency completion of finalized reports for a period
// @Tags        statistics
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Period ID"
// @Success     200 {object} services.PeriodStatistics "Statistics"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Router      /periods/{id}/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.statisticsService.ComputeStatistics(periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"statistics": stats})
}

// ExportStatistics streams the period statistics as an .xlsx workbook.
// @Summary     Export period statistics
// @Tags        statistics
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       id path int true "Period ID"
// @Success     200 {file} file "Workbook"
// @Failure     404 {object} ErrorResponse "Period not found"
// @Router      /periods/{id}/statistics/export [get]
func (h *StatisticsHandler) ExportStatistics(c *gin.Context) {
	periodID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	stats, err := h.statisticsService.ComputeStatistics(periodID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	buf, err := report.StatisticsWorkbook(stats)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	// Pipeline callers have no user identity; audit only for users.
	if actor, err := getActor(c); err == nil {
		h.auditService.Log(actor.UserID, services.AuditExportStatistics, models.AuditStatusSuccess, c.ClientIP(),
			map[string]any{"period_id": periodID})
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(stats)))
	c.Data(http.StatusOK, report.ContentType, buf.Bytes())
}
