package services

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "pcds2030/internal/errors"
	"pcds2030/internal/logger"
	"pcds2030/internal/models"
	"pcds2030/internal/pagination"
)

// Audit actions.
const (
	AuditLogin            = "login"
	AuditLoginFailed      = "login_failed"
	AuditCreateUser       = "create_user"
	AuditCreateProgram    = "create_program"
	AuditUpdateProgram    = "update_program"
	AuditCreatePeriod     = "create_period"
	AuditUpdatePeriod     = "update_period"
	AuditSetPeriodStatus  = "set_period_status"
	AuditDeletePeriod     = "delete_period"
	AuditCreateSubmission = "create_submission"
	AuditUpdateSubmission = "update_submission"
	AuditFinalize         = "finalize_submission"
	AuditUnsubmit         = "unsubmit_submission"
	AuditDeleteSubmission = "delete_submission"
	AuditExportStatistics = "export_statistics"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

func newAuditEntry(userID uint, action string, status models.AuditStatus, ipAddress string, details map[string]any) *models.AuditLog {
	entry := &models.AuditLog{
		UserID:    userID,
		Action:    action,
		Status:    status,
		IPAddress: ipAddress,
	}
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log details", "error", err, "action", action)
			data = []byte("{}")
		}
		entry.Details = datatypes.JSON(data)
	}
	return entry
}

// writeAudit inserts an audit row through tx so that it commits or rolls
// back with the operation it records.
func writeAudit(tx *gorm.DB, userID uint, action string, details map[string]any) error {
	entry := newAuditEntry(userID, action, models.AuditStatusSuccess, "", details)
	if err := tx.Create(entry).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(userID uint, action string, status models.AuditStatus, ipAddress string, details map[string]any) {
	entry := newAuditEntry(userID, action, status, ipAddress, details)
	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"status", status,
		)
	}
}

// List returns audit entries, newest first.
func (s *auditService) List(page pagination.PageRequest, filter AuditFilter) (*pagination.PageResponse[models.AuditLog], error) {
	base := s.db.Model(&models.AuditLog{})
	if filter.UserID != nil {
		base = base.Where("user_id = ?", *filter.UserID)
	}
	if filter.Action != "" {
		base = base.Where("action = ?", filter.Action)
	}

	result, err := pagination.Query[models.AuditLog](base, page, func(tx *gorm.DB) *gorm.DB {
		return tx.Order("id DESC")
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}
