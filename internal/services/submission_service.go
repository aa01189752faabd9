package services

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pcds2030/internal/daterange"
	apperrors "pcds2030/internal/errors"
	"pcds2030/internal/models"
	"pcds2030/internal/pagination"
)

// submissionService owns the draft -> finalized -> draft lifecycle of program
// reports. Every version of a report is a row in program_submissions.
type submissionService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSubmissionService creates a new SubmissionServicer.
func NewSubmissionService(db *gorm.DB) SubmissionServicer {
	return &submissionService{db: db, now: time.Now}
}

// buildTargets validates target input and converts it into rows owned by
// submissionID. An empty status indicator defaults to not_started.
func buildTargets(submissionID uint, inputs []TargetInput) ([]models.ProgramTarget, error) {
	targets := make([]models.ProgramTarget, 0, len(inputs))
	for i, in := range inputs {
		if in.TargetDescription == "" {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "target %d: target_description is required", i+1)
		}
		status := in.StatusIndicator
		if status == "" {
			status = models.TargetStatusNotStarted
		}
		if !status.Valid() {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "target %d: unknown status_indicator %q", i+1, status)
		}

		var start, end *time.Time
		if in.StartDate != nil {
			d := daterange.Day(*in.StartDate)
			start = &d
		}
		if in.EndDate != nil {
			d := daterange.Day(*in.EndDate)
			end = &d
		}
		if start != nil && end != nil && start.After(*end) {
			return nil, apperrors.Newf(apperrors.ErrInvalidDateRange, "target %d: start_date must not be after end_date", i+1)
		}

		targets = append(targets, models.ProgramTarget{
			SubmissionID:      submissionID,
			TargetNumber:      in.TargetNumber,
			TargetDescription: in.TargetDescription,
			StatusIndicator:   status,
			Remarks:           in.Remarks,
			StartDate:         start,
			EndDate:           end,
		})
	}
	return targets, nil
}

// copyTargets clones the live targets of another submission into input form.
func copyTargets(tx *gorm.DB, fromSubmissionID uint) ([]TargetInput, error) {
	var existing []models.ProgramTarget
	if err := tx.Scopes(activeTargets).Where("submission_id = ?", fromSubmissionID).Find(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	inputs := make([]TargetInput, 0, len(existing))
	for _, t := range existing {
		inputs = append(inputs, TargetInput{
			TargetNumber:      t.TargetNumber,
			TargetDescription: t.TargetDescription,
			StatusIndicator:   t.StatusIndicator,
			Remarks:           t.Remarks,
			StartDate:         t.StartDate,
			EndDate:           t.EndDate,
		})
	}
	return inputs, nil
}

// replaceTargets soft-deletes the live targets of a submission and inserts
// the given rows in their place.
func replaceTargets(tx *gorm.DB, submissionID uint, targets []models.ProgramTarget) error {
	if err := tx.Model(&models.ProgramTarget{}).
		Where("submission_id = ? AND is_deleted = ?", submissionID, false).
		Update("is_deleted", true).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(targets) == 0 {
		return nil
	}
	if err := tx.Create(&targets).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// requireOpenPeriod rejects non-admin work against a closed period.
func requireOpenPeriod(db *gorm.DB, actor Actor, periodID uint) (*models.ReportingPeriod, error) {
	var period models.ReportingPeriod
	if err := db.Where("period_id = ?", periodID).First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !actor.IsAdmin() && !period.IsOpen() {
		return nil, apperrors.Newf(apperrors.ErrPeriodNotOpen, "Reporting period %s is not open for submissions", period.Label())
	}
	return &period, nil
}

// CreateSubmission starts a draft for a program and period. When a finalized
// version already exists the draft is a revision, and it inherits the latest
// finalized targets unless targets are given.
func (s *submissionService) CreateSubmission(actor Actor, programID, periodID uint, description string, targets []TargetInput) (*models.ProgramSubmission, error) {
	if _, err := loadProgram(s.db, actor, programID); err != nil {
		return nil, err
	}
	if _, err := requireOpenPeriod(s.db, actor, periodID); err != nil {
		return nil, err
	}
	if _, err := buildTargets(0, targets); err != nil {
		return nil, err
	}

	submission := &models.ProgramSubmission{
		ProgramID:   programID,
		PeriodID:    periodID,
		IsDraft:     true,
		Description: description,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var versions []models.ProgramSubmission
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("program_id = ? AND period_id = ? AND is_deleted = ?", programID, periodID, false).
			Order("submission_id DESC").
			Find(&versions).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var latestFinalizedID uint
		for _, v := range versions {
			if v.IsDraft {
				return apperrors.ErrDraftExists
			}
			if latestFinalizedID == 0 {
				latestFinalizedID = v.ID
			}
		}

		if targets == nil && latestFinalizedID != 0 {
			copied, err := copyTargets(tx, latestFinalizedID)
			if err != nil {
				return err
			}
			targets = copied
		}

		if err := tx.Create(submission).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		rows, err := buildTargets(submission.ID, targets)
		if err != nil {
			return err
		}
		return replaceTargets(tx, submission.ID, rows)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(submission.ID)
}

// UpdateDraft rewrites a draft's description. A non-nil targets slice
// replaces the draft's targets; nil leaves them untouched.
func (s *submissionService) UpdateDraft(actor Actor, submissionID uint, description string, targets []TargetInput) (*models.ProgramSubmission, error) {
	submission, err := findSubmission(s.db, submissionID)
	if err != nil {
		return nil, err
	}
	if _, err := loadProgram(s.db, actor, submission.ProgramID); err != nil {
		return nil, err
	}
	if !submission.IsDraft {
		return nil, apperrors.ErrSubmissionNotDraft
	}
	if _, err := requireOpenPeriod(s.db, actor, submission.PeriodID); err != nil {
		return nil, err
	}

	var rows []models.ProgramTarget
	if targets != nil {
		if rows, err = buildTargets(submissionID, targets); err != nil {
			return nil, err
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ProgramSubmission{}).
			Where("submission_id = ? AND is_draft = ? AND is_deleted = ?", submissionID, true, false).
			Updates(map[string]interface{}{
				"description": description,
				"updated_at":  s.now(),
			})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrSubmissionNotDraft
		}
		if targets == nil {
			return nil
		}
		return replaceTargets(tx, submissionID, rows)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(submissionID)
}

// Finalize moves a draft to finalized and stamps who finalized it. Finalizing
// an already finalized submission is a no-op reported through
// FinalizeResult.AlreadyFinalized.
func (s *submissionService) Finalize(actor Actor, submissionID uint) (*FinalizeResult, error) {
	submission, err := findSubmission(s.db, submissionID)
	if err != nil {
		return nil, err
	}
	if _, err := loadProgram(s.db, actor, submission.ProgramID); err != nil {
		return nil, err
	}
	if !submission.IsDraft {
		return s.finalizeResult(submissionID, true)
	}
	if _, err := requireOpenPeriod(s.db, actor, submission.PeriodID); err != nil {
		return nil, err
	}

	now := s.now()
	result := s.db.Model(&models.ProgramSubmission{}).
		Where("submission_id = ? AND is_draft = ? AND is_deleted = ?", submissionID, true, false).
		Updates(map[string]interface{}{
			"is_draft":     false,
			"submitted_by": actor.UserID,
			"submitted_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		// Lost a race: another request finalized or deleted the row.
		current, err := findSubmission(s.db, submissionID)
		if err != nil {
			return nil, err
		}
		if current.IsDraft {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, errors.New("finalize matched no rows"))
		}
		return s.finalizeResult(submissionID, true)
	}
	return s.finalizeResult(submissionID, false)
}

func (s *submissionService) finalizeResult(submissionID uint, already bool) (*FinalizeResult, error) {
	submission, err := s.reload(submissionID)
	if err != nil {
		return nil, err
	}
	return &FinalizeResult{Submission: submission, AlreadyFinalized: already}, nil
}

// Unsubmit returns the latest finalized version of a program's report to
// draft. Only that exact row is touched; older finalized versions stay
// finalized and become the latest one. The finalization stamp is kept.
func (s *submissionService) Unsubmit(actor Actor, programID, periodID uint) (*models.ProgramSubmission, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	var targetID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var drafts int64
		if err := tx.Model(&models.ProgramSubmission{}).
			Where("program_id = ? AND period_id = ? AND is_draft = ? AND is_deleted = ?", programID, periodID, true, false).
			Count(&drafts).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if drafts > 0 {
			return apperrors.WithMessage(apperrors.ErrDraftExists,
				"A draft is already open for this program and period; finalize or delete it first")
		}

		var latest models.ProgramSubmission
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(latestFinalized(periodID)).
			Where("program_id = ?", programID).
			First(&latest).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNoFinalizedSubmission
		}
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		result := tx.Model(&models.ProgramSubmission{}).
			Where("submission_id = ? AND is_draft = ? AND is_deleted = ?", latest.ID, false, false).
			Updates(map[string]interface{}{
				"is_draft":   true,
				"updated_at": s.now(),
			})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNoFinalizedSubmission
		}
		targetID = latest.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reload(targetID)
}

// DeleteSubmission soft-deletes a submission and its targets. Agency users
// may only delete drafts.
func (s *submissionService) DeleteSubmission(actor Actor, submissionID uint) error {
	submission, err := findSubmission(s.db, submissionID)
	if err != nil {
		return err
	}
	if _, err := loadProgram(s.db, actor, submission.ProgramID); err != nil {
		return err
	}
	if !actor.IsAdmin() && !submission.IsDraft {
		return apperrors.WithMessage(apperrors.ErrPermissionDenied, "Only drafts can be deleted")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ProgramSubmission{}).
			Where("submission_id = ? AND is_deleted = ?", submissionID, false).
			Updates(map[string]interface{}{
				"is_deleted": true,
				"updated_at": s.now(),
			})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrSubmissionNotFound
		}
		return replaceTargets(tx, submissionID, nil)
	})
}

// GetSubmissionByID retrieves one version with its live targets.
func (s *submissionService) GetSubmissionByID(actor Actor, submissionID uint) (*models.ProgramSubmission, error) {
	submission, err := s.reload(submissionID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccessAgency(submission.Program.AgencyID) {
		return nil, apperrors.ErrPermissionDenied
	}
	return submission, nil
}

// GetLatestFinalized returns the canonical latest finalized version of a
// program's report for a period, or nil when none exists.
func (s *submissionService) GetLatestFinalized(programID, periodID uint) (*models.ProgramSubmission, error) {
	var submission models.ProgramSubmission
	err := s.db.Scopes(latestFinalized(periodID)).
		Where("program_id = ?", programID).
		Preload("Targets", activeTargets).
		Preload("Period").
		First(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &submission, nil
}

// GetDraft returns the open draft for a program and period, or nil.
func (s *submissionService) GetDraft(actor Actor, programID, periodID uint) (*models.ProgramSubmission, error) {
	if _, err := loadProgram(s.db, actor, programID); err != nil {
		return nil, err
	}

	var submission models.ProgramSubmission
	err := s.db.Where("program_id = ? AND period_id = ? AND is_draft = ? AND is_deleted = ?", programID, periodID, true, false).
		Order("submission_id DESC").
		Preload("Targets", activeTargets).
		First(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &submission, nil
}

// ListHistory returns every live version for a program and period, newest
// first.
func (s *submissionService) ListHistory(actor Actor, programID, periodID uint) ([]models.ProgramSubmission, error) {
	if _, err := loadProgram(s.db, actor, programID); err != nil {
		return nil, err
	}

	var versions []models.ProgramSubmission
	if err := s.db.Where("program_id = ? AND period_id = ? AND is_deleted = ?", programID, periodID, false).
		Order("submission_id DESC").
		Preload("Targets", activeTargets).
		Find(&versions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if versions == nil {
		versions = []models.ProgramSubmission{}
	}
	return versions, nil
}

// ListFinalizedForPeriod is the admin view of a period: the latest finalized
// version of every program, optionally limited to one agency.
func (s *submissionService) ListFinalizedForPeriod(periodID uint, agencyID *uint, page pagination.PageRequest) (*pagination.PageResponse[models.ProgramSubmission], error) {
	base := s.db.Model(&models.ProgramSubmission{}).Scopes(latestFinalized(periodID))
	if agencyID != nil {
		base = base.Joins("JOIN programs ON programs.program_id = program_submissions.program_id").
			Where("programs.agency_id = ?", *agencyID)
	}

	result, err := pagination.Query[models.ProgramSubmission](base, page, func(tx *gorm.DB) *gorm.DB {
		return tx.Order("program_submissions.program_id ASC").
			Preload("Program").
			Preload("Targets", activeTargets)
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// reload fetches a live submission with its program, period and targets.
func (s *submissionService) reload(submissionID uint) (*models.ProgramSubmission, error) {
	var submission models.ProgramSubmission
	if err := s.db.Where("submission_id = ? AND is_deleted = ?", submissionID, false).
		Preload("Program").
		Preload("Period").
		Preload("Targets", activeTargets).
		First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSubmissionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &submission, nil
}
