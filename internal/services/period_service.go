package services

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pcds2030/internal/daterange"
	apperrors "pcds2030/internal/errors"
	"pcds2030/internal/models"
	"pcds2030/internal/pagination"
)

// periodService is the reporting period registry.
type periodService struct {
	db *gorm.DB
}

// NewPeriodService creates a new PeriodServicer.
func NewPeriodService(db *gorm.DB) PeriodServicer {
	return &periodService{db: db}
}

// validatePeriodInput checks the fields of a period before any query runs.
// An empty status is left empty for the caller to resolve.
func validatePeriodInput(input *PeriodInput) error {
	if input.Year <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "year is required")
	}
	if !input.PeriodType.Valid() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "period_type must be one of quarter, half, yearly")
	}
	if max := input.PeriodType.MaxNumber(); input.PeriodNumber < 1 || input.PeriodNumber > max {
		return apperrors.Newf(apperrors.ErrInvalidPeriodNumber,
			"period_number for %s must be between 1 and %d", input.PeriodType, max)
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "start_date and end_date are required")
	}

	input.StartDate = daterange.Day(input.StartDate)
	input.EndDate = daterange.Day(input.EndDate)
	if !daterange.New(input.StartDate, input.EndDate).Valid() {
		return apperrors.ErrInvalidDateRange
	}

	if input.Status != "" && !input.Status.Valid() {
		return apperrors.ErrInvalidStatus
	}
	return nil
}

// registryLockSQL returns the statement that serializes registry writers for
// a dialect. Postgres takes a self-conflicting table lock that still admits
// readers. MySQL locks every row with next-key locks, which also blocks
// inserts into the gaps under REPEATABLE READ. SQLite already allows a single
// writer, so it needs nothing.
func registryLockSQL(dialect string) string {
	switch dialect {
	case "postgres":
		return "LOCK TABLE reporting_periods IN SHARE ROW EXCLUSIVE MODE"
	case "mysql":
		return "SELECT period_id FROM reporting_periods FOR UPDATE"
	default:
		return ""
	}
}

// lockRegistry must run first in every transaction that writes periods, so
// that the open-period and overlap checks see every committed writer.
func lockRegistry(tx *gorm.DB) error {
	stmt := registryLockSQL(tx.Dialector.Name())
	if stmt == "" {
		return nil
	}
	if err := tx.Exec(stmt).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// checkPeriodConflicts locks every period other than excludeID and rejects
// input that repeats an existing (year, type, number) tuple or whose dates
// intersect an existing period. The tuple check runs over all rows before the
// overlap check so that a duplicate is always reported as such.
func checkPeriodConflicts(tx *gorm.DB, input PeriodInput, excludeID uint) error {
	var others []models.ReportingPeriod
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("period_id <> ?", excludeID).
		Find(&others).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	candidate := models.ReportingPeriod{
		Year:         input.Year,
		PeriodType:   input.PeriodType,
		PeriodNumber: input.PeriodNumber,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
	}

	for _, other := range others {
		if other.Year == input.Year && other.PeriodType == input.PeriodType && other.PeriodNumber == input.PeriodNumber {
			return apperrors.Newf(apperrors.ErrDuplicatePeriod, "Period %s already exists", candidate.Describe())
		}
	}

	for _, other := range others {
		if daterange.Overlaps(candidate.Range(), other.Range()) {
			return apperrors.Newf(apperrors.ErrOverlappingPeriod,
				"Date range %s overlaps period %s (%s)", candidate.Range(), other.Label(), other.Range())
		}
	}
	return nil
}

// closeOtherPeriods closes every open period except keepID.
func closeOtherPeriods(tx *gorm.DB, keepID uint) error {
	if err := tx.Model(&models.ReportingPeriod{}).
		Where("period_id <> ? AND status = ?", keepID, models.PeriodStatusOpen).
		Update("status", models.PeriodStatusClosed).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// lockPeriod loads a period for update inside tx.
func lockPeriod(tx *gorm.DB, periodID uint) (*models.ReportingPeriod, error) {
	var period models.ReportingPeriod
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("period_id = ?", periodID).
		First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &period, nil
}

// CreatePeriod validates and inserts a new reporting period. A period created
// as open closes every other period in the same transaction.
func (s *periodService) CreatePeriod(actor Actor, input PeriodInput) (*models.ReportingPeriod, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validatePeriodInput(&input); err != nil {
		return nil, err
	}
	if input.Status == "" {
		input.Status = models.PeriodStatusClosed
	}

	period := &models.ReportingPeriod{
		Year:         input.Year,
		PeriodType:   input.PeriodType,
		PeriodNumber: input.PeriodNumber,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		Status:       input.Status,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockRegistry(tx); err != nil {
			return err
		}
		if err := checkPeriodConflicts(tx, input, 0); err != nil {
			return err
		}
		if err := tx.Create(period).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if period.IsOpen() {
			return closeOtherPeriods(tx, period.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return period, nil
}

// UpdatePeriod runs the create validation pipeline against every period
// except the one being updated, then rewrites it. An empty status keeps the
// current one.
func (s *periodService) UpdatePeriod(actor Actor, periodID uint, input PeriodInput) (*models.ReportingPeriod, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := validatePeriodInput(&input); err != nil {
		return nil, err
	}

	var period *models.ReportingPeriod
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockRegistry(tx); err != nil {
			return err
		}
		var err error
		if period, err = lockPeriod(tx, periodID); err != nil {
			return err
		}
		if err := checkPeriodConflicts(tx, input, periodID); err != nil {
			return err
		}
		if input.Status == "" {
			input.Status = period.Status
		}

		updates := map[string]interface{}{
			"year":          input.Year,
			"period_type":   input.PeriodType,
			"period_number": input.PeriodNumber,
			"start_date":    input.StartDate,
			"end_date":      input.EndDate,
			"status":        input.Status,
		}
		if err := tx.Model(period).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if input.Status == models.PeriodStatusOpen {
			return closeOtherPeriods(tx, periodID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetPeriodByID(periodID)
}

// OpenPeriod makes periodID the only open period.
func (s *periodService) OpenPeriod(actor Actor, periodID uint) (*models.ReportingPeriod, error) {
	return s.SetPeriodStatus(actor, periodID, models.PeriodStatusOpen)
}

// SetPeriodStatus opens or closes a period. Opening closes all other periods
// first; both statements commit together or not at all.
func (s *periodService) SetPeriodStatus(actor Actor, periodID uint, status models.PeriodStatus) (*models.ReportingPeriod, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockRegistry(tx); err != nil {
			return err
		}
		period, err := lockPeriod(tx, periodID)
		if err != nil {
			return err
		}
		if status == models.PeriodStatusOpen {
			if err := closeOtherPeriods(tx, periodID); err != nil {
				return err
			}
		}
		if err := tx.Model(period).Update("status", status).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetPeriodByID(periodID)
}

// DeletePeriod removes a period that no live submission references.
func (s *periodService) DeletePeriod(actor Actor, periodID uint) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockRegistry(tx); err != nil {
			return err
		}
		period, err := lockPeriod(tx, periodID)
		if err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.ProgramSubmission{}).
			Where("period_id = ? AND is_deleted = ?", periodID, false).
			Count(&count).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return apperrors.Newf(apperrors.ErrPeriodHasSubmissions,
				"Cannot delete period %s: %d submission(s) exist for this period", period.Label(), count)
		}

		if err := tx.Delete(period).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// GetPeriodByID retrieves a period by ID.
func (s *periodService) GetPeriodByID(periodID uint) (*models.ReportingPeriod, error) {
	var period models.ReportingPeriod
	if err := s.db.Where("period_id = ?", periodID).First(&period).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPeriodNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &period, nil
}

// GetCurrentPeriod returns the open period, or nil when every period is closed.
func (s *periodService) GetCurrentPeriod() (*models.ReportingPeriod, error) {
	var period models.ReportingPeriod
	err := s.db.Where("status = ?", models.PeriodStatusOpen).Order("period_id DESC").First(&period).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &period, nil
}

// ListPeriods returns a paginated list of periods, newest first.
func (s *periodService) ListPeriods(page pagination.PageRequest, filter PeriodFilter) (*pagination.PageResponse[models.ReportingPeriod], error) {
	base := s.db.Model(&models.ReportingPeriod{})
	if filter.Year != nil {
		base = base.Where("year = ?", *filter.Year)
	}
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}

	result, err := pagination.Query[models.ReportingPeriod](base, page, func(tx *gorm.DB) *gorm.DB {
		return tx.Order("start_date DESC")
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}
