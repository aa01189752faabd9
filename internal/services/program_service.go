package services

import (
	"strings"

	"gorm.io/gorm"

	apperrors "pcds2030/internal/errors"
	"pcds2030/internal/models"
	"pcds2030/internal/pagination"
)

// programService handles program-related business logic.
type programService struct {
	db *gorm.DB
}

// NewProgramService creates a new ProgramServicer.
func NewProgramService(db *gorm.DB) ProgramServicer {
	return &programService{db: db}
}

// CreateProgram adds a program to an agency.
func (s *programService) CreateProgram(actor Actor, agencyID uint, name, number, description string) (*models.Program, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "program_name is required")
	}

	createdBy := actor.UserID
	program := &models.Program{
		AgencyID:    agencyID,
		Name:        name,
		Number:      strings.TrimSpace(number),
		Description: description,
		CreatedBy:   &createdBy,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var agencies int64
		if err := tx.Model(&models.Agency{}).Where("agency_id = ?", agencyID).Count(&agencies).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if agencies == 0 {
			return apperrors.ErrAgencyNotFound
		}

		if err := tx.Create(program).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return writeAudit(tx, actor.UserID, AuditCreateProgram, map[string]any{
			"program_id":   program.ID,
			"agency_id":    agencyID,
			"program_name": program.Name,
		})
	})
	if err != nil {
		return nil, err
	}
	return program, nil
}

// UpdateProgram renames or renumbers a program.
func (s *programService) UpdateProgram(actor Actor, programID uint, name, number, description string) (*models.Program, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "program_name is required")
	}

	var program *models.Program
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		if program, err = loadProgram(tx, actor, programID); err != nil {
			return err
		}

		before := program.Name
		updates := map[string]interface{}{
			"program_name":   name,
			"program_number": strings.TrimSpace(number),
			"description":    description,
		}
		if err := tx.Model(program).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		program.Name = name
		program.Number = strings.TrimSpace(number)
		program.Description = description

		return writeAudit(tx, actor.UserID, AuditUpdateProgram, map[string]any{
			"program_id": programID,
			"old_name":   before,
			"new_name":   name,
		})
	})
	if err != nil {
		return nil, err
	}
	return program, nil
}

// GetProgramByID retrieves a program the actor may see.
func (s *programService) GetProgramByID(actor Actor, programID uint) (*models.Program, error) {
	return loadProgram(s.db.Preload("Agency"), actor, programID)
}

// ListPrograms returns live programs ordered by number. Agency users only
// see their own agency's programs.
func (s *programService) ListPrograms(actor Actor, page pagination.PageRequest, agencyID *uint) (*pagination.PageResponse[models.Program], error) {
	if !actor.IsAdmin() {
		if actor.AgencyID == nil {
			return nil, apperrors.ErrPermissionDenied
		}
		agencyID = actor.AgencyID
	}

	base := s.db.Model(&models.Program{}).Where("is_deleted = ?", false)
	if agencyID != nil {
		base = base.Where("agency_id = ?", *agencyID)
	}

	result, err := pagination.Query[models.Program](base, page, func(tx *gorm.DB) *gorm.DB {
		return tx.Order("program_number ASC, program_id ASC")
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}
