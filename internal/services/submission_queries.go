package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "pcds2030/internal/errors"
	"pcds2030/internal/models"
)

// latestFinalized restricts a program_submissions query to the latest
// finalized version of every (program, period) pair in periodID. The latest
// version is the highest submission_id among finalized, non-deleted rows;
// timestamps play no part. Every finalized view goes through this scope.
func latestFinalized(periodID uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		latest := db.Session(&gorm.Session{NewDB: true}).
			Model(&models.ProgramSubmission{}).
			Select("MAX(submission_id)").
			Where("period_id = ? AND is_draft = ? AND is_deleted = ?", periodID, false, false).
			Group("program_id, period_id")
		return db.Where("program_submissions.submission_id IN (?)", latest)
	}
}

// activeTargets preloads the non-deleted targets of a submission in order.
func activeTargets(db *gorm.DB) *gorm.DB {
	return db.Where("is_deleted = ?", false).Order("target_id ASC")
}

// loadProgram fetches a non-deleted program and checks that actor may act on
// its agency.
func loadProgram(db *gorm.DB, actor Actor, programID uint) (*models.Program, error) {
	var program models.Program
	if err := db.Where("program_id = ? AND is_deleted = ?", programID, false).First(&program).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProgramNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !actor.CanAccessAgency(program.AgencyID) {
		return nil, apperrors.ErrPermissionDenied
	}
	return &program, nil
}

// findSubmission fetches a non-deleted submission by ID.
func findSubmission(db *gorm.DB, submissionID uint) (*models.ProgramSubmission, error) {
	var submission models.ProgramSubmission
	if err := db.Where("submission_id = ? AND is_deleted = ?", submissionID, false).First(&submission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSubmissionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &submission, nil
}
