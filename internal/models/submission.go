package models

import "time"

// SubmissionState is the derived lifecycle state of a submission row.
type SubmissionState string

const (
	SubmissionStateDraft     SubmissionState = "draft"
	SubmissionStateFinalized SubmissionState = "finalized"
)

// ProgramSubmission is one version of a program's report for a period.
// Rows are never hard-deleted; the latest finalized version of a
// (program, period) pair is the one with the highest ID.
type ProgramSubmission struct {
	ID          uint       `gorm:"column:submission_id;primaryKey;autoIncrement" json:"submission_id"`
	ProgramID   uint       `gorm:"not null;index:idx_submission_pair,priority:1" json:"program_id"`
	PeriodID    uint       `gorm:"not null;index:idx_submission_pair,priority:2" json:"period_id"`
	IsDraft     bool       `gorm:"not null;index:idx_submission_pair,priority:3" json:"is_draft"`
	Description string     `gorm:"type:text" json:"description"`
	SubmittedBy *uint      `json:"submitted_by,omitempty"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	IsDeleted   bool       `gorm:"not null;index:idx_submission_pair,priority:4" json:"is_deleted"`
	Timestamps

	Program *Program `gorm:"foreignKey:ProgramID" json:"program,omitempty"`
	// No database constraint: period deletion is guarded by counting live
	// submissions, and soft-deleted rows must not block it.
	Period  *ReportingPeriod `gorm:"foreignKey:PeriodID;constraint:-" json:"period,omitempty"`
	Targets []ProgramTarget  `gorm:"foreignKey:SubmissionID" json:"targets,omitempty"`
}

// TableName overrides the table name used by GORM.
func (ProgramSubmission) TableName() string { return "program_submissions" }

// State derives the lifecycle state from the draft flag.
func (s ProgramSubmission) State() SubmissionState {
	if s.IsDraft {
		return SubmissionStateDraft
	}
	return SubmissionStateFinalized
}
