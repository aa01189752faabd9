package models

import "time"

// TargetStatus is the progress indicator an agency reports for a target.
type TargetStatus string

const (
	TargetStatusNotStarted TargetStatus = "not_started"
	TargetStatusInProgress TargetStatus = "in_progress"
	TargetStatusCompleted  TargetStatus = "completed"
	TargetStatusDelayed    TargetStatus = "delayed"
)

// Valid reports whether s is a known status indicator.
func (s TargetStatus) Valid() bool {
	switch s {
	case TargetStatusNotStarted, TargetStatusInProgress, TargetStatusCompleted, TargetStatusDelayed:
		return true
	}
	return false
}

// ProgramTarget belongs to exactly one submission and is never versioned on
// its own: editing a draft soft-deletes its targets and inserts new ones.
type ProgramTarget struct {
	ID                uint         `gorm:"column:target_id;primaryKey;autoIncrement" json:"target_id"`
	SubmissionID      uint         `gorm:"not null;index" json:"submission_id"`
	TargetNumber      string       `gorm:"size:20" json:"target_number"`
	TargetDescription string       `gorm:"type:text;not null" json:"target_description"`
	StatusIndicator   TargetStatus `gorm:"size:20;not null" json:"status_indicator"`
	Remarks           string       `gorm:"type:text" json:"remarks"`
	StartDate         *time.Time   `gorm:"type:date" json:"start_date,omitempty"`
	EndDate           *time.Time   `gorm:"type:date" json:"end_date,omitempty"`
	IsDeleted         bool         `gorm:"not null" json:"is_deleted"`
	Timestamps
}

// TableName overrides the table name used by GORM.
func (ProgramTarget) TableName() string { return "program_targets" }
