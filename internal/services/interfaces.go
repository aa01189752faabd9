package services

import (
	"time"

	"github.com/shopspring/decimal"

	"pcds2030/internal/models"
	"pcds2030/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(actor Actor, username, password, fullName string, role models.UserRole, agencyID *uint) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	AttemptLogin(username, password string) (*models.User, error)
}

// ProgramServicer defines the contract for program-related business logic.
type ProgramServicer interface {
	CreateProgram(actor Actor, agencyID uint, name, number, description string) (*models.Program, error)
	UpdateProgram(actor Actor, programID uint, name, number, description string) (*models.Program, error)
	GetProgramByID(actor Actor, programID uint) (*models.Program, error)
	ListPrograms(actor Actor, page pagination.PageRequest, agencyID *uint) (*pagination.PageResponse[models.Program], error)
}

// PeriodInput carries the writable fields of a reporting period.
type PeriodInput struct {
	Year         int
	PeriodType   models.PeriodType
	PeriodNumber int
	StartDate    time.Time
	EndDate      time.Time
	Status       models.PeriodStatus
}

// PeriodFilter holds optional filter parameters for listing periods.
type PeriodFilter struct {
	Year   *int
	Status *models.PeriodStatus
}

// PeriodServicer is the reporting period registry.
type PeriodServicer interface {
	CreatePeriod(actor Actor, input PeriodInput) (*models.ReportingPeriod, error)
	UpdatePeriod(actor Actor, periodID uint, input PeriodInput) (*models.ReportingPeriod, error)
	OpenPeriod(actor Actor, periodID uint) (*models.ReportingPeriod, error)
	SetPeriodStatus(actor Actor, periodID uint, status models.PeriodStatus) (*models.ReportingPeriod, error)
	DeletePeriod(actor Actor, periodID uint) error
	GetPeriodByID(periodID uint) (*models.ReportingPeriod, error)
	GetCurrentPeriod() (*models.ReportingPeriod, error)
	ListPeriods(page pagination.PageRequest, filter PeriodFilter) (*pagination.PageResponse[models.ReportingPeriod], error)
}

// TargetInput carries one target row of a draft.
type TargetInput struct {
	TargetNumber      string
	TargetDescription string
	StatusIndicator   models.TargetStatus
	Remarks           string
	StartDate         *time.Time
	EndDate           *time.Time
}

// FinalizeResult reports the outcome of a finalize call. AlreadyFinalized is
// true when the submission had been finalized by an earlier call.
type FinalizeResult struct {
	Submission       *models.ProgramSubmission `json:"submission"`
	AlreadyFinalized bool                      `json:"already_finalized"`
}

// SubmissionServicer owns the draft/finalized lifecycle of program reports.
type SubmissionServicer interface {
	CreateSubmission(actor Actor, programID, periodID uint, description string, targets []TargetInput) (*models.ProgramSubmission, error)
	UpdateDraft(actor Actor, submissionID uint, description string, targets []TargetInput) (*models.ProgramSubmission, error)
	Finalize(actor Actor, submissionID uint) (*FinalizeResult, error)
	Unsubmit(actor Actor, programID, periodID uint) (*models.ProgramSubmission, error)
	DeleteSubmission(actor Actor, submissionID uint) error
	GetSubmissionByID(actor Actor, submissionID uint) (*models.ProgramSubmission, error)
	GetLatestFinalized(programID, periodID uint) (*models.ProgramSubmission, error)
	GetDraft(actor Actor, programID, periodID uint) (*models.ProgramSubmission, error)
	ListHistory(actor Actor, programID, periodID uint) ([]models.ProgramSubmission, error)
	ListFinalizedForPeriod(periodID uint, agencyID *uint, page pagination.PageRequest) (*pagination.PageResponse[models.ProgramSubmission], error)
}

// CompletionStatus classifies an agency for a period.
type CompletionStatus string

const (
	CompletionComplete CompletionStatus = "complete"
	CompletionPending  CompletionStatus = "pending"
)

// AgencyCompletion is one agency's row in the period statistics.
type AgencyCompletion struct {
	AgencyID       uint             `json:"agency_id"`
	AgencyName     string           `json:"agency_name"`
	ProgramCount   int64            `json:"program_count"`
	SubmittedCount int64            `json:"submitted_count"`
	Status         CompletionStatus `json:"status"`
}

// PeriodStatistics aggregates submission completion for a period.
type PeriodStatistics struct {
	Period            *models.ReportingPeriod `json:"period"`
	TotalAgencies     int                     `json:"total_agencies"`
	CompleteAgencies  int                     `json:"complete_agencies"`
	PendingAgencies   int                     `json:"pending_agencies"`
	TotalPrograms     int64                   `json:"total_programs"`
	SubmittedPrograms int64                   `json:"submitted_programs"`
	CompletionRate    decimal.Decimal         `json:"completion_rate"`
	Agencies          []AgencyCompletion      `json:"agencies"`
}

// StatisticsServicer computes dashboard aggregates.
type StatisticsServicer interface {
	ComputeStatistics(periodID uint) (*PeriodStatistics, error)
}

// AuditFilter holds optional filter parameters for listing audit entries.
type AuditFilter struct {
	UserID *uint
	Action string
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action string, status models.AuditStatus, ipAddress string, details map[string]any)
	List(page pagination.PageRequest, filter AuditFilter) (*pagination.PageResponse[models.AuditLog], error)
}
