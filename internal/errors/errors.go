// Package errors provides custom error types for the PCDS2030 reporting API.
// All service-layer errors should use AppError so that callers can branch on a
// closed set of kinds and render messages without leaking internal details.
package errors

import (
	"fmt"
	"net/http"
)

// Kind is the category an AppError belongs to.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindConflict         Kind = "conflict"
	KindPermissionDenied Kind = "permission_denied"
	KindNotFound         Kind = "not_found"
	KindUnauthorized     Kind = "unauthorized"
	KindInternal         Kind = "internal"
)

// AppError represents a structured application error with an error code,
// kind, human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Kind       Kind   `json:"kind"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so that
// copies made by Wrap and WithMessage still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Kind:       sentinel.Kind,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Kind:       sentinel.Kind,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Newf is WithMessage with a format string.
func Newf(sentinel *AppError, format string, args ...any) *AppError {
	return WithMessage(sentinel, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of err, or KindInternal if err is not an AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Kind: KindUnauthorized, Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Kind: KindUnauthorized, Message: "Invalid username or password", StatusCode: http.StatusUnauthorized}
	ErrPermissionDenied   = &AppError{Code: "PERMISSION_DENIED", Kind: KindPermissionDenied, Message: "Permission denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Kind: KindValidation, Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Kind: KindNotFound, Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Kind: KindInternal, Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User and agency errors.
var (
	ErrUserNotFound      = &AppError{Code: "USER_NOT_FOUND", Kind: KindNotFound, Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateUsername = &AppError{Code: "DUPLICATE_USERNAME", Kind: KindConflict, Message: "A user with this username already exists", StatusCode: http.StatusConflict}
	ErrAgencyNotFound    = &AppError{Code: "AGENCY_NOT_FOUND", Kind: KindNotFound, Message: "Agency not found", StatusCode: http.StatusNotFound}
	ErrInvalidAgencyRole = &AppError{Code: "INVALID_AGENCY_ROLE", Kind: KindValidation, Message: "Role and agency do not match", StatusCode: http.StatusBadRequest}
)

// Program errors.
var (
	ErrProgramNotFound = &AppError{Code: "PROGRAM_NOT_FOUND", Kind: KindNotFound, Message: "Program not found", StatusCode: http.StatusNotFound}
)

// Reporting period errors.
var (
	ErrPeriodNotFound       = &AppError{Code: "PERIOD_NOT_FOUND", Kind: KindNotFound, Message: "Reporting period not found", StatusCode: http.StatusNotFound}
	ErrInvalidStatus        = &AppError{Code: "INVALID_STATUS", Kind: KindValidation, Message: "Status must be 'open' or 'closed'", StatusCode: http.StatusBadRequest}
	ErrInvalidPeriodNumber  = &AppError{Code: "INVALID_PERIOD_NUMBER", Kind: KindValidation, Message: "Period number is out of range for the period type", StatusCode: http.StatusBadRequest}
	ErrInvalidDateRange     = &AppError{Code: "INVALID_DATE_RANGE", Kind: KindValidation, Message: "Start date must not be after end date", StatusCode: http.StatusBadRequest}
	ErrDuplicatePeriod      = &AppError{Code: "DUPLICATE_PERIOD", Kind: KindConflict, Message: "Reporting period already exists", StatusCode: http.StatusConflict}
	ErrOverlappingPeriod    = &AppError{Code: "OVERLAPPING_PERIOD", Kind: KindConflict, Message: "Date range overlaps an existing reporting period", StatusCode: http.StatusConflict}
	ErrPeriodHasSubmissions = &AppError{Code: "PERIOD_HAS_SUBMISSIONS", Kind: KindConflict, Message: "Reporting period has submissions", StatusCode: http.StatusConflict}
	ErrPeriodNotOpen        = &AppError{Code: "PERIOD_NOT_OPEN", Kind: KindConflict, Message: "Reporting period is not open for submissions", StatusCode: http.StatusConflict}
)

// Submission errors.
var (
	ErrSubmissionNotFound    = &AppError{Code: "SUBMISSION_NOT_FOUND", Kind: KindNotFound, Message: "Submission not found", StatusCode: http.StatusNotFound}
	ErrNoFinalizedSubmission = &AppError{Code: "NO_FINALIZED_SUBMISSION", Kind: KindNotFound, Message: "No finalized submission exists for this program and period", StatusCode: http.StatusNotFound}
	ErrDraftExists           = &AppError{Code: "DRAFT_EXISTS", Kind: KindConflict, Message: "A draft already exists for this program and period", StatusCode: http.StatusConflict}
	ErrSubmissionNotDraft    = &AppError{Code: "SUBMISSION_NOT_DRAFT", Kind: KindConflict, Message: "Submission is not a draft", StatusCode: http.StatusConflict}
)
