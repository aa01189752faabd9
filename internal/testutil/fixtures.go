package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"pcds2030/internal/models"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date returns midnight UTC of the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestAgency creates an agency with a unique name.
func CreateTestAgency(t *testing.T, db *gorm.DB) *models.Agency {
	t.Helper()

	agency := &models.Agency{Name: fmt.Sprintf("Agency %d", nextID())}
	if err := db.Create(agency).Error; err != nil {
		t.Fatalf("failed to create test agency: %v", err)
	}
	return agency
}

// CreateTestUser creates an active user of the given role.
func CreateTestUser(t *testing.T, db *gorm.DB, role models.UserRole, agencyID *uint) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username: fmt.Sprintf("user%d", nextID()),
		Password: string(hash),
		FullName: "Test User",
		Role:     role,
		AgencyID: agencyID,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAdmin creates an admin user.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUser(t, db, models.UserRoleAdmin, nil)
}

// CreateTestAgencyUser creates an agency user belonging to agencyID.
func CreateTestAgencyUser(t *testing.T, db *gorm.DB, agencyID uint) *models.User {
	t.Helper()
	return CreateTestUser(t, db, models.UserRoleAgency, &agencyID)
}

// CreateTestProgram creates a live program owned by agencyID.
func CreateTestProgram(t *testing.T, db *gorm.DB, agencyID uint) *models.Program {
	t.Helper()

	n := nextID()
	program := &models.Program{
		AgencyID: agencyID,
		Name:     fmt.Sprintf("Program %d", n),
		Number:   fmt.Sprintf("P%03d", n),
	}
	if err := db.Create(program).Error; err != nil {
		t.Fatalf("failed to create test program: %v", err)
	}
	return program
}

// CreateTestPeriod inserts a period directly, bypassing registry checks.
func CreateTestPeriod(t *testing.T, db *gorm.DB, year int, periodType models.PeriodType, number int, start, end time.Time, status models.PeriodStatus) *models.ReportingPeriod {
	t.Helper()

	period := &models.ReportingPeriod{
		Year:         year,
		PeriodType:   periodType,
		PeriodNumber: number,
		StartDate:    start,
		EndDate:      end,
		Status:       status,
	}
	if err := db.Create(period).Error; err != nil {
		t.Fatalf("failed to create test period: %v", err)
	}
	return period
}

// CreateTestQuarter inserts quarter q of year with its calendar dates.
func CreateTestQuarter(t *testing.T, db *gorm.DB, year, q int, status models.PeriodStatus) *models.ReportingPeriod {
	t.Helper()

	start := Date(year, time.Month(3*(q-1)+1), 1)
	end := start.AddDate(0, 3, -1)
	return CreateTestPeriod(t, db, year, models.PeriodTypeQuarter, q, start, end, status)
}

// CreateTestSubmission inserts a submission row directly.
func CreateTestSubmission(t *testing.T, db *gorm.DB, programID, periodID uint, isDraft bool) *models.ProgramSubmission {
	t.Helper()

	submission := &models.ProgramSubmission{
		ProgramID:   programID,
		PeriodID:    periodID,
		IsDraft:     isDraft,
		Description: fmt.Sprintf("Submission %d", nextID()),
	}
	if !isDraft {
		now := time.Now()
		submission.SubmittedAt = &now
	}
	if err := db.Create(submission).Error; err != nil {
		t.Fatalf("failed to create test submission: %v", err)
	}
	return submission
}

// CreateTestTarget inserts a target belonging to submissionID.
func CreateTestTarget(t *testing.T, db *gorm.DB, submissionID uint, description string) *models.ProgramTarget {
	t.Helper()

	target := &models.ProgramTarget{
		SubmissionID:      submissionID,
		TargetNumber:      fmt.Sprintf("T%d", nextID()),
		TargetDescription: description,
		StatusIndicator:   models.TargetStatusInProgress,
	}
	if err := db.Create(target).Error; err != nil {
		t.Fatalf("failed to create test target: %v", err)
	}
	return target
}
