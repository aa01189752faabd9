package services

import (
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"pcds2030/internal/models"
	"pcds2030/internal/pagination"
	"pcds2030/internal/testutil"
)

func adminActor(t *testing.T, db *gorm.DB) Actor {
	t.Helper()
	admin := testutil.CreateTestAdmin(t, db)
	return Actor{UserID: admin.ID, Role: models.UserRoleAdmin}
}

func agencyActor(t *testing.T, db *gorm.DB, agencyID uint) Actor {
	t.Helper()
	user := testutil.CreateTestAgencyUser(t, db, agencyID)
	return Actor{UserID: user.ID, Role: models.UserRoleAgency, AgencyID: &agencyID}
}

func quarterInput(year, q int, start, end time.Time) PeriodInput {
	return PeriodInput{
		Year:         year,
		PeriodType:   models.PeriodTypeQuarter,
		PeriodNumber: q,
		StartDate:    start,
		EndDate:      end,
	}
}

func countOpenPeriods(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.ReportingPeriod{}).Where("status = ?", models.PeriodStatusOpen).Count(&n).Error; err != nil {
		t.Fatalf("count open periods: %v", err)
	}
	return n
}

func TestCreatePeriod(t *testing.T) {
	t.Run("quarter_overlap_scenario", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		admin := adminActor(t, db)

		q1, err := svc.CreatePeriod(admin, quarterInput(2025, 1, testutil.Date(2025, 1, 1), testutil.Date(2025, 3, 31)))
		testutil.AssertNoError(t, err)
		if q1.ID == 0 {
			t.Fatal("expected non-zero period ID")
		}
		if q1.Status != models.PeriodStatusClosed {
			t.Errorf("expected default status closed, got %s", q1.Status)
		}

		_, err = svc.CreatePeriod(admin, quarterInput(2025, 2, testutil.Date(2025, 3, 15), testutil.Date(2025, 6, 30)))
		testutil.AssertAppError(t, err, "OVERLAPPING_PERIOD")
		if err != nil && !strings.Contains(err.Error(), "Q1 2025") {
			t.Errorf("expected message to name Q1 2025, got %q", err.Error())
		}

		q2, err := svc.CreatePeriod(admin, quarterInput(2025, 2, testutil.Date(2025, 4, 1), testutil.Date(2025, 6, 30)))
		testutil.AssertNoError(t, err)
		if q2.Label() != "Q2 2025" {
			t.Errorf("expected label Q2 2025, got %s", q2.Label())
		}
	})

	t.Run("touching_bounds_overlap", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		admin := adminActor(t, db)

		_, err := svc.CreatePeriod(admin, quarterInput(2025, 1, testutil.Date(2025, 1, 1), testutil.Date(2025, 3, 31)))
		testutil.AssertNoError(t, err)

		_, err = svc.CreatePeriod(admin, quarterInput(2025, 2, testutil.Date(2025, 3, 31), testutil.Date(2025, 6, 30)))
		testutil.AssertAppError(t, err, "OVERLAPPING_PERIOD")
	})

	t.Run("enclosing_range_overlaps", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		admin := adminActor(t, db)

		_, err := svc.CreatePeriod(admin, quarterInput(2025, 2, testutil.Date(2025, 4, 1), testutil.Date(2025, 6, 30)))
		testutil.AssertNoError(t, err)

		yearly := PeriodInput{
			Year: 2025, PeriodType: models.PeriodTypeYearly, PeriodNumber: 1,
			StartDate: testutil.Date(2025, 1, 1), EndDate: testutil.Date(2025, 12, 31),
		}
		_, err = svc.CreatePeriod(admin, yearly)
		testutil.AssertAppError(t, err, "OVERLAPPING_PERIOD")
	})

	t.Run("duplicate_tuple", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		admin := adminActor(t, db)

		_, err := svc.CreatePeriod(admin, quarterInput(2025, 2, testutil.Date(2025, 4, 1), testutil.Date(2025, 6, 30)))
		testutil.AssertNoError(t, err)

		_, err = svc.CreatePeriod(admin, quarterInput(2025, 2, testutil.Date(2026, 4, 1), testutil.Date(2026, 6, 30)))
		testutil.AssertAppError(t, err, "DUPLICATE_PERIOD")
		if err != nil && err.Error() != "Period quarter 2 2025 already exists" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("validation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		admin := adminActor(t, db)

		start, end := testutil.Date(2025, 1, 1), testutil.Date(2025, 3, 31)
		tests := []struct {
			name  string
			input PeriodInput
			code  string
		}{
			{"missing_year", PeriodInput{PeriodType: models.PeriodTypeQuarter, PeriodNumber: 1, StartDate: start, EndDate: end}, "INVALID_INPUT"},
			{"unknown_type", PeriodInput{Year: 2025, PeriodType: "monthly", PeriodNumber: 1, StartDate: start, EndDate: end}, "INVALID_INPUT"},
			{"quarter_5", quarterInput(2025, 5, start, end), "INVALID_PERIOD_NUMBER"},
			{"half_3", PeriodInput{Year: 2025, PeriodType: models.PeriodTypeHalf, PeriodNumber: 3, StartDate: start, EndDate: end}, "INVALID_PERIOD_NUMBER"},
			{"yearly_2", PeriodInput{Year: 2025, PeriodType: models.PeriodTypeYearly, PeriodNumber: 2, StartDate: start, EndDate: end}, "INVALID_PERIOD_NUMBER"},
			{"missing_dates", PeriodInput{Year: 2025, PeriodType: models.PeriodTypeQuarter, PeriodNumber: 1}, "INVALID_INPUT"},
			{"reversed_dates", quarterInput(2025, 1, end, start), "INVALID_DATE_RANGE"},
			{"bad_status", PeriodInput{Year: 2025, PeriodType: models.PeriodTypeQuarter, PeriodNumber: 1, StartDate: start, EndDate: end, Status: "archived"}, "INVALID_STATUS"},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				_, err := svc.CreatePeriod(admin, tc.input)
				testutil.AssertAppError(t, err, tc.code)
			})
		}
	})

	t.Run("single_day_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		admin := adminActor(t, db)

		day := testutil.Date(2025, 1, 1)
		_, err := svc.CreatePeriod(admin, quarterInput(2025, 1, day, day))
		testutil.AssertNoError(t, err)
	})

	t.Run("non_admin_denied", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		agency := testutil.CreateTestAgency(t, db)

		_, err := svc.CreatePeriod(agencyActor(t, db, agency.ID), quarterInput(2025, 1, testutil.Date(2025, 1, 1), testutil.Date(2025, 3, 31)))
		testutil.AssertAppError(t, err, "PERMISSION_DENIED")
	})

	t.Run("created_open_closes_others", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		admin := adminActor(t, db)
		old := testutil.CreateTestQuarter(t, db, 2025, 1, models.PeriodStatusOpen)

		input := quarterInput(2025, 2, testutil.Date(2025, 4, 1), testutil.Date(2025, 6, 30))
		input.Status = models.PeriodStatusOpen
		created, err := svc.CreatePeriod(admin, input)
		testutil.AssertNoError(t, err)

		if n := countOpenPeriods(t, db); n != 1 {
			t.Errorf("expected exactly one open period, got %d", n)
		}
		current, err := svc.GetCurrentPeriod()
		testutil.AssertNoError(t, err)
		if current == nil || current.ID != created.ID {
			t.Errorf("expected period %d to be current", created.ID)
		}
		reloaded, _ := svc.GetPeriodByID(old.ID)
		if reloaded.Status != models.PeriodStatusClosed {
			t.Errorf("expected old period closed, got %s", reloaded.Status)
		}
	})
}

func TestCreatePeriodIffNoOverlap(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPeriodService(db)
	admin := adminActor(t, db)

	existing, err := svc.CreatePeriod(admin, PeriodInput{
		Year: 2030, PeriodType: models.PeriodTypeHalf, PeriodNumber: 1,
		StartDate: testutil.Date(2030, 3, 10), EndDate: testutil.Date(2030, 3, 20),
	})
	testutil.AssertNoError(t, err)

	base := testutil.Date(2030, 3, 1)
	number := 0
	for startOffset := 0; startOffset < 30; startOffset += 3 {
		for length := 0; length < 12; length += 4 {
			start := base.AddDate(0, 0, startOffset)
			end := start.AddDate(0, 0, length)
			number++
			input := PeriodInput{
				Year: 3000 + number, PeriodType: models.PeriodTypeYearly, PeriodNumber: 1,
				StartDate: start, EndDate: end,
			}
			overlaps := !end.Before(existing.StartDate) && !start.After(existing.EndDate)

			created, err := svc.CreatePeriod(admin, input)
			if overlaps {
				testutil.AssertAppError(t, err, "OVERLAPPING_PERIOD")
				continue
			}
			testutil.AssertNoError(t, err)
			// Remove it again so that later candidates are only compared with existing.
			if err := svc.DeletePeriod(admin, created.ID); err != nil {
				t.Fatalf("cleanup: %v", err)
			}
		}
	}
}

func TestUpdatePeriod(t *testing.T) {
	t.Run("excludes_itself", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		admin := adminActor(t, db)
		q1 := testutil.CreateTestQuarter(t, db, 2025, 1, models.PeriodStatusClosed)

		updated, err := svc.UpdatePeriod(admin, q1.ID, quarterInput(2025, 1, testutil.Date(2025, 1, 2), testutil.Date(2025, 3, 30)))
		testutil.AssertNoError(t, err)
		if got := updated.StartDate.Format("2006-01-02"); got != "2025-01-02" {
			t.Errorf("expected start 2025-01-02, got %s", got)
		}
	})

	t.Run("overlap_with_other", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		admin := adminActor(t, db)
		testutil.CreateTestQuarter(t, db, 2025, 1, models.PeriodStatusClosed)
		q2 := testutil.CreateTestQuarter(t, db, 2025, 2, models.PeriodStatusClosed)

		_, err := svc.UpdatePeriod(admin, q2.ID, quarterInput(2025, 2, testutil.Date(2025, 3, 1), testutil.Date(2025, 6, 30)))
		testutil.AssertAppError(t, err, "OVERLAPPING_PERIOD")
	})

	t.Run("duplicate_with_other", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		admin := adminActor(t, db)
		testutil.CreateTestQuarter(t, db, 2025, 1, models.PeriodStatusClosed)
		q2 := testutil.CreateTestQuarter(t, db, 2025, 2, models.PeriodStatusClosed)

		_, err := svc.UpdatePeriod(admin, q2.ID, quarterInput(2025, 1, q2.StartDate, q2.EndDate))
		testutil.AssertAppError(t, err, "DUPLICATE_PERIOD")
	})

	t.Run("date_only_update_keeps_open_status", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		admin := adminActor(t, db)
		q1 := testutil.CreateTestQuarter(t, db, 2025, 1, models.PeriodStatusOpen)

		updated, err := svc.UpdatePeriod(admin, q1.ID, quarterInput(2025, 1, q1.StartDate, testutil.Date(2025, 3, 30)))
		testutil.AssertNoError(t, err)
		if updated.Status != models.PeriodStatusOpen {
			t.Errorf("expected status to stay open, got %s", updated.Status)
		}

		current, err := svc.GetCurrentPeriod()
		testutil.AssertNoError(t, err)
		if current == nil || current.ID != q1.ID {
			t.Errorf("expected %d to remain the current period, got %v", q1.ID, current)
		}
	})

	t.Run("explicit_status_applies", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		admin := adminActor(t, db)
		q1 := testutil.CreateTestQuarter(t, db, 2025, 1, models.PeriodStatusOpen)
		q2 := testutil.CreateTestQuarter(t, db, 2025, 2, models.PeriodStatusClosed)

		input := quarterInput(2025, 2, q2.StartDate, q2.EndDate)
		input.Status = models.PeriodStatusOpen
		_, err := svc.UpdatePeriod(admin, q2.ID, input)
		testutil.AssertNoError(t, err)

		first, _ := svc.GetPeriodByID(q1.ID)
		if first.Status != models.PeriodStatusClosed {
			t.Errorf("opening %d on update should close %d, got %s", q2.ID, q1.ID, first.Status)
		}

		input.Status = models.PeriodStatusClosed
		closed, err := svc.UpdatePeriod(admin, q2.ID, input)
		testutil.AssertNoError(t, err)
		if closed.Status != models.PeriodStatusClosed {
			t.Errorf("expected closed, got %s", closed.Status)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)

		_, err := svc.UpdatePeriod(adminActor(t, db), 9999, quarterInput(2025, 1, testutil.Date(2025, 1, 1), testutil.Date(2025, 3, 31)))
		testutil.AssertAppError(t, err, "PERIOD_NOT_FOUND")
	})
}

func TestRegistryLockSQL(t *testing.T) {
	tests := []struct {
		dialect string
		want    string
	}{
		{"postgres", "LOCK TABLE reporting_periods IN SHARE ROW EXCLUSIVE MODE"},
		{"mysql", "SELECT period_id FROM reporting_periods FOR UPDATE"},
		{"sqlite", ""},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			if got := registryLockSQL(tt.dialect); got != tt.want {
				t.Errorf("registryLockSQL(%q) = %q, want %q", tt.dialect, got, tt.want)
			}
		})
	}

	t.Run("sqlite_transaction_unaffected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		err := db.Transaction(func(tx *gorm.DB) error {
			return lockRegistry(tx)
		})
		testutil.AssertNoError(t, err)
	})
}

func TestOpenPeriod(t *testing.T) {
	t.Run("exclusive_after_any_sequence", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		admin := adminActor(t, db)

		var ids []uint
		for q := 1; q <= 4; q++ {
			ids = append(ids, testutil.CreateTestQuarter(t, db, 2025, q, models.PeriodStatusClosed).ID)
		}

		sequence := []int{0, 2, 2, 1, 3, 0, 3, 1}
		for _, i := range sequence {
			opened, err := svc.OpenPeriod(admin, ids[i])
			testutil.AssertNoError(t, err)
			if !opened.IsOpen() {
				t.Errorf("expected period %d open", ids[i])
			}
			if n := countOpenPeriods(t, db); n != 1 {
				t.Fatalf("after opening %d: expected 1 open period, got %d", ids[i], n)
			}
		}
	})

	t.Run("close_leaves_none_open", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		admin := adminActor(t, db)
		q1 := testutil.CreateTestQuarter(t, db, 2025, 1, models.PeriodStatusOpen)

		_, err := svc.SetPeriodStatus(admin, q1.ID, models.PeriodStatusClosed)
		testutil.AssertNoError(t, err)

		current, err := svc.GetCurrentPeriod()
		testutil.AssertNoError(t, err)
		if current != nil {
			t.Errorf("expected no current period, got %d", current.ID)
		}
	})

	t.Run("invalid_status", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		q1 := testutil.CreateTestQuarter(t, db, 2025, 1, models.PeriodStatusClosed)

		_, err := svc.SetPeriodStatus(adminActor(t, db), q1.ID, "pending")
		testutil.AssertAppError(t, err, "INVALID_STATUS")
	})

	t.Run("non_admin_denied_before_lookup", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		agency := testutil.CreateTestAgency(t, db)

		_, err := svc.OpenPeriod(agencyActor(t, db, agency.ID), 9999)
		testutil.AssertAppError(t, err, "PERMISSION_DENIED")
	})

	t.Run("unknown_period_rolls_back", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		q1 := testutil.CreateTestQuarter(t, db, 2025, 1, models.PeriodStatusOpen)

		_, err := svc.OpenPeriod(adminActor(t, db), 9999)
		testutil.AssertAppError(t, err, "PERIOD_NOT_FOUND")

		reloaded, _ := svc.GetPeriodByID(q1.ID)
		if !reloaded.IsOpen() {
			t.Error("expected existing open period to stay open")
		}
	})
}

func TestDeletePeriod(t *testing.T) {
	t.Run("guard_reports_count", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		agency := testutil.CreateTestAgency(t, db)
		period := testutil.CreateTestQuarter(t, db, 2025, 1, models.PeriodStatusClosed)
		for i := 0; i < 3; i++ {
			program := testutil.CreateTestProgram(t, db, agency.ID)
			testutil.CreateTestSubmission(t, db, program.ID, period.ID, i%2 == 0)
		}

		err := svc.DeletePeriod(adminActor(t, db), period.ID)
		testutil.AssertAppError(t, err, "PERIOD_HAS_SUBMISSIONS")
		if err != nil && !strings.Contains(err.Error(), "3 submission(s) exist for this period") {
			t.Errorf("expected count in message, got %q", err.Error())
		}
	})

	t.Run("ignores_deleted_submissions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)
		agency := testutil.CreateTestAgency(t, db)
		program := testutil.CreateTestProgram(t, db, agency.ID)
		period := testutil.CreateTestQuarter(t, db, 2025, 1, models.PeriodStatusClosed)
		sub := testutil.CreateTestSubmission(t, db, program.ID, period.ID, true)
		testutil.CreateTestTarget(t, db, sub.ID, "Plant 1,000 trees")
		db.Model(sub).Update("is_deleted", true)

		err := svc.DeletePeriod(adminActor(t, db), period.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.GetPeriodByID(period.ID)
		testutil.AssertAppError(t, err, "PERIOD_NOT_FOUND")

		var kept int64
		db.Model(&models.ProgramSubmission{}).Where("submission_id = ?", sub.ID).Count(&kept)
		if kept != 1 {
			t.Errorf("soft-deleted submission should be kept, found %d rows", kept)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPeriodService(db)

		err := svc.DeletePeriod(adminActor(t, db), 9999)
		testutil.AssertAppError(t, err, "PERIOD_NOT_FOUND")
	})
}

func TestListPeriods(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPeriodService(db)
	testutil.CreateTestQuarter(t, db, 2024, 4, models.PeriodStatusClosed)
	testutil.CreateTestQuarter(t, db, 2025, 1, models.PeriodStatusClosed)
	testutil.CreateTestQuarter(t, db, 2025, 2, models.PeriodStatusOpen)

	t.Run("newest_first", func(t *testing.T) {
		page, err := svc.ListPeriods(pagination.PageRequest{}, PeriodFilter{})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 3 {
			t.Fatalf("expected 3 periods, got %d", page.TotalItems)
		}
		if page.Data[0].Label() != "Q2 2025" || page.Data[2].Label() != "Q4 2024" {
			t.Errorf("unexpected order: %s .. %s", page.Data[0].Label(), page.Data[2].Label())
		}
	})

	t.Run("filter_year_and_status", func(t *testing.T) {
		year := 2025
		closed := models.PeriodStatusClosed
		page, err := svc.ListPeriods(pagination.PageRequest{}, PeriodFilter{Year: &year, Status: &closed})
		testutil.AssertNoError(t, err)
		if page.TotalItems != 1 || page.Data[0].Label() != "Q1 2025" {
			t.Errorf("expected only Q1 2025, got %d items", page.TotalItems)
		}
	})
}
