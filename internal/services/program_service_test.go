package services

import (
	"testing"

	"pcds2030/internal/models"
	"pcds2030/internal/pagination"
	"pcds2030/internal/testutil"
)

func TestCreateProgram(t *testing.T) {
	t.Run("writes_audit_row", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProgramService(db)
		admin := adminActor(t, db)
		agency := testutil.CreateTestAgency(t, db)

		program, err := svc.CreateProgram(admin, agency.ID, "  Forest Restoration ", "1.1", "")
		testutil.AssertNoError(t, err)

		if program.Name != "Forest Restoration" {
			t.Errorf("expected trimmed name, got %q", program.Name)
		}
		if program.CreatedBy == nil || *program.CreatedBy != admin.UserID {
			t.Error("expected created_by to be the admin")
		}

		var entries []models.AuditLog
		db.Where("action = ?", AuditCreateProgram).Find(&entries)
		if len(entries) != 1 || entries[0].Status != models.AuditStatusSuccess {
			t.Errorf("expected one success audit row, got %d", len(entries))
		}
	})

	t.Run("unknown_agency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewProgramService(db)

		_, err := svc.CreateProgram(adminActor(t, db), 9999, "Orphan", "", "")
		testutil.AssertAppError(t, err, "AGENCY_NOT_FOUND")

		var count int64
		db.Model(&models.AuditLog{}).Count(&count)
		if count != 0 {
			t.Errorf("expected no audit rows after rollback, got %d", count)
		}
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		agency := testutil.CreateTestAgency(t, db)

		_, err := NewProgramService(db).CreateProgram(adminActor(t, db), agency.ID, "  ", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("agency_denied", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		agency := testutil.CreateTestAgency(t, db)

		_, err := NewProgramService(db).CreateProgram(agencyActor(t, db, agency.ID), agency.ID, "Mine", "", "")
		testutil.AssertAppError(t, err, "PERMISSION_DENIED")
	})
}

func TestUpdateProgram(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewProgramService(db)
	agency := testutil.CreateTestAgency(t, db)
	program := testutil.CreateTestProgram(t, db, agency.ID)

	updated, err := svc.UpdateProgram(adminActor(t, db), program.ID, "Renamed", "9.9", "new text")
	testutil.AssertNoError(t, err)
	if updated.Name != "Renamed" || updated.Number != "9.9" {
		t.Errorf("unexpected program after update: %+v", updated)
	}

	_, err = svc.UpdateProgram(adminActor(t, db), 9999, "Nope", "", "")
	testutil.AssertAppError(t, err, "PROGRAM_NOT_FOUND")
}

func TestGetProgramByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewProgramService(db)
	mine := testutil.CreateTestAgency(t, db)
	theirs := testutil.CreateTestAgency(t, db)
	program := testutil.CreateTestProgram(t, db, theirs.ID)

	_, err := svc.GetProgramByID(agencyActor(t, db, mine.ID), program.ID)
	testutil.AssertAppError(t, err, "PERMISSION_DENIED")

	got, err := svc.GetProgramByID(agencyActor(t, db, theirs.ID), program.ID)
	testutil.AssertNoError(t, err)
	if got.Agency == nil || got.Agency.ID != theirs.ID {
		t.Error("expected agency to be preloaded")
	}
}

func TestListPrograms(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewProgramService(db)
	a := testutil.CreateTestAgency(t, db)
	b := testutil.CreateTestAgency(t, db)
	testutil.CreateTestProgram(t, db, a.ID)
	testutil.CreateTestProgram(t, db, a.ID)
	testutil.CreateTestProgram(t, db, b.ID)
	deleted := testutil.CreateTestProgram(t, db, a.ID)
	db.Model(deleted).Update("is_deleted", true)

	t.Run("admin_sees_all", func(t *testing.T) {
		page, err := svc.ListPrograms(adminActor(t, db), pagination.PageRequest{}, nil)
		testutil.AssertNoError(t, err)
		if page.TotalItems != 3 {
			t.Errorf("expected 3 programs, got %d", page.TotalItems)
		}
	})

	t.Run("agency_sees_own", func(t *testing.T) {
		other := b.ID
		page, err := svc.ListPrograms(agencyActor(t, db, a.ID), pagination.PageRequest{}, &other)
		testutil.AssertNoError(t, err)
		if page.TotalItems != 2 {
			t.Errorf("expected 2 programs, got %d", page.TotalItems)
		}
		for _, p := range page.Data {
			if p.AgencyID != a.ID {
				t.Errorf("program %d belongs to agency %d", p.ID, p.AgencyID)
			}
		}
	})
}
