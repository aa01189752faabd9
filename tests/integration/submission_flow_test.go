package integration

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xuri/excelize/v2"

	"pcds2030/internal/models"
	"pcds2030/internal/testutil"
)

type submissionFixture struct {
	app         *testApp
	adminToken  string
	agencyToken string
	program     *models.Program
	period      *models.ReportingPeriod
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	app := setupApp(t)
	agency := testutil.CreateTestAgency(t, app.DB)
	return &submissionFixture{
		app:         app,
		adminToken:  app.adminToken(t),
		agencyToken: app.login(t, testutil.CreateTestAgencyUser(t, app.DB, agency.ID)),
		program:     testutil.CreateTestProgram(t, app.DB, agency.ID),
		period:      testutil.CreateTestQuarter(t, app.DB, 2025, 2, models.PeriodStatusOpen),
	}
}

func (f *submissionFixture) pairPath(suffix string) string {
	return fmt.Sprintf("/api/v1/programs/%d/periods/%d/%s", f.program.ID, f.period.ID, suffix)
}

func (f *submissionFixture) createDraft(t *testing.T, body string) uint {
	t.Helper()
	rec := f.app.request(http.MethodPost, "/api/v1/submissions", body, f.agencyToken)
	expectStatus(t, rec, http.StatusCreated)
	return id(t, parseJSON(t, rec), "submission", "submission_id")
}

func (f *submissionFixture) finalize(t *testing.T, submissionID uint) *httptest.ResponseRecorder {
	t.Helper()
	return f.app.request(http.MethodPost, fmt.Sprintf("/api/v1/submissions/%d/finalize", submissionID), "", f.agencyToken)
}

func TestSubmissionFlow_UnsubmitScenario(t *testing.T) {
	f := newSubmissionFixture(t)

	body := fmt.Sprintf(`{"program_id":%d,"period_id":%d,"description":"Q2 progress","targets":[{"target_number":"1.1","target_description":"Plant 500 trees","status_indicator":"in_progress"}]}`,
		f.program.ID, f.period.ID)
	subID := f.createDraft(t, body)

	rec := f.finalize(t, subID)
	expectStatus(t, rec, http.StatusOK)

	rec = f.app.request(http.MethodGet, f.pairPath("latest"), "", f.agencyToken)
	expectStatus(t, rec, http.StatusOK)
	latest := parseJSON(t, rec)["submission"].(map[string]interface{})
	if uint(latest["submission_id"].(float64)) != subID || latest["is_draft"] != false {
		t.Fatalf("expected finalized submission %d, got %v", subID, latest)
	}

	rec = f.app.request(http.MethodPost, f.pairPath("unsubmit"), "", f.adminToken)
	expectStatus(t, rec, http.StatusOK)

	rec = f.app.request(http.MethodGet, f.pairPath("latest"), "", f.agencyToken)
	expectStatus(t, rec, http.StatusNotFound)

	rec = f.app.request(http.MethodGet, f.pairPath("draft"), "", f.agencyToken)
	expectStatus(t, rec, http.StatusOK)
	if got := id(t, parseJSON(t, rec), "submission", "submission_id"); got != subID {
		t.Errorf("expected draft %d, got %d", subID, got)
	}

	// Finalize again: the same row flips back, no new version.
	rec = f.finalize(t, subID)
	expectStatus(t, rec, http.StatusOK)
	var rows int64
	f.app.DB.Model(&models.ProgramSubmission{}).
		Where("program_id = ? AND period_id = ?", f.program.ID, f.period.ID).Count(&rows)
	if rows != 1 {
		t.Errorf("expected a single submission row, got %d", rows)
	}
}

func TestSubmissionFlow_RevisionCopiesTargets(t *testing.T) {
	f := newSubmissionFixture(t)

	first := f.createDraft(t, fmt.Sprintf(`{"program_id":%d,"period_id":%d,"targets":[{"target_description":"Survey 20 plots"},{"target_description":"Train 10 rangers"}]}`,
		f.program.ID, f.period.ID))
	expectStatus(t, f.finalize(t, first), http.StatusOK)

	// Repeat finalize reports it was already done.
	rec := f.finalize(t, first)
	expectStatus(t, rec, http.StatusOK)
	if parseJSON(t, rec)["already_finalized"] != true {
		t.Error("expected already_finalized on repeat")
	}

	revision := f.createDraft(t, fmt.Sprintf(`{"program_id":%d,"period_id":%d}`, f.program.ID, f.period.ID))
	if revision == first {
		t.Fatal("expected a new version")
	}

	rec = f.app.request(http.MethodGet, fmt.Sprintf("/api/v1/submissions/%d", revision), "", f.agencyToken)
	expectStatus(t, rec, http.StatusOK)
	targets := parseJSON(t, rec)["submission"].(map[string]interface{})["targets"].([]interface{})
	if len(targets) != 2 {
		t.Errorf("expected 2 copied targets, got %d", len(targets))
	}

	// A second draft for the pair is refused.
	rec = f.app.request(http.MethodPost, "/api/v1/submissions",
		fmt.Sprintf(`{"program_id":%d,"period_id":%d}`, f.program.ID, f.period.ID), f.agencyToken)
	expectStatus(t, rec, http.StatusConflict)

	// Unsubmit is blocked while the revision draft exists.
	rec = f.app.request(http.MethodPost, f.pairPath("unsubmit"), "", f.adminToken)
	expectStatus(t, rec, http.StatusConflict)

	rec = f.app.request(http.MethodGet, f.pairPath("history"), "", f.agencyToken)
	expectStatus(t, rec, http.StatusOK)
	if versions := parseJSON(t, rec)["submissions"].([]interface{}); len(versions) != 2 {
		t.Errorf("expected 2 versions, got %d", len(versions))
	}
}

func TestSubmissionFlow_ClosedPeriodAndAccess(t *testing.T) {
	f := newSubmissionFixture(t)
	closed := testutil.CreateTestQuarter(t, f.app.DB, 2025, 1, models.PeriodStatusClosed)

	rec := f.app.request(http.MethodPost, "/api/v1/submissions",
		fmt.Sprintf(`{"program_id":%d,"period_id":%d}`, f.program.ID, closed.ID), f.agencyToken)
	expectStatus(t, rec, http.StatusConflict)
	if code := errorCode(t, rec); code != "PERIOD_NOT_OPEN" {
		t.Errorf("expected PERIOD_NOT_OPEN, got %s", code)
	}

	// Admins may still backfill a closed period.
	rec = f.app.request(http.MethodPost, "/api/v1/submissions",
		fmt.Sprintf(`{"program_id":%d,"period_id":%d}`, f.program.ID, closed.ID), f.adminToken)
	expectStatus(t, rec, http.StatusCreated)

	other := testutil.CreateTestAgency(t, f.app.DB)
	otherToken := f.app.login(t, testutil.CreateTestAgencyUser(t, f.app.DB, other.ID))
	rec = f.app.request(http.MethodGet, f.pairPath("history"), "", otherToken)
	expectStatus(t, rec, http.StatusForbidden)

	rec = f.app.request(http.MethodPost, f.pairPath("unsubmit"), "", f.agencyToken)
	expectStatus(t, rec, http.StatusForbidden)
}

func TestSubmissionFlow_StatisticsAndExport(t *testing.T) {
	f := newSubmissionFixture(t)
	second := testutil.CreateTestProgram(t, f.app.DB, f.program.AgencyID)

	subID := f.createDraft(t, fmt.Sprintf(`{"program_id":%d,"period_id":%d}`, f.program.ID, f.period.ID))
	expectStatus(t, f.finalize(t, subID), http.StatusOK)

	statsPath := fmt.Sprintf("/api/v1/periods/%d/statistics", f.period.ID)
	rec := f.app.request(http.MethodGet, statsPath, "", f.adminToken)
	expectStatus(t, rec, http.StatusOK)
	stats := parseJSON(t, rec)["statistics"].(map[string]interface{})
	if stats["submitted_programs"] != float64(1) || stats["total_programs"] != float64(2) {
		t.Errorf("unexpected statistics %v", stats)
	}
	if stats["completion_rate"] != "50" {
		t.Errorf("expected 50%% completion, got %v", stats["completion_rate"])
	}

	subID = f.createDraft(t, fmt.Sprintf(`{"program_id":%d,"period_id":%d}`, second.ID, f.period.ID))
	expectStatus(t, f.finalize(t, subID), http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/pipeline/periods/%d/statistics/export", f.period.ID), http.NoBody)
	req.Header.Set("X-API-Key", pipelineKey)
	rec = httptest.NewRecorder()
	f.app.Router.ServeHTTP(rec, req)
	expectStatus(t, rec, http.StatusOK)

	wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer wb.Close()
	status, _ := wb.GetCellValue("Agencies", "D2")
	if status != "complete" {
		t.Errorf("expected agency complete, got %q", status)
	}

	rec = f.app.request(http.MethodGet, statsPath, "", f.agencyToken)
	expectStatus(t, rec, http.StatusForbidden)
}
