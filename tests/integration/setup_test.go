package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"pcds2030/internal/logger"
	"pcds2030/internal/models"
	"pcds2030/internal/server"
	"pcds2030/internal/testutil"
	"pcds2030/internal/validator"
)

const pipelineKey = "integration-export-key"

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	router := server.NewRouter(db, server.Options{PipelineAPIKey: pipelineKey})
	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// expectStatus fails the test when rec does not carry the wanted status.
func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

// errorCode extracts error.code from an error response.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseJSON(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

// login authenticates user with the fixture password and returns the access token.
func (app *testApp) login(t *testing.T, user *models.User) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":%q}`, user.Username, testutil.TestPassword)
	rec := app.request(http.MethodPost, "/api/v1/auth/login", body, "")
	expectStatus(t, rec, http.StatusOK)
	return parseJSON(t, rec)["token"].(string)
}

// adminToken creates an admin and logs in.
func (app *testApp) adminToken(t *testing.T) string {
	t.Helper()
	return app.login(t, testutil.CreateTestAdmin(t, app.DB))
}

// id reads a numeric field of a nested object, e.g. id(t, body, "period", "period_id").
func id(t *testing.T, body map[string]interface{}, object, field string) uint {
	t.Helper()
	obj, ok := body[object].(map[string]interface{})
	if !ok {
		t.Fatalf("expected %q object in %v", object, body)
	}
	v, ok := obj[field].(float64)
	if !ok {
		t.Fatalf("expected numeric %q in %v", field, obj)
	}
	return uint(v)
}
