package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "pcds2030/internal/errors"
	"pcds2030/internal/models"
	"pcds2030/internal/pagination"
	"pcds2030/internal/services"
)

func TestUserHandler_CreateUser(t *testing.T) {
	setup := func(svc *mockUserService, audit *mockAuditService) *gin.Engine {
		r := gin.New()
		r.POST("/users", injectAdmin(1), NewUserHandler(svc, audit).CreateUser)
		return r
	}

	t.Run("returns 201 and audits", func(t *testing.T) {
		var gotAgency *uint
		svc := &mockUserService{
			createUserFn: func(_ services.Actor, username, _, _ string, role models.UserRole, agencyID *uint) (*models.User, error) {
				gotAgency = agencyID
				return &models.User{ID: 12, Username: username, Role: role, AgencyID: agencyID}, nil
			},
		}
		audit := &mockAuditService{}
		rec := doRequest(setup(svc, audit), http.MethodPost, "/users",
			`{"username":"forestry1","password":"password123","role":"agency","agency_id":5}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotAgency == nil || *gotAgency != 5 {
			t.Errorf("expected agency 5, got %v", gotAgency)
		}
		if call, _ := audit.last(); call.Action != services.AuditCreateUser {
			t.Errorf("expected create user audit, got %+v", call)
		}
	})

	t.Run("returns 400 for unknown role", func(t *testing.T) {
		rec := doRequest(setup(&mockUserService{}, &mockAuditService{}), http.MethodPost, "/users",
			`{"username":"forestry1","password":"password123","role":"superuser"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 409 for duplicate username", func(t *testing.T) {
		svc := &mockUserService{
			createUserFn: func(services.Actor, string, string, string, models.UserRole, *uint) (*models.User, error) {
				return nil, apperrors.ErrDuplicateUsername
			},
		}
		rec := doRequest(setup(svc, &mockAuditService{}), http.MethodPost, "/users",
			`{"username":"admin","password":"password123","role":"admin"}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DUPLICATE_USERNAME")
	})
}

func TestAuditHandler_ListAuditLogs(t *testing.T) {
	t.Run("forwards filters", func(t *testing.T) {
		var got services.AuditFilter
		var gotPage pagination.PageRequest
		audit := &mockAuditService{
			listFn: func(page pagination.PageRequest, filter services.AuditFilter) (*pagination.PageResponse[models.AuditLog], error) {
				got, gotPage = filter, page
				result := pagination.NewPageResponse([]models.AuditLog{{ID: 1, Action: filter.Action}}, 2, 10, 11)
				return &result, nil
			},
		}
		r := gin.New()
		r.GET("/audit-logs", NewAuditHandler(audit).ListAuditLogs)

		rec := doRequest(r, http.MethodGet, "/audit-logs?user_id=4&action=unsubmit&page=2&page_size=10", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got.UserID == nil || *got.UserID != 4 || got.Action != "unsubmit" {
			t.Errorf("unexpected filter %+v", got)
		}
		if gotPage.Page != 2 || gotPage.PageSize != 10 {
			t.Errorf("unexpected page %+v", gotPage)
		}
		if parseJSON(t, rec)["total_pages"] != float64(2) {
			t.Error("expected 2 total pages")
		}
	})

	t.Run("rejects oversize page", func(t *testing.T) {
		r := gin.New()
		r.GET("/audit-logs", NewAuditHandler(&mockAuditService{}).ListAuditLogs)
		rec := doRequest(r, http.MethodGet, "/audit-logs?page_size=500", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
