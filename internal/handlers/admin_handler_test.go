package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mhutchens/waypoint/internal/auth"
	"github.com/mhutchens/waypoint/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

const testAccountID = "7b7f4a52-9f5d-4f2a-9c63-7e4f4f1b2a10"

func newAdminRouter(svc AdminServiceInterface) chi.Router {
	h := NewAdminHandler(svc)
	r := chi.NewRouter()
	// Stand-in for auth.Middleware: inject admin claims directly.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			claims := &models.TokenClaims{
				Kind:             models.TokenKindAccess,
				AccountID:        "admin-1",
				RegisteredClaims: jwt.RegisteredClaims{Subject: "admin-1"},
			}
			ctx := context.WithValue(req.Context(), auth.ClaimsContextKey, claims)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Post("/admin/accounts/{id}/unlock", h.UnlockAccount)
	r.Post("/admin/accounts/{id}/deactivate", h.DeactivateAccount)
	r.Post("/admin/accounts/{id}/reactivate", h.ReactivateAccount)
	r.Delete("/admin/accounts/{id}", h.DeleteAccount)
	return r
}

func TestAdminHandler_Unlock_Success(t *testing.T) {
	var gotAdmin, gotAccount string
	svc := &MockAdminService{
		UnlockAccountFunc: func(ctx context.Context, adminID, accountID string) error {
			gotAdmin, gotAccount = adminID, accountID
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/accounts/"+testAccountID+"/unlock", nil)
	rec := httptest.NewRecorder()
	newAdminRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "admin-1", gotAdmin)
	assert.Equal(t, testAccountID, gotAccount)
}

func TestAdminHandler_InvalidAccountID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/admin/accounts/not-a-uuid/unlock", nil)
	rec := httptest.NewRecorder()
	newAdminRouter(&MockAdminService{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminHandler_NotFound(t *testing.T) {
	svc := &MockAdminService{
		DeleteAccountFunc: func(ctx context.Context, adminID, accountID string) error {
			return models.ErrNotFound
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/admin/accounts/"+testAccountID, nil)
	rec := httptest.NewRecorder()
	newAdminRouter(svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminHandler_DeactivateReactivate(t *testing.T) {
	var calls []string
	svc := &MockAdminService{
		DeactivateAccountFunc: func(ctx context.Context, adminID, accountID string) error {
			calls = append(calls, "deactivate")
			return nil
		},
		ReactivateAccountFunc: func(ctx context.Context, adminID, accountID string) error {
			calls = append(calls, "reactivate")
			return nil
		},
	}
	router := newAdminRouter(svc)

	for _, action := range []string{"deactivate", "reactivate"} {
		req := httptest.NewRequest(http.MethodPost, "/admin/accounts/"+testAccountID+"/"+action, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code, action)
	}

	assert.Equal(t, []string{"deactivate", "reactivate"}, calls)
}
