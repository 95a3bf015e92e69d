package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/mhutchens/waypoint/internal/auth"
	"github.com/mhutchens/waypoint/internal/models"
	pkghttp "github.com/mhutchens/waypoint/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// AdminServiceInterface defines the administrative service contract.
type AdminServiceInterface interface {
	UnlockAccount(ctx context.Context, adminID, accountID string) error
	DeactivateAccount(ctx context.Context, adminID, accountID string) error
	ReactivateAccount(ctx context.Context, adminID, accountID string) error
	DeleteAccount(ctx context.Context, adminID, accountID string) error
}

// AdminHandler handles administrative account HTTP requests.
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// UnlockAccount handles POST /admin/accounts/{id}/unlock
func (h *AdminHandler) UnlockAccount(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.service.UnlockAccount)
}

// DeactivateAccount handles POST /admin/accounts/{id}/deactivate
func (h *AdminHandler) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.service.DeactivateAccount)
}

// ReactivateAccount handles POST /admin/accounts/{id}/reactivate
func (h *AdminHandler) ReactivateAccount(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.service.ReactivateAccount)
}

// DeleteAccount handles DELETE /admin/accounts/{id}
func (h *AdminHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, h.service.DeleteAccount)
}

// run dispatches the common admin-action shape: admin identity from the
// verified token, target account ID from the URL.
func (h *AdminHandler) run(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, adminID, accountID string) error) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	accountID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(accountID); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid account ID")
		return
	}

	if err := op(r.Context(), claims.AccountID, accountID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Account not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
