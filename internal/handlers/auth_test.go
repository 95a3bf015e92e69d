package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mhutchens/waypoint/internal/models"
	"github.com/mhutchens/waypoint/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(svc AuthServiceInterface) chi.Router {
	h := NewAuthHandler(svc, nil)
	r := chi.NewRouter()
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
	r.Post("/auth/logout", h.Logout)
	r.Post("/auth/forgot-password", h.ForgotPassword)
	r.Post("/auth/reset-password/{token}", h.ResetPassword)
	r.Post("/auth/resend-verification", h.ResendVerification)
	r.Get("/verify-email/{token}", h.VerifyEmail)
	return r
}

func doJSON(t *testing.T, router chi.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// ============================================================================
// Register
// ============================================================================

func TestAuthHandler_Register_Accepted(t *testing.T) {
	router := newAuthRouter(&MockAuthService{})

	rec := doJSON(t, router, http.MethodPost, "/auth/register",
		`{"email":"traveler@example.com","password":"SummerTrip2026","full_name":"Jordan Rivera"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestAuthHandler_Register_DuplicateEmailIndistinguishable(t *testing.T) {
	fresh := doJSON(t, newAuthRouter(&MockAuthService{}), http.MethodPost, "/auth/register",
		`{"email":"traveler@example.com","password":"SummerTrip2026","full_name":"Jordan Rivera"}`)

	dupSvc := &MockAuthService{
		RegisterFunc: func(ctx context.Context, email, password, fullName, phone string) error {
			return models.ErrDuplicateEmail
		},
	}
	dup := doJSON(t, newAuthRouter(dupSvc), http.MethodPost, "/auth/register",
		`{"email":"traveler@example.com","password":"SummerTrip2026","full_name":"Jordan Rivera"}`)

	assert.Equal(t, fresh.Code, dup.Code)
	assert.Equal(t, fresh.Body.String(), dup.Body.String(),
		"duplicate email must be indistinguishable from a fresh registration")
}

func TestAuthHandler_Register_WeakPassword(t *testing.T) {
	svc := &MockAuthService{
		RegisterFunc: func(ctx context.Context, email, password, fullName, phone string) error {
			return models.ErrWeakPassword
		},
	}

	rec := doJSON(t, newAuthRouter(svc), http.MethodPost, "/auth/register",
		`{"email":"traveler@example.com","password":"weak","full_name":"Jordan Rivera"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Register_InvalidBody(t *testing.T) {
	router := newAuthRouter(&MockAuthService{})

	for name, body := range map[string]string{
		"malformed json": `{"email":`,
		"missing email":  `{"password":"SummerTrip2026","full_name":"Jordan Rivera"}`,
		"bad email":      `{"email":"not-an-email","password":"SummerTrip2026","full_name":"Jordan Rivera"}`,
		"missing name":   `{"email":"traveler@example.com","password":"SummerTrip2026"}`,
	} {
		rec := doJSON(t, router, http.MethodPost, "/auth/register", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

// ============================================================================
// Login
// ============================================================================

func TestAuthHandler_Login_Success(t *testing.T) {
	svc := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, remember bool, ip, ua string) (*services.AuthResponse, error) {
			assert.Equal(t, "traveler@example.com", email)
			assert.True(t, remember)
			return &services.AuthResponse{
				AccessToken:  "access",
				RefreshToken: "refresh",
				Account:      &services.AccountResponse{ID: "acct-1", Email: email},
			}, nil
		},
	}

	rec := doJSON(t, newAuthRouter(svc), http.MethodPost, "/auth/login",
		`{"email":"traveler@example.com","password":"SummerTrip2026","remember":true}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp services.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "access", resp.AccessToken)
	assert.Equal(t, "refresh", resp.RefreshToken)
	assert.Equal(t, "acct-1", resp.Account.ID)
}

func TestAuthHandler_Login_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"invalid credentials", models.ErrInvalidCredentials, http.StatusUnauthorized},
		{"email not verified", models.ErrEmailNotVerified, http.StatusForbidden},
		{"locked", &models.AccountLockedError{RetryAfter: 17 * time.Minute}, http.StatusTooManyRequests},
		{"storage down", models.ErrStorageUnavailable, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockAuthService{
				LoginFunc: func(ctx context.Context, email, password string, remember bool, ip, ua string) (*services.AuthResponse, error) {
					return nil, tt.err
				},
			}

			rec := doJSON(t, newAuthRouter(svc), http.MethodPost, "/auth/login",
				`{"email":"traveler@example.com","password":"SummerTrip2026"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAuthHandler_Login_LockedSetsRetryAfter(t *testing.T) {
	svc := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, remember bool, ip, ua string) (*services.AuthResponse, error) {
			return nil, &models.AccountLockedError{RetryAfter: 10 * time.Minute}
		},
	}

	rec := doJSON(t, newAuthRouter(svc), http.MethodPost, "/auth/login",
		`{"email":"traveler@example.com","password":"SummerTrip2026"}`)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "600", rec.Header().Get("Retry-After"))
}

// ============================================================================
// Refresh / logout
// ============================================================================

func TestAuthHandler_Refresh_InvalidToken(t *testing.T) {
	for _, err := range []error{models.ErrInvalidRefreshToken, models.ErrUserInactive} {
		svc := &MockAuthService{
			RefreshFunc: func(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
				return nil, err
			},
		}

		rec := doJSON(t, newAuthRouter(svc), http.MethodPost, "/auth/refresh",
			`{"refresh_token":"stale"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "error %v", err)
	}
}

func TestAuthHandler_Refresh_MissingToken(t *testing.T) {
	rec := doJSON(t, newAuthRouter(&MockAuthService{}), http.MethodPost, "/auth/refresh", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandler_Logout_NoContent(t *testing.T) {
	rec := doJSON(t, newAuthRouter(&MockAuthService{}), http.MethodPost, "/auth/logout",
		`{"refresh_token":"whatever"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

// ============================================================================
// Email verification
// ============================================================================

func TestAuthHandler_VerifyEmail(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, http.StatusOK},
		{"expired", models.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid", models.ErrInvalidToken, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockAuthService{
				VerifyEmailFunc: func(ctx context.Context, token string) error {
					assert.Equal(t, "tok123", token)
					return tt.err
				},
			}

			req := httptest.NewRequest(http.MethodGet, "/verify-email/tok123", nil)
			rec := httptest.NewRecorder()
			newAuthRouter(svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

// ============================================================================
// Password reset
// ============================================================================

func TestAuthHandler_ForgotPassword_UniformAccepted(t *testing.T) {
	router := newAuthRouter(&MockAuthService{})

	known := doJSON(t, router, http.MethodPost, "/auth/forgot-password",
		`{"email":"traveler@example.com"}`)
	unknown := doJSON(t, router, http.MethodPost, "/auth/forgot-password",
		`{"email":"nobody@example.com"}`)

	assert.Equal(t, http.StatusAccepted, known.Code)
	assert.Equal(t, known.Body.String(), unknown.Body.String())
}

func TestAuthHandler_ResetPassword(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, http.StatusOK},
		{"invalid or expired", models.ErrInvalidOrExpiredToken, http.StatusUnauthorized},
		{"weak password", models.ErrWeakPassword, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockAuthService{
				ResetPasswordFunc: func(ctx context.Context, token, newPassword string) error {
					assert.Equal(t, "tok123", token)
					return tt.err
				},
			}

			rec := doJSON(t, newAuthRouter(svc), http.MethodPost, "/auth/reset-password/tok123",
				`{"password":"AutumnTrip2027"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAuthHandler_ResendVerification_Accepted(t *testing.T) {
	rec := doJSON(t, newAuthRouter(&MockAuthService{}), http.MethodPost, "/auth/resend-verification",
		`{"email":"traveler@example.com"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}
