package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mhutchens/waypoint/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAccountFetcher struct {
	acct *models.Account
	err  error
}

func (s *stubAccountFetcher) GetByID(ctx context.Context, id string) (*models.Account, error) {
	return s.acct, s.err
}

func okHandler(hit *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddleware_ValidAccessToken(t *testing.T) {
	ts := NewTokenService(testSecret)
	token, err := ts.Issue(models.TokenKindAccess, "acct-1", time.Hour)
	require.NoError(t, err)

	var gotClaims *models.TokenClaims
	handler := Middleware(ts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "acct-1", gotClaims.AccountID)
}

func TestMiddleware_RejectsRefreshToken(t *testing.T) {
	ts := NewTokenService(testSecret)
	token, err := ts.Issue(models.TokenKindRefresh, "acct-1", time.Hour)
	require.NoError(t, err)

	hit := false
	handler := Middleware(ts)(okHandler(&hit))

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, hit)
}

func TestMiddleware_MissingAndMalformedHeaders(t *testing.T) {
	ts := NewTokenService(testSecret)
	hit := false
	handler := Middleware(ts)(okHandler(&hit))

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer bad.token.here"} {
		req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
	assert.False(t, hit)
}

func TestRequireAdmin(t *testing.T) {
	ts := NewTokenService(testSecret)
	token, err := ts.Issue(models.TokenKindAccess, "acct-1", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		fetcher    *stubAccountFetcher
		wantStatus int
	}{
		{
			name:       "active admin passes",
			fetcher:    &stubAccountFetcher{acct: &models.Account{ID: "acct-1", IsAdmin: true, Active: true}},
			wantStatus: http.StatusOK,
		},
		{
			name:       "non-admin forbidden",
			fetcher:    &stubAccountFetcher{acct: &models.Account{ID: "acct-1", Active: true}},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "deactivated admin forbidden",
			fetcher:    &stubAccountFetcher{acct: &models.Account{ID: "acct-1", IsAdmin: true}},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "deleted account forbidden",
			fetcher:    &stubAccountFetcher{err: models.ErrNotFound},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit := false
			handler := Middleware(ts)(RequireAdmin(tt.fetcher)(okHandler(&hit)))

			req := httptest.NewRequest(http.MethodPost, "/admin/accounts/x/unlock", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, hit)
		})
	}
}
