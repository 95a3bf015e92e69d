package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSuite(t *testing.T) (*TestDB, *TestServer) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	testDB, err := SetupTestDatabase(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { testDB.Teardown(context.Background()) })

	server := NewTestServer(testDB.DB)
	t.Cleanup(server.Close)

	return testDB, server
}

func TestAuthFlow_RegisterVerifyLoginRefreshLogout(t *testing.T) {
	_, server := setupSuite(t)

	// Register
	resp, _, err := server.PostJSON("/auth/register", map[string]any{
		"email":     "Traveler@Example.com",
		"password":  "SummerTrip2026",
		"full_name": "Jordan Rivera",
		"phone":     "+1 555 0100",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	email := server.Email.LastEmail()
	require.NotNil(t, email, "registration must send a verification email")
	assert.Equal(t, "traveler@example.com", email.To)
	assert.Equal(t, "verify", email.Kind)

	// Login before verification is refused.
	resp, _, err = server.PostJSON("/auth/login", map[string]any{
		"email":    "traveler@example.com",
		"password": "SummerTrip2026",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Verify via the emailed token.
	resp, _, err = server.Get("/verify-email/"+email.Token, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Login (case-insensitive email).
	resp, body, err := server.PostJSON("/auth/login", map[string]any{
		"email":    "TRAVELER@example.com",
		"password": "SummerTrip2026",
	}, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	accessToken, _ := body["access_token"].(string)
	refreshToken, _ := body["refresh_token"].(string)
	require.NotEmpty(t, accessToken)
	require.NotEmpty(t, refreshToken)

	// Authenticated session lookup.
	resp, body, err = server.Get("/auth/session", map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "traveler@example.com", body["email"])

	// Refresh yields a fresh access token, no rotation.
	resp, body, err = server.PostJSON("/auth/refresh", map[string]any{
		"refresh_token": refreshToken,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["access_token"])
	assert.Empty(t, body["refresh_token"])

	// Logout revokes the session; refresh stops working.
	resp, _, err = server.PostJSON("/auth/logout", map[string]any{
		"refresh_token": refreshToken,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _, err = server.PostJSON("/auth/refresh", map[string]any{
		"refresh_token": refreshToken,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthFlow_LockoutAfterRepeatedFailures(t *testing.T) {
	testDB, server := setupSuite(t)
	ctx := context.Background()

	_, err := SeedAccount(ctx, testDB.Pool, "locked@example.com", "SummerTrip2026", true)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		resp, _, err := server.PostJSON("/auth/login", map[string]any{
			"email":    "locked@example.com",
			"password": "wrong-password",
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "attempt %d", i+1)
	}

	// Correct password is refused while locked, with a Retry-After hint.
	resp, _, err := server.PostJSON("/auth/login", map[string]any{
		"email":    "locked@example.com",
		"password": "SummerTrip2026",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestAuthFlow_ExpiredLockClearsOnSuccess(t *testing.T) {
	testDB, server := setupSuite(t)
	ctx := context.Background()

	acct, err := SeedAccount(ctx, testDB.Pool, "stale-lock@example.com", "SummerTrip2026", true)
	require.NoError(t, err)

	past := time.Now().Add(-time.Minute)
	require.NoError(t, SetAccountLock(ctx, testDB.Pool, acct.ID, 0, &past))

	resp, _, err := server.PostJSON("/auth/login", map[string]any{
		"email":    "stale-lock@example.com",
		"password": "SummerTrip2026",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthFlow_PasswordReset(t *testing.T) {
	testDB, server := setupSuite(t)
	ctx := context.Background()

	acct, err := SeedAccount(ctx, testDB.Pool, "reset@example.com", "SummerTrip2026", true)
	require.NoError(t, err)

	// Log in to create a session that the reset must revoke.
	resp, _, err := server.PostJSON("/auth/login", map[string]any{
		"email":    "reset@example.com",
		"password": "SummerTrip2026",
	}, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Request a reset: uniform 202 for registered and unregistered emails.
	resp, body1, err := server.PostJSON("/auth/forgot-password", map[string]any{
		"email": "reset@example.com",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp, body2, err := server.PostJSON("/auth/forgot-password", map[string]any{
		"email": "nobody@example.com",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, body1, body2)

	email := server.Email.LastEmail()
	require.NotNil(t, email)
	assert.Equal(t, "reset", email.Kind)
	assert.Equal(t, "reset@example.com", email.To)

	// Reset the password.
	resp, _, err = server.PostJSON("/auth/reset-password/"+email.Token, map[string]any{
		"password": "AutumnTrip2027",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// All sessions revoked.
	n, err := CountSessions(ctx, testDB.Pool, acct.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// The token is single-use.
	resp, _, err = server.PostJSON("/auth/reset-password/"+email.Token, map[string]any{
		"password": "WinterTrip2028",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Old password out, new password in.
	resp, _, err = server.PostJSON("/auth/login", map[string]any{
		"email":    "reset@example.com",
		"password": "SummerTrip2026",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _, err = server.PostJSON("/auth/login", map[string]any{
		"email":    "reset@example.com",
		"password": "AutumnTrip2027",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthFlow_DuplicateRegistrationIndistinguishable(t *testing.T) {
	testDB, server := setupSuite(t)
	ctx := context.Background()

	_, err := SeedAccount(ctx, testDB.Pool, "taken@example.com", "SummerTrip2026", true)
	require.NoError(t, err)

	resp1, body1, err := server.PostJSON("/auth/register", map[string]any{
		"email":     "taken@example.com",
		"password":  "OtherPassword1",
		"full_name": "Someone Else",
	}, nil)
	require.NoError(t, err)

	resp2, body2, err := server.PostJSON("/auth/register", map[string]any{
		"email":     "free@example.com",
		"password":  "OtherPassword1",
		"full_name": "Someone Else",
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, resp2.StatusCode, resp1.StatusCode)
	assert.Equal(t, body2, body1)
}
