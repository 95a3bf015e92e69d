package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mhutchens/waypoint/internal/auth"
	"github.com/mhutchens/waypoint/internal/config"
	"github.com/mhutchens/waypoint/internal/database"
	"github.com/mhutchens/waypoint/internal/handlers"
	"github.com/mhutchens/waypoint/internal/repositories"
	"github.com/mhutchens/waypoint/internal/routes"
	"github.com/mhutchens/waypoint/internal/services"
	pkghttp "github.com/mhutchens/waypoint/pkg/http"
	pkglogger "github.com/mhutchens/waypoint/pkg/logger"
)

// SentEmail represents a captured email message
type SentEmail struct {
	To    string
	Kind  string
	Token string
}

// CapturingEmailService records sent emails for test assertions instead of
// calling SES.
type CapturingEmailService struct {
	mu   sync.Mutex
	Sent []SentEmail
}

func (m *CapturingEmailService) SendVerificationEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	m.record(SentEmail{To: email, Kind: "verify", Token: token})
	return nil
}

func (m *CapturingEmailService) SendPasswordResetEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	m.record(SentEmail{To: email, Kind: "reset", Token: token})
	return nil
}

func (m *CapturingEmailService) record(e SentEmail) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, e)
}

// LastEmail returns the most recent email sent, or nil.
func (m *CapturingEmailService) LastEmail() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return nil
	}
	return &m.Sent[len(m.Sent)-1]
}

// TestServer wraps httptest.Server with database and all dependencies
type TestServer struct {
	Server *httptest.Server
	DB     *database.DB
	Email  *CapturingEmailService
	Config *config.Config
}

// NewTestServer initializes a complete HTTP server with real database and a
// capturing email service. Timing delays are zeroed to keep the suite fast.
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:           "test-secret-32-characters-long-ok",
			AccessTokenExpiry:   15 * time.Minute,
			RememberTokenExpiry: 7 * 24 * time.Hour,
			RefreshTokenExpiry:  30 * 24 * time.Hour,
			VerifyTokenExpiry:   24 * time.Hour,
			ResetTokenExpiry:    1 * time.Hour,
			LockoutThreshold:    5,
			LockoutDuration:     30 * time.Minute,
			PasswordMinLength:   8,
			CleanupInterval:     1 * time.Hour,
		},
		Email: config.EmailConfig{
			FromAddress:    "no-reply@test.local",
			BaseURL:        "http://localhost:3000",
			SendTimeout:    time.Second,
			ResendCooldown: 15 * time.Minute,
		},
		Server: config.ServerConfig{
			Port:           "0",
			Env:            "test",
			AllowedOrigins: []string{},
			TrustedProxies: []string{},
		},
	}

	store := repositories.NewStore(db)
	accountRepo := repositories.NewAccountRepository(db)

	mockEmail := &CapturingEmailService{}
	tokenService := auth.NewTokenService(cfg.Auth.JWTSecret)
	lockoutPolicy := auth.NewLockoutPolicy(cfg.Auth.LockoutThreshold, cfg.Auth.LockoutDuration)
	auditLogger := pkglogger.NewAuditLogger(logger)

	authService := services.NewAuthService(
		store,
		tokenService,
		lockoutPolicy,
		nil, // no timing padding in tests
		mockEmail,
		logger,
		auditLogger,
		services.AuthServiceConfig{
			AccessTokenExpiry:   cfg.Auth.AccessTokenExpiry,
			RememberTokenExpiry: cfg.Auth.RememberTokenExpiry,
			RefreshTokenExpiry:  cfg.Auth.RefreshTokenExpiry,
			VerifyTokenExpiry:   cfg.Auth.VerifyTokenExpiry,
			ResetTokenExpiry:    cfg.Auth.ResetTokenExpiry,
			PasswordMinLength:   cfg.Auth.PasswordMinLength,
			EmailSendTimeout:    cfg.Email.SendTimeout,
			ResendCooldown:      cfg.Email.ResendCooldown,
		},
	)
	adminService := services.NewAdminService(store, logger, auditLogger)

	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	authHandler := handlers.NewAuthHandler(authService, ipConfig)
	adminHandler := handlers.NewAdminHandler(adminService)

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Recoverer)
	routes.RegisterRoutes(router, authHandler, adminHandler, tokenService, accountRepo)

	return &TestServer{
		Server: httptest.NewServer(router),
		DB:     db,
		Email:  mockEmail,
		Config: cfg,
	}
}

// Close shuts the HTTP server down.
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// PostJSON sends a JSON POST and decodes the response body.
func (ts *TestServer) PostJSON(path string, body any, headers map[string]string) (*http.Response, map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal body: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := ts.Server.Client().Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	return decodeBody(resp)
}

// Get sends a GET request and decodes the response body.
func (ts *TestServer) Get(path string, headers map[string]string) (*http.Response, map[string]any, error) {
	req, err := http.NewRequest(http.MethodGet, ts.Server.URL+path, nil)
	if err != nil {
		return nil, nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := ts.Server.Client().Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	return decodeBody(resp)
}

func decodeBody(resp *http.Response) (*http.Response, map[string]any, error) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, err
	}

	var decoded map[string]any
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return resp, nil, fmt.Errorf("failed to decode body %q: %w", raw, err)
		}
	}
	return resp, decoded, nil
}
