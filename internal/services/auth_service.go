package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mhutchens/waypoint/internal/auth"
	"github.com/mhutchens/waypoint/internal/models"
	"github.com/mhutchens/waypoint/internal/repositories"
	pkgauth "github.com/mhutchens/waypoint/pkg/auth"
	pkglogger "github.com/mhutchens/waypoint/pkg/logger"
)

// dummyHash is compared against when the email is unknown, so the
// unknown-email and wrong-password paths cost the same bcrypt work.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// AuthServiceConfig carries the workflow's named constants.
type AuthServiceConfig struct {
	AccessTokenExpiry   time.Duration
	RememberTokenExpiry time.Duration
	RefreshTokenExpiry  time.Duration
	VerifyTokenExpiry   time.Duration
	ResetTokenExpiry    time.Duration
	PasswordMinLength   int
	EmailSendTimeout    time.Duration
	ResendCooldown      time.Duration
}

// AuthService orchestrates registration, login, email verification,
// password reset, and session lifecycle.
type AuthService struct {
	store   repositories.Store
	tokens  *auth.TokenService
	lockout *auth.LockoutPolicy
	timing  *auth.TimingDelay
	email   EmailService
	logger  *slog.Logger
	audit   *pkglogger.AuditLogger
	cfg     AuthServiceConfig
}

// NewAuthService creates a new AuthService
func NewAuthService(
	store repositories.Store,
	tokens *auth.TokenService,
	lockout *auth.LockoutPolicy,
	timing *auth.TimingDelay,
	email EmailService,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
	cfg AuthServiceConfig,
) *AuthService {
	return &AuthService{
		store:   store,
		tokens:  tokens,
		lockout: lockout,
		timing:  timing,
		email:   email,
		logger:  logger,
		audit:   audit,
		cfg:     cfg,
	}
}

// AccountResponse represents an account in HTTP responses
type AccountResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	IsAdmin       bool   `json:"is_admin"`
	CreatedAt     string `json:"created_at"`
}

// AuthResponse represents the response from auth operations
type AuthResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token,omitempty"`
	Account      *AccountResponse `json:"account"`
}

// Register creates an account with its profile atomically and triggers the
// verification email. Whether the email was already registered is never
// revealed beyond the error returned here; the handler collapses
// ErrDuplicateEmail into the same response as success.
func (s *AuthService) Register(ctx context.Context, email, password, fullName, phone string) error {
	email = models.NormalizeEmail(email)
	if email == "" {
		return models.ErrBadRequest
	}

	if err := pkgauth.ValidatePassword(password, s.cfg.PasswordMinLength); err != nil {
		s.logger.Info("registration rejected: weak password")
		return models.ErrWeakPassword
	}

	hashedPassword, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	var created *models.Account
	err = s.store.InTx(ctx, func(tx repositories.Store) error {
		_, err := tx.Accounts().GetByEmail(ctx, email)
		if err == nil {
			return models.ErrDuplicateEmail
		}
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}

		acct := &models.Account{
			Email:        email,
			PasswordHash: hashedPassword,
			Active:       true,
		}

		created, err = tx.Accounts().Create(ctx, acct)
		if err != nil {
			return err
		}

		profile := &models.Profile{
			AccountID: created.ID,
			FullName:  fullName,
			Phone:     phone,
		}
		return tx.Accounts().CreateProfile(ctx, profile)
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrDuplicateEmail):
			s.logger.Info("registration failed: email already registered")
			return models.ErrDuplicateEmail
		case errors.Is(err, models.ErrStorageUnavailable):
			return err
		default:
			s.logger.Error("failed to create account", slog.Any("error", err))
			return models.ErrInternalServer
		}
	}

	s.logger.Info("account registered", slog.String("account_id", created.ID))
	s.audit.LogAccountAction("account_registered", created.ID, "", nil)

	// The registration is committed; a verification-email failure is logged
	// and surfaced to the user only as the generic "check your email".
	s.sendActionToken(ctx, created, models.TokenKindVerify)

	return nil
}

// VerifyEmail consumes a verification token and marks the account verified.
// Re-verifying an already-verified account is a no-op.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return models.ErrInvalidToken
	}

	claims, err := s.tokens.Verify(token, models.TokenKindVerify)
	if err != nil {
		return err // ErrExpiredToken or ErrInvalidToken
	}

	err = s.store.InTx(ctx, func(tx repositories.Store) error {
		row, err := tx.Tokens().GetByHash(ctx, auth.HashToken(token))
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrInvalidToken
			}
			return err
		}

		if row.AccountID != claims.AccountID || row.Kind != models.TokenKindVerify {
			return models.ErrInvalidToken
		}
		if row.IsExpired() {
			return models.ErrExpiredToken
		}

		if err := tx.Tokens().Consume(ctx, row.ID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrInvalidToken // already consumed
			}
			return err
		}

		acct, err := tx.Accounts().GetByID(ctx, row.AccountID)
		if err != nil {
			return err
		}
		if acct.EmailVerified {
			return nil
		}
		return tx.Accounts().SetEmailVerified(ctx, acct.ID)
	})
	if err != nil {
		if isUserFacing(err) || errors.Is(err, models.ErrStorageUnavailable) {
			return err
		}
		s.logger.Error("email verification failed", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("email verified", slog.String("account_id", claims.AccountID))
	s.audit.LogAccountAction("email_verified", claims.AccountID, "", nil)
	return nil
}

// Login authenticates a user and returns an access/refresh token pair. The
// whole read-check-write sequence runs in one transaction with the account
// row locked, so concurrent failed attempts cannot lose counter updates.
func (s *AuthService) Login(ctx context.Context, email, password string, remember bool, ipAddress, userAgent string) (resp *AuthResponse, err error) {
	start := time.Now()
	defer func() {
		if s.timing != nil {
			s.timing.WaitFrom(start, err == nil)
		}
	}()

	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, models.ErrInvalidCredentials
	}

	// A wrong password must leave its counter increment committed, so the
	// denial is carried outside the transaction error: returning it from
	// the closure would roll the write back.
	var denied error
	var accountID string
	err = s.store.InTx(ctx, func(tx repositories.Store) error {
		acct, err := tx.Accounts().GetByEmailForUpdate(ctx, email)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				// Burn the same bcrypt work as the known-email path.
				_ = pkgauth.ComparePassword(dummyHash, password)
				return models.ErrInvalidCredentials
			}
			return err
		}
		accountID = acct.ID

		if err := s.lockout.CheckLocked(acct); err != nil {
			return err
		}

		if err := pkgauth.ComparePassword(acct.PasswordHash, password); err != nil {
			s.lockout.RecordFailure(acct)
			if err := tx.Accounts().UpdateAuthState(ctx, acct); err != nil {
				return err
			}
			denied = models.ErrInvalidCredentials
			return nil
		}

		if !acct.EmailVerified {
			return models.ErrEmailNotVerified
		}

		// Deactivated accounts fail identically to bad credentials.
		if !acct.Active {
			return models.ErrInvalidCredentials
		}

		s.lockout.RecordSuccess(acct)
		if err := tx.Accounts().UpdateAuthState(ctx, acct); err != nil {
			return err
		}

		accessTTL := s.cfg.AccessTokenExpiry
		if remember {
			accessTTL = s.cfg.RememberTokenExpiry
		}

		accessToken, err := s.tokens.Issue(models.TokenKindAccess, acct.ID, accessTTL)
		if err != nil {
			return err
		}

		refreshToken, err := s.tokens.Issue(models.TokenKindRefresh, acct.ID, s.cfg.RefreshTokenExpiry)
		if err != nil {
			return err
		}

		session := &models.Session{
			AccountID: acct.ID,
			TokenHash: auth.HashToken(refreshToken),
			IPAddress: ipAddress,
			UserAgent: userAgent,
			ExpiresAt: time.Now().Add(s.cfg.RefreshTokenExpiry),
		}
		if _, err := tx.Sessions().Create(ctx, session); err != nil {
			return err
		}

		resp = &AuthResponse{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			Account:      accountModelToResponse(acct),
		}
		return nil
	})
	if err == nil {
		err = denied
	}
	if err != nil {
		s.logLoginFailure(accountID, ipAddress, err)
		if isUserFacing(err) || errors.Is(err, models.ErrStorageUnavailable) {
			return nil, err
		}
		s.logger.Error("login failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("account_id", accountID))
	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		AccountID: accountID,
		IPAddress: ipAddress,
		Success:   true,
	})

	return resp, nil
}

func (s *AuthService) logLoginFailure(accountID, ipAddress string, err error) {
	reason := "invalid_credentials"
	var locked *models.AccountLockedError
	switch {
	case errors.As(err, &locked):
		reason = "account_locked"
	case errors.Is(err, models.ErrEmailNotVerified):
		reason = "email_not_verified"
	case errors.Is(err, models.ErrInvalidCredentials):
		reason = "invalid_credentials"
	default:
		reason = "error"
	}

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		AccountID:     accountID,
		IPAddress:     ipAddress,
		FailureReason: reason,
		Success:       false,
	})
}

// Refresh mints a new access token from a valid refresh token. The refresh
// token must verify cryptographically and still have its session row; the
// token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken == "" {
		return nil, models.ErrInvalidRefreshToken
	}

	claims, err := s.tokens.Verify(refreshToken, models.TokenKindRefresh)
	if err != nil {
		return nil, models.ErrInvalidRefreshToken
	}

	session, err := s.store.Sessions().GetByHash(ctx, auth.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidRefreshToken
		}
		s.logger.Error("failed to look up session", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if session.AccountID != claims.AccountID || session.IsExpired() {
		return nil, models.ErrInvalidRefreshToken
	}

	acct, err := s.store.Accounts().GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidRefreshToken
		}
		s.logger.Error("failed to load account for refresh", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !acct.Active {
		return nil, models.ErrUserInactive
	}

	// Tokens issued before a password change are no longer honored.
	if acct.PasswordChangedAt != nil && claims.IssuedAt != nil &&
		claims.IssuedAt.Time.Before(*acct.PasswordChangedAt) {
		return nil, models.ErrInvalidRefreshToken
	}

	accessToken, err := s.tokens.Issue(models.TokenKindAccess, acct.ID, s.cfg.AccessTokenExpiry)
	if err != nil {
		s.logger.Error("failed to issue access token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("access token refreshed", slog.String("account_id", acct.ID))

	return &AuthResponse{
		AccessToken: accessToken,
		Account:     accountModelToResponse(acct),
	}, nil
}

// RequestPasswordReset starts the reset flow. The response is uniform
// whether or not the email is registered, including its timing.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	start := time.Now()
	defer func() {
		if s.timing != nil {
			s.timing.WaitFrom(start, false)
		}
	}()

	email = models.NormalizeEmail(email)
	if email == "" {
		return nil
	}

	acct, err := s.store.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to look up account for reset", slog.Any("error", err))
		}
		return nil
	}

	s.sendActionToken(ctx, acct, models.TokenKindReset)
	s.audit.LogAccountAction("password_reset_requested", acct.ID, "", nil)
	return nil
}

// ResetPassword consumes a reset token, replaces the password hash, and
// revokes every refresh session for the account.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return models.ErrInvalidOrExpiredToken
	}

	claims, err := s.tokens.Verify(token, models.TokenKindReset)
	if err != nil {
		return models.ErrInvalidOrExpiredToken
	}

	if err := pkgauth.ValidatePassword(newPassword, s.cfg.PasswordMinLength); err != nil {
		return models.ErrWeakPassword
	}

	hashedPassword, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	err = s.store.InTx(ctx, func(tx repositories.Store) error {
		row, err := tx.Tokens().GetByHash(ctx, auth.HashToken(token))
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrInvalidOrExpiredToken
			}
			return err
		}

		if row.AccountID != claims.AccountID || row.Kind != models.TokenKindReset {
			return models.ErrInvalidOrExpiredToken
		}
		if row.IsConsumed() || row.IsExpired() {
			return models.ErrInvalidOrExpiredToken
		}

		if err := tx.Tokens().Consume(ctx, row.ID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.ErrInvalidOrExpiredToken
			}
			return err
		}

		if err := tx.Accounts().UpdatePassword(ctx, row.AccountID, hashedPassword); err != nil {
			return err
		}

		// Forced re-login everywhere.
		return tx.Sessions().DeleteByAccount(ctx, row.AccountID)
	})
	if err != nil {
		if isUserFacing(err) || errors.Is(err, models.ErrStorageUnavailable) {
			return err
		}
		s.logger.Error("password reset failed", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("password reset", slog.String("account_id", claims.AccountID))
	s.audit.LogPasswordChange(claims.AccountID, "", true)
	return nil
}

// Logout deletes the refresh session for the given token. Logging out an
// already-revoked token succeeds.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	if err := s.store.Sessions().DeleteByHash(ctx, auth.HashToken(refreshToken)); err != nil {
		s.logger.Error("failed to delete session", slog.Any("error", err))
		return models.ErrInternalServer
	}

	return nil
}

// ResendVerification re-issues a verification token, subject to a cooldown.
// The response is uniform whether or not the email is registered.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil
	}

	acct, err := s.store.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to look up account for resend", slog.Any("error", err))
		}
		return nil
	}

	if acct.EmailVerified {
		return nil
	}

	latest, err := s.store.Tokens().GetLatestByAccount(ctx, acct.ID, models.TokenKindVerify)
	if err == nil && time.Since(latest.CreatedAt) < s.cfg.ResendCooldown {
		s.logger.Info("verification resend rate limited", slog.String("account_id", acct.ID))
		return nil
	}

	s.sendActionToken(ctx, acct, models.TokenKindVerify)
	return nil
}

// CurrentAccount returns the response view of an authenticated account.
func (s *AuthService) CurrentAccount(ctx context.Context, accountID string) (*AccountResponse, error) {
	acct, err := s.store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, models.ErrInternalServer
	}
	return accountModelToResponse(acct), nil
}

// sendActionToken issues a verify/reset token, persists its hash, and sends
// the email with a bounded timeout. Failures are logged only: the caller's
// transaction has already committed and the user gets the generic
// "check your email" either way.
func (s *AuthService) sendActionToken(ctx context.Context, acct *models.Account, kind string) {
	ttl := s.cfg.VerifyTokenExpiry
	if kind == models.TokenKindReset {
		ttl = s.cfg.ResetTokenExpiry
	}

	token, err := s.tokens.Issue(kind, acct.ID, ttl)
	if err != nil {
		s.logger.Error("failed to issue token",
			slog.String("kind", kind),
			slog.String("account_id", acct.ID),
			slog.Any("error", err))
		return
	}

	expiresAt := time.Now().Add(ttl)
	row := &models.ActionToken{
		AccountID: acct.ID,
		Kind:      kind,
		TokenHash: auth.HashToken(token),
		ExpiresAt: expiresAt,
	}
	if _, err := s.store.Tokens().Create(ctx, row); err != nil {
		s.logger.Error("failed to persist token",
			slog.String("kind", kind),
			slog.String("account_id", acct.ID),
			slog.Any("error", err))
		return
	}

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.EmailSendTimeout)
	defer cancel()

	switch kind {
	case models.TokenKindReset:
		err = s.email.SendPasswordResetEmail(sendCtx, acct.Email, token, expiresAt)
	default:
		err = s.email.SendVerificationEmail(sendCtx, acct.Email, token, expiresAt)
	}
	if err != nil {
		s.logger.Error("failed to send email",
			slog.String("kind", kind),
			slog.String("account_id", acct.ID),
			slog.Any("error", err))
	}
}

// isUserFacing reports whether err belongs to the recoverable, user-facing
// taxonomy (as opposed to internal/storage failures).
func isUserFacing(err error) bool {
	var locked *models.AccountLockedError
	if errors.As(err, &locked) {
		return true
	}
	switch {
	case errors.Is(err, models.ErrDuplicateEmail),
		errors.Is(err, models.ErrWeakPassword),
		errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, models.ErrEmailNotVerified),
		errors.Is(err, models.ErrExpiredToken),
		errors.Is(err, models.ErrInvalidToken),
		errors.Is(err, models.ErrInvalidRefreshToken),
		errors.Is(err, models.ErrInvalidOrExpiredToken),
		errors.Is(err, models.ErrUserInactive):
		return true
	}
	return false
}

// accountModelToResponse converts an account model to its response DTO
func accountModelToResponse(acct *models.Account) *AccountResponse {
	return &AccountResponse{
		ID:            acct.ID,
		Email:         acct.Email,
		EmailVerified: acct.EmailVerified,
		IsAdmin:       acct.IsAdmin,
		CreatedAt:     acct.CreatedAt.Format(time.RFC3339),
	}
}
