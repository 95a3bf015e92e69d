package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrBadRequest     = errors.New("bad request")
	ErrForbidden      = errors.New("forbidden")
	ErrInternalServer = errors.New("internal server error")

	// Auth workflow errors. ErrInvalidCredentials is deliberately identical
	// whether the email is unknown or the password is wrong.
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrWeakPassword          = errors.New("password does not meet requirements")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrEmailNotVerified      = errors.New("email address not verified")
	ErrExpiredToken          = errors.New("token has expired")
	ErrInvalidToken          = errors.New("token is invalid")
	ErrInvalidRefreshToken   = errors.New("refresh token is invalid or revoked")
	ErrInvalidOrExpiredToken = errors.New("token is invalid, consumed, or expired")
	ErrUserInactive          = errors.New("account is deactivated")

	// ErrStorageUnavailable marks persistence-layer connectivity failures,
	// as distinct from the user-facing taxonomy above.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// AccountLockedError is returned while an account's lockout window is
// active. RetryAfter is how long until the lock expires.
type AccountLockedError struct {
	RetryAfter time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account is temporarily locked, retry in %ds", e.RemainingSeconds())
}

// RemainingSeconds rounds the retry window up so a caller never retries
// before the lock expires.
func (e *AccountLockedError) RemainingSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}
