package models

import (
	"strings"
	"time"
)

type Account struct {
	ID                string
	Email             string
	PasswordHash      string
	EmailVerified     bool
	FailedLogins      int
	LockedUntil       *time.Time // Temporary lockout expiration
	IsAdmin           bool
	Active            bool       // false = soft-deactivated
	LastLoginAt       *time.Time
	PasswordChangedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Profile holds the non-credential fields captured at registration.
// A profile is exclusively owned by its account and is created and
// deleted in the same transaction as the account row.
type Profile struct {
	AccountID string
	FullName  string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeEmail lower-cases and trims an email address. Every write path
// must store the normalized form so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
