package auth

import (
	"time"

	"github.com/mhutchens/waypoint/internal/models"
)

// LockoutPolicy tracks failed login attempts on an account and enforces a
// temporary lockout once the threshold is reached. The methods mutate the
// account in memory only; the caller persists the changed row inside the
// same transaction that read it, so two concurrent failures cannot both
// observe the pre-increment counter.
type LockoutPolicy struct {
	Threshold int           // failures before a lockout is applied
	Duration  time.Duration // how long a lockout lasts

	now func() time.Time // injectable clock for tests
}

// NewLockoutPolicy creates a policy with the given threshold and duration.
func NewLockoutPolicy(threshold int, duration time.Duration) *LockoutPolicy {
	return &LockoutPolicy{
		Threshold: threshold,
		Duration:  duration,
		now:       time.Now,
	}
}

// CheckLocked fails with *models.AccountLockedError while the account's
// lockout window is active. A lockout expiry in the past is inert: login
// proceeds normally and the stale expiry is cleared by the next success.
func (p *LockoutPolicy) CheckLocked(acct *models.Account) error {
	if acct.LockedUntil == nil {
		return nil
	}

	now := p.now()
	if now.Before(*acct.LockedUntil) {
		return &models.AccountLockedError{RetryAfter: acct.LockedUntil.Sub(now)}
	}

	return nil
}

// RecordFailure increments the failed-login counter. At the threshold it
// sets the lockout expiry and resets the counter to zero.
func (p *LockoutPolicy) RecordFailure(acct *models.Account) {
	acct.FailedLogins++
	if acct.FailedLogins >= p.Threshold {
		lockedUntil := p.now().Add(p.Duration)
		acct.LockedUntil = &lockedUntil
		acct.FailedLogins = 0
	}
}

// RecordSuccess resets the failure counter, clears any lockout expiry, and
// stamps the last successful login.
func (p *LockoutPolicy) RecordSuccess(acct *models.Account) {
	now := p.now()
	acct.FailedLogins = 0
	acct.LockedUntil = nil
	acct.LastLoginAt = &now
}
