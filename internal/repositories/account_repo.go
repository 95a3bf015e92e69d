package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/mhutchens/waypoint/internal/database"
	"github.com/mhutchens/waypoint/internal/models"
	"github.com/google/uuid"
)

const accountColumns = `id, email, password_hash, email_verified, failed_logins, locked_until, is_admin, active, last_login_at, password_changed_at, created_at, updated_at`

// AccountRepository handles account and profile data access.
type AccountRepository struct {
	q database.Querier
}

// NewAccountRepository creates an AccountRepository bound to the pool.
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// rowScanner interface for scanning rows (single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAccountRow handles nullable fields and populates an Account model
func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var acct models.Account
	var lockedUntil, lastLoginAt, passwordChangedAt *time.Time

	err := scanner.Scan(
		&acct.ID, &acct.Email, &acct.PasswordHash,
		&acct.EmailVerified, &acct.FailedLogins, &lockedUntil,
		&acct.IsAdmin, &acct.Active,
		&lastLoginAt, &passwordChangedAt,
		&acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	acct.LockedUntil = lockedUntil
	acct.LastLoginAt = lastLoginAt
	acct.PasswordChangedAt = passwordChangedAt

	return &acct, nil
}

func (r *AccountRepository) Create(ctx context.Context, acct *models.Account) (*models.Account, error) {
	acct.ID = uuid.New().String()
	acct.Email = models.NormalizeEmail(acct.Email)

	now := time.Now()
	acct.CreatedAt = now
	acct.UpdatedAt = now

	query := `
		INSERT INTO accounts (id, email, password_hash, email_verified, failed_logins, is_admin, active, password_changed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + accountColumns

	created, err := scanAccountRow(r.q.QueryRow(ctx, query,
		acct.ID, acct.Email, acct.PasswordHash,
		acct.EmailVerified, acct.FailedLogins, acct.IsAdmin, acct.Active,
		acct.PasswordChangedAt, acct.CreatedAt, acct.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccountRow(r.q.QueryRow(ctx, query, id))
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccountRow(r.q.QueryRow(ctx, query, models.NormalizeEmail(email)))
}

func (r *AccountRepository) GetByEmailForUpdate(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1 FOR UPDATE`
	return scanAccountRow(r.q.QueryRow(ctx, query, models.NormalizeEmail(email)))
}

// UpdateAuthState persists the lockout-related fields mutated by the
// lockout policy: failure counter, lockout expiry, last login.
func (r *AccountRepository) UpdateAuthState(ctx context.Context, acct *models.Account) error {
	query := `
		UPDATE accounts
		SET failed_logins = $1, locked_until = $2, last_login_at = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.q.Exec(ctx, query,
		acct.FailedLogins, acct.LockedUntil, acct.LastLoginAt, time.Now(), acct.ID,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *AccountRepository) SetEmailVerified(ctx context.Context, id string) error {
	query := `UPDATE accounts SET email_verified = true, updated_at = $1 WHERE id = $2`

	result, err := r.q.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	now := time.Now()
	query := `
		UPDATE accounts
		SET password_hash = $1, password_changed_at = $2, updated_at = $2
		WHERE id = $3
	`

	result, err := r.q.Exec(ctx, query, passwordHash, now, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *AccountRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE accounts SET active = $1, updated_at = $2 WHERE id = $3`

	result, err := r.q.Exec(ctx, query, active, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM accounts WHERE id = $1`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *AccountRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	query := `
		INSERT INTO profiles (account_id, full_name, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.Exec(ctx, query,
		profile.AccountID, profile.FullName, profile.Phone,
		profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", database.MapPostgresError(err))
	}

	return nil
}

func (r *AccountRepository) DeleteProfile(ctx context.Context, accountID string) error {
	query := `DELETE FROM profiles WHERE account_id = $1`

	if _, err := r.q.Exec(ctx, query, accountID); err != nil {
		return database.MapPostgresError(err)
	}

	return nil
}
