package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/mhutchens/waypoint/internal/database"
	"github.com/mhutchens/waypoint/internal/models"
	"github.com/google/uuid"
)

const actionTokenColumns = `id, account_id, kind, token_hash, expires_at, consumed_at, created_at`

// ActionTokenRepository handles verification and reset token data access.
type ActionTokenRepository struct {
	q database.Querier
}

// NewActionTokenRepository creates an ActionTokenRepository bound to the pool.
func NewActionTokenRepository(db *database.DB) *ActionTokenRepository {
	return &ActionTokenRepository{q: db.Pool}
}

func scanActionTokenRow(scanner rowScanner) (*models.ActionToken, error) {
	var token models.ActionToken
	var consumedAt *time.Time

	err := scanner.Scan(
		&token.ID, &token.AccountID, &token.Kind, &token.TokenHash,
		&token.ExpiresAt, &consumedAt, &token.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	token.ConsumedAt = consumedAt
	return &token, nil
}

func (r *ActionTokenRepository) Create(ctx context.Context, token *models.ActionToken) (*models.ActionToken, error) {
	token.ID = uuid.New().String()
	token.CreatedAt = time.Now()

	query := `
		INSERT INTO action_tokens (id, account_id, kind, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + actionTokenColumns

	created, err := scanActionTokenRow(r.q.QueryRow(ctx, query,
		token.ID, token.AccountID, token.Kind, token.TokenHash,
		token.ExpiresAt, token.CreatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create action token: %w", err)
	}

	return created, nil
}

func (r *ActionTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*models.ActionToken, error) {
	query := `SELECT ` + actionTokenColumns + ` FROM action_tokens WHERE token_hash = $1`
	return scanActionTokenRow(r.q.QueryRow(ctx, query, tokenHash))
}

// Consume marks a token used. The WHERE clause makes the mark atomic with
// the unconsumed check; a second consume of the same token affects zero
// rows and fails with ErrNotFound.
func (r *ActionTokenRepository) Consume(ctx context.Context, id string) error {
	query := `
		UPDATE action_tokens
		SET consumed_at = NOW()
		WHERE id = $1 AND consumed_at IS NULL
	`

	result, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *ActionTokenRepository) GetLatestByAccount(ctx context.Context, accountID, kind string) (*models.ActionToken, error) {
	query := `
		SELECT ` + actionTokenColumns + `
		FROM action_tokens
		WHERE account_id = $1 AND kind = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanActionTokenRow(r.q.QueryRow(ctx, query, accountID, kind))
}

func (r *ActionTokenRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	query := `DELETE FROM action_tokens WHERE account_id = $1`

	if _, err := r.q.Exec(ctx, query, accountID); err != nil {
		return database.MapPostgresError(err)
	}

	return nil
}

// DeleteExpired removes tokens whose expiry passed more than olderThan ago.
// Expired, unconsumed tokens are already inert; this is garbage collection.
func (r *ActionTokenRepository) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `DELETE FROM action_tokens WHERE expires_at < $1`

	result, err := r.q.Exec(ctx, query, time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired action tokens: %w", err)
	}

	return result.RowsAffected(), nil
}
