package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/mhutchens/waypoint/internal/database"
	"github.com/mhutchens/waypoint/internal/models"
	"github.com/google/uuid"
)

const sessionColumns = `id, account_id, token_hash, ip_address, user_agent, expires_at, created_at`

// SessionRepository handles refresh-token session data access.
type SessionRepository struct {
	q database.Querier
}

// NewSessionRepository creates a SessionRepository bound to the pool.
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{q: db.Pool}
}

func scanSessionRow(scanner rowScanner) (*models.Session, error) {
	var session models.Session

	err := scanner.Scan(
		&session.ID, &session.AccountID, &session.TokenHash,
		&session.IPAddress, &session.UserAgent,
		&session.ExpiresAt, &session.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &session, nil
}

func (r *SessionRepository) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	session.ID = uuid.New().String()
	session.CreatedAt = time.Now()

	query := `
		INSERT INTO sessions (id, account_id, token_hash, ip_address, user_agent, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + sessionColumns

	created, err := scanSessionRow(r.q.QueryRow(ctx, query,
		session.ID, session.AccountID, session.TokenHash,
		session.IPAddress, session.UserAgent,
		session.ExpiresAt, session.CreatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return created, nil
}

func (r *SessionRepository) GetByHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE token_hash = $1`
	return scanSessionRow(r.q.QueryRow(ctx, query, tokenHash))
}

// DeleteByHash revokes a session. Deleting an already-absent session is a
// no-op; logout is idempotent.
func (r *SessionRepository) DeleteByHash(ctx context.Context, tokenHash string) error {
	query := `DELETE FROM sessions WHERE token_hash = $1`

	if _, err := r.q.Exec(ctx, query, tokenHash); err != nil {
		return database.MapPostgresError(err)
	}

	return nil
}

func (r *SessionRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	query := `DELETE FROM sessions WHERE account_id = $1`

	if _, err := r.q.Exec(ctx, query, accountID); err != nil {
		return database.MapPostgresError(err)
	}

	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at <= NOW()`

	result, err := r.q.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup expired sessions: %w", err)
	}

	return result.RowsAffected(), nil
}
