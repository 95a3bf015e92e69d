package repositories

import (
	"context"
	"time"

	"github.com/mhutchens/waypoint/internal/database"
	"github.com/mhutchens/waypoint/internal/models"
	"github.com/jackc/pgx/v5"
)

// AccountStore handles account and profile persistence.
type AccountStore interface {
	Create(ctx context.Context, acct *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	// GetByEmailForUpdate row-locks the account so the read-check-write
	// sequence of a login attempt is serialized per account.
	GetByEmailForUpdate(ctx context.Context, email string) (*models.Account, error)
	UpdateAuthState(ctx context.Context, acct *models.Account) error
	SetEmailVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	CreateProfile(ctx context.Context, profile *models.Profile) error
	DeleteProfile(ctx context.Context, accountID string) error
}

// ActionTokenStore handles verification and reset token records.
type ActionTokenStore interface {
	Create(ctx context.Context, token *models.ActionToken) (*models.ActionToken, error)
	GetByHash(ctx context.Context, tokenHash string) (*models.ActionToken, error)
	// Consume marks a token used; it fails with models.ErrNotFound when the
	// token is missing or was already consumed, making use at-most-once.
	Consume(ctx context.Context, id string) error
	GetLatestByAccount(ctx context.Context, accountID, kind string) (*models.ActionToken, error)
	DeleteByAccount(ctx context.Context, accountID string) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SessionStore handles refresh-token session records.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) (*models.Session, error)
	GetByHash(ctx context.Context, tokenHash string) (*models.Session, error)
	DeleteByHash(ctx context.Context, tokenHash string) error
	DeleteByAccount(ctx context.Context, accountID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// Store aggregates the repositories and provides the transaction boundary
// each workflow operation runs inside.
type Store interface {
	Accounts() AccountStore
	Tokens() ActionTokenStore
	Sessions() SessionStore
	// InTx runs fn against a transaction-bound Store; the transaction
	// commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Store) error) error
}

type pgStore struct {
	db *database.DB // nil when already transaction-bound
	q  database.Querier
}

// NewStore creates the postgres-backed Store.
func NewStore(db *database.DB) Store {
	return &pgStore{db: db, q: db.Pool}
}

func (s *pgStore) Accounts() AccountStore {
	return &AccountRepository{q: s.q}
}

func (s *pgStore) Tokens() ActionTokenStore {
	return &ActionTokenRepository{q: s.q}
}

func (s *pgStore) Sessions() SessionStore {
	return &SessionRepository{q: s.q}
}

func (s *pgStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.db == nil {
		// Already inside a transaction; run against it.
		return fn(s)
	}
	return s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return fn(&pgStore{q: tx})
	})
}
