package services

import (
	"context"
	"time"

	"github.com/mhutchens/waypoint/internal/models"
	"github.com/mhutchens/waypoint/internal/repositories"
	pkgauth "github.com/mhutchens/waypoint/pkg/auth"
	"github.com/google/uuid"
)

// MockAccountStore implements repositories.AccountStore for testing
type MockAccountStore struct {
	CreateFunc              func(ctx context.Context, acct *models.Account) (*models.Account, error)
	GetByIDFunc             func(ctx context.Context, id string) (*models.Account, error)
	GetByEmailFunc          func(ctx context.Context, email string) (*models.Account, error)
	GetByEmailForUpdateFunc func(ctx context.Context, email string) (*models.Account, error)
	UpdateAuthStateFunc     func(ctx context.Context, acct *models.Account) error
	SetEmailVerifiedFunc    func(ctx context.Context, id string) error
	UpdatePasswordFunc      func(ctx context.Context, id, passwordHash string) error
	SetActiveFunc           func(ctx context.Context, id string, active bool) error
	DeleteFunc              func(ctx context.Context, id string) error
	CreateProfileFunc       func(ctx context.Context, profile *models.Profile) error
	DeleteProfileFunc       func(ctx context.Context, accountID string) error
}

func (m *MockAccountStore) Create(ctx context.Context, acct *models.Account) (*models.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, acct)
	}
	acct.ID = uuid.New().String()
	return acct, nil
}

func (m *MockAccountStore) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountStore) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountStore) GetByEmailForUpdate(ctx context.Context, email string) (*models.Account, error) {
	if m.GetByEmailForUpdateFunc != nil {
		return m.GetByEmailForUpdateFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountStore) UpdateAuthState(ctx context.Context, acct *models.Account) error {
	if m.UpdateAuthStateFunc != nil {
		return m.UpdateAuthStateFunc(ctx, acct)
	}
	return nil
}

func (m *MockAccountStore) SetEmailVerified(ctx context.Context, id string) error {
	if m.SetEmailVerifiedFunc != nil {
		return m.SetEmailVerifiedFunc(ctx, id)
	}
	return nil
}

func (m *MockAccountStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockAccountStore) SetActive(ctx context.Context, id string, active bool) error {
	if m.SetActiveFunc != nil {
		return m.SetActiveFunc(ctx, id, active)
	}
	return nil
}

func (m *MockAccountStore) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockAccountStore) CreateProfile(ctx context.Context, profile *models.Profile) error {
	if m.CreateProfileFunc != nil {
		return m.CreateProfileFunc(ctx, profile)
	}
	return nil
}

func (m *MockAccountStore) DeleteProfile(ctx context.Context, accountID string) error {
	if m.DeleteProfileFunc != nil {
		return m.DeleteProfileFunc(ctx, accountID)
	}
	return nil
}

// MockActionTokenStore implements repositories.ActionTokenStore for testing
type MockActionTokenStore struct {
	CreateFunc             func(ctx context.Context, token *models.ActionToken) (*models.ActionToken, error)
	GetByHashFunc          func(ctx context.Context, tokenHash string) (*models.ActionToken, error)
	ConsumeFunc            func(ctx context.Context, id string) error
	GetLatestByAccountFunc func(ctx context.Context, accountID, kind string) (*models.ActionToken, error)
	DeleteByAccountFunc    func(ctx context.Context, accountID string) error
	DeleteExpiredFunc      func(ctx context.Context, olderThan time.Duration) (int64, error)
}

func (m *MockActionTokenStore) Create(ctx context.Context, token *models.ActionToken) (*models.ActionToken, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, token)
	}
	token.ID = uuid.New().String()
	return token, nil
}

func (m *MockActionTokenStore) GetByHash(ctx context.Context, tokenHash string) (*models.ActionToken, error) {
	if m.GetByHashFunc != nil {
		return m.GetByHashFunc(ctx, tokenHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockActionTokenStore) Consume(ctx context.Context, id string) error {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, id)
	}
	return nil
}

func (m *MockActionTokenStore) GetLatestByAccount(ctx context.Context, accountID, kind string) (*models.ActionToken, error) {
	if m.GetLatestByAccountFunc != nil {
		return m.GetLatestByAccountFunc(ctx, accountID, kind)
	}
	return nil, models.ErrNotFound
}

func (m *MockActionTokenStore) DeleteByAccount(ctx context.Context, accountID string) error {
	if m.DeleteByAccountFunc != nil {
		return m.DeleteByAccountFunc(ctx, accountID)
	}
	return nil
}

func (m *MockActionTokenStore) DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx, olderThan)
	}
	return 0, nil
}

// MockSessionStore implements repositories.SessionStore for testing
type MockSessionStore struct {
	CreateFunc          func(ctx context.Context, session *models.Session) (*models.Session, error)
	GetByHashFunc       func(ctx context.Context, tokenHash string) (*models.Session, error)
	DeleteByHashFunc    func(ctx context.Context, tokenHash string) error
	DeleteByAccountFunc func(ctx context.Context, accountID string) error
	DeleteExpiredFunc   func(ctx context.Context) (int64, error)
}

func (m *MockSessionStore) Create(ctx context.Context, session *models.Session) (*models.Session, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	session.ID = uuid.New().String()
	return session, nil
}

func (m *MockSessionStore) GetByHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	if m.GetByHashFunc != nil {
		return m.GetByHashFunc(ctx, tokenHash)
	}
	return nil, models.ErrNotFound
}

func (m *MockSessionStore) DeleteByHash(ctx context.Context, tokenHash string) error {
	if m.DeleteByHashFunc != nil {
		return m.DeleteByHashFunc(ctx, tokenHash)
	}
	return nil
}

func (m *MockSessionStore) DeleteByAccount(ctx context.Context, accountID string) error {
	if m.DeleteByAccountFunc != nil {
		return m.DeleteByAccountFunc(ctx, accountID)
	}
	return nil
}

func (m *MockSessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx)
	}
	return 0, nil
}

// MockStore implements repositories.Store; InTx runs fn against the mock
// itself, which mirrors the production nesting behavior.
type MockStore struct {
	AccountStore *MockAccountStore
	TokenStore   *MockActionTokenStore
	SessionStore *MockSessionStore
	InTxFunc     func(ctx context.Context, fn func(repositories.Store) error) error
}

// NewMockStore returns a MockStore with empty mocks wired in.
func NewMockStore() *MockStore {
	return &MockStore{
		AccountStore: &MockAccountStore{},
		TokenStore:   &MockActionTokenStore{},
		SessionStore: &MockSessionStore{},
	}
}

func (m *MockStore) Accounts() repositories.AccountStore { return m.AccountStore }

func (m *MockStore) Tokens() repositories.ActionTokenStore { return m.TokenStore }

func (m *MockStore) Sessions() repositories.SessionStore { return m.SessionStore }

func (m *MockStore) InTx(ctx context.Context, fn func(repositories.Store) error) error {
	if m.InTxFunc != nil {
		return m.InTxFunc(ctx, fn)
	}
	return fn(m)
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendVerificationEmailFunc  func(ctx context.Context, email, token string, expiresAt time.Time) error
	SendPasswordResetEmailFunc func(ctx context.Context, email, token string, expiresAt time.Time) error
}

func (m *MockEmailService) SendVerificationEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	if m.SendVerificationEmailFunc != nil {
		return m.SendVerificationEmailFunc(ctx, email, token, expiresAt)
	}
	return nil
}

func (m *MockEmailService) SendPasswordResetEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	if m.SendPasswordResetEmailFunc != nil {
		return m.SendPasswordResetEmailFunc(ctx, email, token, expiresAt)
	}
	return nil
}

// NewTestAccount builds a verified, active account with the given password
// hashed at test cost.
func NewTestAccount(id, email, password string) *models.Account {
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	now := time.Now()
	return &models.Account{
		ID:            id,
		Email:         email,
		PasswordHash:  hash,
		EmailVerified: true,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
