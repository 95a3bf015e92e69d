package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token kinds. A token of one kind is never accepted where another is
// expected.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
	TokenKindVerify  = "verify"
	TokenKindReset   = "reset"
)

type TokenClaims struct {
	Kind      string `json:"kind"`
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

// ActionToken is the persisted record backing a verification or reset
// token. The signed token itself is only ever held by the user; the row
// stores its SHA-256 hash and the consumed marker that makes it single-use.
type ActionToken struct {
	ID         string
	AccountID  string
	Kind       string // TokenKindVerify or TokenKindReset
	TokenHash  string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

func (t *ActionToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

func (t *ActionToken) IsConsumed() bool {
	return t.ConsumedAt != nil
}

// Session is the server-side record for a refresh token. A refresh token
// is only honored while its session row exists and is unexpired; deleting
// the row is revocation. Access tokens are never persisted.
type Session struct {
	ID        string
	AccountID string
	TokenHash string
	IPAddress string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
