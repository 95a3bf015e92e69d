package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/mhutchens/waypoint/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenService issues and verifies signed, time-bound tokens. It is a pure
// function of the injected secret and its inputs; the secret never appears
// in a token and no state is kept between calls.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given signing secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// Issue mints an HS256-signed token of the given kind for an account.
func (ts *TokenService) Issue(kind, accountID string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := &models.TokenClaims{
		Kind:      kind,
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}

	return tokenString, nil
}

// Verify checks a token's signature, expiry, and kind, returning its claims.
// Expiry failures map to ErrExpiredToken; everything else (bad signature,
// malformed payload, kind mismatch) maps to ErrInvalidToken.
func (ts *TokenService) Verify(tokenString, expectedKind string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ts.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrExpiredToken
		}
		return nil, models.ErrInvalidToken
	}

	if !token.Valid {
		return nil, models.ErrInvalidToken
	}

	if claims.Kind != expectedKind {
		return nil, models.ErrInvalidToken
	}

	if claims.AccountID == "" {
		return nil, models.ErrInvalidToken
	}

	return claims, nil
}

// HashToken returns the hex SHA-256 digest of a signed token. Persisted
// token and session rows store only this digest, never the token itself.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
