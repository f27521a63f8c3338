package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenValidity is the lifetime of an issued session token.
const TokenValidity = 7 * 24 * time.Hour

// Claims represents the data stored in the session token. The account id
// travels in the registered Subject claim.
type Claims struct {
	jwt.RegisteredClaims
}

// Manager issues and validates HS256-signed session tokens. Tokens are
// self-contained: validation never touches storage.
type Manager struct {
	signingKey []byte
	validity   time.Duration
}

func NewManager(secret string, validity time.Duration) *Manager {
	return &Manager{
		signingKey: []byte(secret),
		validity:   validity,
	}
}

// Issue signs a token asserting accountID for the configured validity window.
func (m *Manager) Issue(accountID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.validity)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.signingKey)
}

// Validate parses and verifies tokenString and returns the account id it
// asserts. Malformed, forged and expired tokens all fail.
func (m *Manager) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.signingKey, nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}

	return claims.Subject, nil
}
