// Package auth handles credentials: JWT session tokens, password hashing,
// and single-use password reset tokens. Everything downstream of this
// package works with a verified model.Actor and never sees credentials.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Self-Labs/pmes/internal/model"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry, or
// claim checks. The cause is deliberately not distinguished to callers.
var ErrInvalidToken = errors.New("invalid token")

// tokenClaims is the JWT payload for a session token.
type tokenClaims struct {
	jwt.RegisteredClaims
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
	UnitID *string    `json:"unidade_id,omitempty"`
}

// TokenIssuer signs and verifies session tokens with a shared HS256 secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration

	// now is replaceable in tests.
	now func() time.Time
}

// NewTokenIssuer creates an issuer with the given secret and token lifetime.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a signed session token for the user.
func (i *TokenIssuer) Issue(u *model.User) (string, error) {
	now := i.now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Email:  u.Email,
		Role:   u.Role,
		UnitID: u.UnitID,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning the Actor it
// carries. Any failure maps to ErrInvalidToken.
func (i *TokenIssuer) Verify(token string) (*model.Actor, error) {
	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || !claims.Role.IsValid() {
		return nil, ErrInvalidToken
	}
	return &model.Actor{
		ID:     claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
		UnitID: claims.UnitID,
	}, nil
}
