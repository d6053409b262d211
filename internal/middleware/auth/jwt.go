// Package auth authenticates bearer tokens and places the owner on the
// request context.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"billreminder/internal/core"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrMissingToken = errors.New("authorization token required")
)

// Claims are the token claims. The subject is the owner ID.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager signs and validates HS256 tokens.
type JWTManager struct {
	secretKey []byte
	issuer    string
	now       func() time.Time
}

func NewJWTManager(secretKey, issuer string) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		now:       time.Now,
	}
}

// Generate issues a token for owner valid for ttl.
func (m *JWTManager) Generate(owner core.Owner, ttl time.Duration) (string, error) {
	if owner.ID == "" {
		return "", errors.New("owner id is required")
	}
	now := m.now()
	claims := &Claims{
		Email: owner.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   owner.ID,
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses tokenString and returns the owner it names.
func (m *JWTManager) Validate(tokenString string) (core.Owner, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return m.secretKey, nil
	}, opts...)
	if err != nil {
		return core.Owner{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return core.Owner{}, ErrInvalidToken
	}
	return core.Owner{ID: claims.Subject, Email: claims.Email}, nil
}
