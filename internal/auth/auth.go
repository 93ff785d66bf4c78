// Package auth issues and verifies the bearer tokens the board client sends.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is how long a minted token stays valid
const DefaultTTL = 7 * 24 * time.Hour

// ErrNoSecret is returned when tokens are requested without a signing secret
var ErrNoSecret = errors.New("auth: signing secret is empty")

// Authority signs and checks HS256 tokens with a shared secret
type Authority struct {
	secret []byte
	now    func() time.Time
}

// New creates an Authority for secret
func New(secret string) (*Authority, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	return &Authority{secret: []byte(secret), now: time.Now}, nil
}

// Issue mints a token for subject that expires after ttl
func (a *Authority) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("auth: subject is required")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks a token and returns its subject
func (a *Authority) Verify(tokenString string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("subject claim missing")
	}
	return claims.Subject, nil
}
