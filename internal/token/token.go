// Package token issues and verifies the anti-forgery tokens that guard the
// partial-refresh endpoints. A token is minted when a grid is rendered into
// a page view and is bound to that block instance; refresh requests must
// present it before any catalog access happens.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every verification failure: bad signature, expiry,
// or a token issued for a different block instance.
var ErrInvalidToken = errors.New("token: invalid or expired token")

// Issuer mints and verifies HMAC-signed refresh tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an Issuer with the given signing secret and token
// lifetime.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue mints a token bound to the given block instance id.
func (i *Issuer) Issue(blockID string) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   blockID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the token's signature and lifetime and that it was issued
// for the given block instance.
func (i *Issuer) Verify(tokenString, blockID string) error {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("token: unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject != blockID {
		return ErrInvalidToken
	}
	return nil
}
