// Package auth implements bearer-token authentication: bcrypt password
// hashing compatible with the teacher's storage model and JWT issuance with
// a `sub` claim and a 30-day expiry, grounded on
// original_source/app/services/auth_service.py.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenTTL matches auth_service.py's ACCESS_TOKEN_EXPIRE_MINUTES (30 days,
// the streamlit-authenticator default it preserves compatibility with).
const tokenTTL = 30 * 24 * time.Hour

// ErrInvalidToken covers every JWT parse/validation failure; callers don't
// need to distinguish expired from malformed from wrong-signature.
var ErrInvalidToken = errors.New("invalid or expired token")

// Signer issues and verifies HMAC-SHA256 JWTs carrying a `sub` claim.
type Signer struct {
	secret []byte
}

// NewSigner constructs a Signer from the configured secret.
func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// IssueToken returns a signed JWT for username, expiring in 30 days.
func (s *Signer) IssueToken(username string) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return signed, nil
}

// ParseToken validates tok and returns its subject (the username).
func (s *Signer) ParseToken(tok string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	parsed, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}

		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
