package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sign issues an HS256 token for userID valid for ttl. The web app issues
// tokens in production; this is used by tooling and tests.
func Sign(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
