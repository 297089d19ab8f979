package auth

import (
	"errors"
	"fmt"
	"strings"
)

const minSecretLength = 32

var weakSecrets = []string{
	"secret",
	"changeme",
	"password",
	"jwt_secret",
	"your-secret-key",
	"development",
	"test",
}

var (
	ErrSecretMissing = errors.New("JWT_SECRET must not be empty")
	ErrSecretWeak    = errors.New("JWT_SECRET is too weak")
)

// ValidateSecret checks JWT_SECRET at startup: at least 32 bytes, not a
// single repeated character and not built from a well-known placeholder.
func ValidateSecret(secret string) error {
	if secret == "" {
		return ErrSecretMissing
	}
	if len(secret) < minSecretLength {
		return fmt.Errorf("%w: must be at least %d characters (current length: %d)", ErrSecretWeak, minSecretLength, len(secret))
	}
	if isRepeatedChar(secret) {
		return fmt.Errorf("%w: must not be a single repeated character", ErrSecretWeak)
	}
	lower := strings.ToLower(secret)
	for _, w := range weakSecrets {
		if strings.Trim(strings.ReplaceAll(lower, w, ""), "-_0123456789") == "" {
			return fmt.Errorf("%w: must not be a placeholder value", ErrSecretWeak)
		}
	}
	return nil
}

func isRepeatedChar(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return len(s) > 0
}
