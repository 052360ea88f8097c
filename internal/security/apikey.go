package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const minAPIKeyLength = 24

// GenerateAPIKey returns a random key suitable for HashAPIKey.
func GenerateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashAPIKey returns a bcrypt hash of key, base64 encoded so it can sit in
// a .env file without quoting.
func HashAPIKey(key string) (string, error) {
	if len(key) < minAPIKeyLength {
		return "", fmt.Errorf("api key must be at least %d characters", minAPIKeyLength)
	}
	if len(key) > 72 {
		return "", errors.New("api key must be at most 72 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash api key: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(hash), nil
}

func VerifyAPIKey(key, encoded string) bool {
	if key == "" {
		return false
	}
	hash, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(hash) == 0 {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(key)) == nil
}
