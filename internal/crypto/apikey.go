// Package crypto implements token generation for API keys.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// APIKeyPrefix tags issued keys so they are syntactically distinguishable
// from session tokens at the transport boundary.
const APIKeyPrefix = "hk_"

// apiKeySecretLen is the hex length of the random part (32 bytes entropy).
const apiKeySecretLen = 64

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// NewAPIKeyToken generates a fresh API key: fixed prefix plus 64 hex chars.
func NewAPIKeyToken() (string, error) {
	b, err := RandBytes(apiKeySecretLen / 2)
	if err != nil {
		return "", err
	}
	return APIKeyPrefix + hex.EncodeToString(b), nil
}

// IsAPIKeyToken reports whether s has the issued-key shape. Used to reject
// malformed keys before any store lookup.
func IsAPIKeyToken(s string) bool {
	if !strings.HasPrefix(s, APIKeyPrefix) {
		return false
	}
	secret := s[len(APIKeyPrefix):]
	if len(secret) != apiKeySecretLen {
		return false
	}
	_, err := hex.DecodeString(secret)
	return err == nil
}
