package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecret generates a cryptographically secure random secret
func GenerateSecret(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateVerificationToken generates the opaque token embedded in employee
// verification links. 32 bytes gives a 64-character hex string.
func GenerateVerificationToken() (string, error) {
	return GenerateSecret(32)
}
