// Package auth provides API credential generation and request context helpers.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// Key format: mk_live_{prefix}_{secret}
// Example: mk_live_7a9x3k_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b
//
// The secret carries 128 bits of entropy. The format contains no "@",
// which is how the gateway tells a credential apart from an email.
const (
	KeyPrefixLen = 6  // Visible prefix length (hex encoded 3 bytes)
	KeySecretLen = 32 // Secret length (hex encoded 16 bytes)
)

var (
	// ErrInvalidKeyFormat indicates the key format is invalid.
	ErrInvalidKeyFormat = errors.New("invalid API key format")
	// keyFormatRegex validates the key format.
	keyFormatRegex = regexp.MustCompile(`^mk_live_([a-f0-9]{6})_([a-f0-9]{32})$`)
)

// GenerateKey mints a new API credential.
// The returned string is the full credential; its prefix (for log
// correlation) is available via Prefix.
func GenerateKey() (string, error) {
	prefixBytes := make([]byte, 3)
	if _, err := rand.Read(prefixBytes); err != nil {
		return "", fmt.Errorf("generate prefix: %w", err)
	}

	secretBytes := make([]byte, 16)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}

	return fmt.Sprintf("mk_live_%s_%s",
		hex.EncodeToString(prefixBytes),
		hex.EncodeToString(secretBytes),
	), nil
}

// Prefix returns the 6-char visible prefix of a well-formed key.
// Safe to log; never log the full key.
func Prefix(key string) string {
	matches := keyFormatRegex.FindStringSubmatch(key)
	if matches == nil {
		return ""
	}
	return matches[1]
}

// ValidateKeyFormat checks if the key matches the expected format.
func ValidateKeyFormat(key string) bool {
	return keyFormatRegex.MatchString(key)
}
