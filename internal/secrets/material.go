package secrets

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GeneratePassword returns a URL-safe random credential of the given byte
// strength. Used to seed initial service credentials for KV paths that are
// still empty; paths with existing material are never overwritten.
func GeneratePassword(bytes int) (string, error) {
	if bytes <= 0 {
		bytes = 24
	}

	buf := make([]byte, bytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random credential: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// MustGeneratePassword is GeneratePassword for plan construction, where a
// failing system RNG is unrecoverable anyway.
func MustGeneratePassword(bytes int) string {
	pw, err := GeneratePassword(bytes)
	if err != nil {
		panic(err)
	}
	return pw
}
