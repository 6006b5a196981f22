package auth

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

const (
	// APIKeyPrefix is the prefix for all API keys
	APIKeyPrefix = "gsk_live_"
	// APIKeyLength is the length of the random part of the API key in bytes
	APIKeyLength = 32
)

// GenerateAPIKey creates a new opaque API key. Keys are minted once at
// registration and never rotated by this layer.
func GenerateAPIKey() (string, error) {
	bytes := make([]byte, APIKeyLength)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return APIKeyPrefix + hex.EncodeToString(bytes), nil
}

// LooksLikeAPIKey reports whether a credential carries the API key prefix.
// Verification always goes through the store lookup regardless of shape.
func LooksLikeAPIKey(credential string) bool {
	return strings.HasPrefix(credential, APIKeyPrefix)
}
