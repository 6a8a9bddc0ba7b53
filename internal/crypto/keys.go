package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrInvalidAppKey is returned when APP_KEY is not base64 or has the wrong size
	ErrInvalidAppKey = errors.New("application key must be base64-encoded 32 bytes")
)

const (
	// AppKeySize is the decoded size of the application key (32 bytes)
	AppKeySize = 32
)

// GenerateAppKey generates a new random 32-byte application key
// Returned as base64 for easy storage in an environment variable
func GenerateAppKey() (string, error) {
	key := make([]byte, AppKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to generate application key: %w", err)
	}

	return base64.StdEncoding.EncodeToString(key), nil
}

// DecodeAppKey decodes a base64 application key and checks its size
func DecodeAppKey(keyBase64 string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAppKey, err)
	}

	if len(key) != AppKeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidAppKey, len(key))
	}

	return key, nil
}
