package store

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"
)

// Store is a string key/value store with per-entry expiration. It backs the
// emulated browser storage of the admin host. A zero ttl never expires.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// GenerateKey returns a random 32-byte URL-safe key. It is used both as a
// browser identifier and as an OAuth state nonce.
func GenerateKey() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}
