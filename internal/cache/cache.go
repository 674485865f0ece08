// Package cache keeps finished translations so repeated page texts skip the
// backend. Stores are keyed by backend, language pair and a hash of the text.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultTTL = 24 * time.Hour
	keyPrefix  = "pagetrans:tr"
)

// Store is a string key/value store with per-entry expiry.
type Store interface {
	// Get returns the value for key; ok is false on a miss.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

// Key builds the store key of a translation. The text is hashed so page
// content never appears in key listings.
func Key(backend, source, target, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s:%s:%s:%s:%s", keyPrefix, backend, source, target, hex.EncodeToString(sum[:]))
}

// Open returns the store named by url: "memory" for a process-local store
// or a redis:// / rediss:// URL.
func Open(ctx context.Context, url string) (Store, error) {
	url = strings.TrimSpace(url)
	switch {
	case url == "" || url == "none":
		return nil, nil
	case url == "memory":
		return NewMemory(DefaultMaxEntries), nil
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		r, err := NewRedis(ctx, url)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported cache URL %q (want memory or redis://)", url)
	}
}
