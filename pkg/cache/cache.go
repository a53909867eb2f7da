// Package cache stores byte values under string keys with an optional
// time-to-live. Two providers exist: SQLite (file or in-memory database)
// and a plain in-process map.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/WhileEndless/go-httpmessage/pkg/errors"
)

// reservedKeyChars may not appear in a key
const reservedKeyChars = "{}()/\\@:"

// Provider is a key/value store for cached responses.
//
// Implementations must be safe for concurrent use. A ttl of zero stores the
// value without expiry. Expired entries are reported as missing and purged.
type Provider interface {
	// Get returns the value for key and whether it was found
	Get(key string) ([]byte, bool, error)
	// Put stores value under key, replacing any previous value
	Put(key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Has reports whether a live entry exists for key
	Has(key string) (bool, error)
	// Clear removes every entry
	Clear() error
	// Close releases the underlying resources
	Close() error
}

// ValidateKey rejects empty keys and keys containing any of {}()/\@:
func ValidateKey(key string) error {
	if key == "" {
		return errors.InvalidArgument("cache key must not be empty", "cache.ValidateKey")
	}
	if strings.ContainsAny(key, reservedKeyChars) {
		return errors.InvalidArgument("cache key contains reserved characters: "+key, "cache.ValidateKey")
	}
	return nil
}

// HashKey derives a valid key from arbitrary parts, such as a method and a
// URI that would otherwise contain reserved characters
func HashKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(sum[:])
}

// expiry converts a ttl to the stored expiry time (zero for none)
func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func expired(now, expires time.Time) bool {
	return !expires.IsZero() && now.After(expires)
}
