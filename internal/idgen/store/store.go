package store

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned by Get when the key does not exist or expired.
var ErrKeyNotFound = errors.New("key not found")

// KV is the narrow coordination-store command set used by the generators.
//
// Every method maps to a single atomic store command; no caller ever needs a
// multi-command transaction. Implementations must be safe for concurrent use.
type KV interface {
	// SetNX sets key only if it does not exist, with a TTL. It reports
	// whether the value was set (SET key value EX ttl NX).
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Set unconditionally sets key with a TTL (SETEX). A zero ttl means no
	// expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value for key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Del removes key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Keys lists keys matching a glob pattern. Acceptable for keyspaces up
	// to about a thousand entries; not meant for anything larger.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// Exists reports whether key currently exists.
	Exists(ctx context.Context, key string) (bool, error)

	// IncrBy atomically adds amount to the integer stored at key, creating
	// it at zero if absent, and returns the new total.
	IncrBy(ctx context.Context, key string, amount int64) (int64, error)
}
