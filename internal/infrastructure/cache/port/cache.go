package port

import (
	"context"
	"time"
)

// Cache is the key-value surface the identity read-through sits on. Values
// are strings; serialization belongs to the caller, not the port.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value at key, or ErrMiss when the key is absent.
	// Any other error is a transport or server failure.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key. Zero or negative TTL means no expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Del removes keys and reports how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// Ping verifies connectivity with the backend.
	Ping(ctx context.Context) error

	Close() error
}

// ErrMiss signals an absent key, letting callers tell misses apart from
// transport errors.
var ErrMiss = errMiss{}

type errMiss struct{}

func (e errMiss) Error() string { return "cache: miss" }
