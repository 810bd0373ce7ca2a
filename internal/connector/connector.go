// Package connector defines the Connector contract — an opaque typed
// key/value store used uniformly by ConfigLoader and Tasker — plus its
// concrete backends (Redis, SQL via GORM, S3, a local file system, and an
// in-memory backend for tests and local development).
package connector

import "context"

// Connector is the pluggable key/value backend every higher layer stores
// opaque typed values through.
type Connector interface {
	// Get returns the stored value for key, or nil if absent or empty.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value at key with overwrite semantics. ex is a TTL in
	// seconds; ex == 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ex int) error

	// Delete removes key and reports how many keys were removed (0 or 1
	// for a point delete, kept as a count for symmetry with multi-key
	// backends).
	Delete(ctx context.Context, key string) (int, error)

	// Keys returns all stored keys matching pattern, where "*" is a
	// wildcard matching any run of characters.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// GracefulShutdown releases all pooled connections. Idempotent.
	GracefulShutdown(ctx context.Context) error
}
