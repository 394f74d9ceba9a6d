// Package cache provides byte-oriented caching backends for registry
// responses.
//
// # Backends
//
//   - [FileCache]: one JSON entry per key under a directory (CLI default)
//   - [RedisCache]: shared cache for CI runners or teams behind one registry
//   - [NullCache]: caching disabled (--no-cache, tests)
//
// # Keys
//
// Keys are produced by a [Keyer]. [ScopedKeyer] prefixes every key so two
// registries never share entries:
//
//	keyer := cache.NewScopedKeyer(nil, "registry.npmjs.org:")
//	key := keyer.HTTPKey("npm", "left-pad@1.3.0")
//
// # Retry
//
// [Retry] retries only errors wrapped with [Retryable], which is
// how the registry client marks transport failures and 5xx responses.
package cache

import (
	"context"
	"time"
)

// TTLRegistry is the default lifetime of cached registry metadata.
const TTLRegistry = 24 * time.Hour

// Cache stores opaque byte payloads with an optional expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the payload for key. A miss (including an expired entry)
	// is reported as (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey generates a key for a cached HTTP response.
	HTTPKey(namespace, key string) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}
