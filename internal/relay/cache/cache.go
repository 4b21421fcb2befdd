// Package cache provides the shared read-through cache backing the data
// access layer. Backend failures degrade to misses so callers always fall
// back to the source of truth.
package cache

import (
	"context"
	"time"
)

// Cache is the key/value cache shared by all entity stores. Keys are
// logical, of the form "{module}-...", and implementations namespace them
// under a deployment prefix. The module argument scopes invalidation and
// labels metrics.
type Cache interface {
	// Get returns the cached value for key, or ok=false on a miss. A
	// backend error is reported as a miss.
	Get(ctx context.Context, module, key string) (value []byte, ok bool)

	// Set stores value under key. A ttl <= 0 applies the backend's
	// default. Failures are logged and swallowed.
	Set(ctx context.Context, module, key string, value []byte, ttl time.Duration)

	// RemoveModule deletes every key belonging to the module. Failures
	// are logged and swallowed.
	RemoveModule(ctx context.Context, module string)
}
