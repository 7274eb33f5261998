// Package cache stores downloaded source files and computed reports so
// that repeated runs skip the network and the reshape pipeline.
//
// # Backends
//
//   - [FileCache]: hash-sharded JSON entries under ~/.cache/widetable (CLI)
//   - [RedisCache]: shared cache for `widetable serve` deployments
//   - [NullCache]: disables caching
//
// # Keys
//
// A [Keyer] derives keys from what determines the cached value: the source
// location for raw bytes, the source hash plus the report options for a
// report. [ScopedKeyer] prefixes every key, which keeps several datasets or
// tenants apart in one Redis database.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was found. A miss is
	// not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default lifetimes per entry type.
const (
	// TTLSource keeps downloaded spreadsheets and CSVs for a week; the
	// published datasets are static.
	TTLSource = 7 * 24 * time.Hour

	// TTLReport keeps computed reports for a day.
	TTLReport = 24 * time.Hour
)
