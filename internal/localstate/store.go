// Package localstate persists the session and profile fallback blobs under
// fixed string keys. It is the durable copy consulted when the live
// identity lookup misses, and the place stale copies get cleared from.
package localstate

import (
	"context"
	"time"

	dErrors "vifm-portal/pkg/domain-errors"
)

// Fixed key prefixes for the two blob families.
const (
	SessionKeyPrefix = "portal:session:"
	ProfileKeyPrefix = "portal:profile:"
)

// ErrNotFound keeps blob-store 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "blob not found")

// Store is a small keyed blob store with TTL support.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
