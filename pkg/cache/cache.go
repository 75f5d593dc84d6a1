package cache

import (
	"io"
	"time"
)

// Backend is a byte-value cache with per-entry TTL.
// Implementations must be safe for concurrent use and must never
// return expired entries. A Backend cannot fail a read, it can only miss.
type Backend interface {
	// Get returns the cached value for key.
	// ok is false if key is absent or its entry has expired.
	Get(key string) (v []byte, ok bool)

	// Store caches v under key for ttl. v is copied by the backend.
	// ttl <= 0 is a no-op.
	Store(key string, v []byte, ttl time.Duration)

	// Remove drops key if present.
	Remove(key string)

	Len() int

	io.Closer
}
