package cache

import "time"

// Cache defines the port for expiring key-value storage.
// Implementations own the expiry check: an entry is visible to Get only
// while now < expiresAt, and an expired entry behaves exactly like a
// missing one.
type Cache[K comparable, V any] interface {
	// Get returns the value stored under key if it is present and unexpired.
	// It has no side effects; expired entries are left in place.
	Get(key K) (V, bool)

	// Put stores value under key with expiresAt = now + ttl, unconditionally
	// replacing any previous entry for key.
	Put(key K, value V, ttl time.Duration)
}

// Purger is implemented by caches that can drop expired entries on demand.
type Purger interface {
	PurgeExpired() int
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e entry[V]) validAt(now time.Time) bool {
	return now.Before(e.expiresAt)
}
