package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// MemoryCache is an in-memory implementation of the Cache interface.
// It uses a map for storage and provides thread-safe operations via RWMutex.
// Each Put replaces the whole entry under the write lock, so readers never
// observe a value paired with another write's expiry.
//
// Expiry is lazy. Expired entries stay in memory until the same key is Put
// again or PurgeExpired runs; the key space is otherwise unbounded.
type MemoryCache[K comparable, V any] struct {
	mu    sync.RWMutex
	clock clockwork.Clock
	data  map[K]entry[V]
}

// NewMemoryCache creates an empty cache reading time from clock.
func NewMemoryCache[K comparable, V any](clock clockwork.Clock) *MemoryCache[K, V] {
	return &MemoryCache[K, V]{
		clock: clock,
		data:  make(map[K]entry[V]),
	}
}

func (c *MemoryCache[K, V]) Get(key K) (V, bool) {
	now := c.clock.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.data[key]
	if !exists || !e.validAt(now) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *MemoryCache[K, V]) Put(key K, value V, ttl time.Duration) {
	expiresAt := c.clock.Now().Add(ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = entry[V]{
		value:     value,
		expiresAt: expiresAt,
	}
}

// PurgeExpired removes every expired entry and returns how many were removed.
func (c *MemoryCache[K, V]) PurgeExpired() int {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.data {
		if !e.validAt(now) {
			delete(c.data, key)
			removed++
		}
	}
	return removed
}

// Clear removes all entries from the cache.
func (c *MemoryCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[K]entry[V])
}

// Size returns the number of stored entries, expired ones included.
func (c *MemoryCache[K, V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.data)
}
