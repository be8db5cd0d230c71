package cache

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Slot is a cache holding at most one value, for site-wide data shared by
// every caller. It is a MemoryCache with a single implicit key.
type Slot[V any] struct {
	inner *MemoryCache[struct{}, V]
}

func NewSlot[V any](clock clockwork.Clock) *Slot[V] {
	return &Slot[V]{
		inner: NewMemoryCache[struct{}, V](clock),
	}
}

func (s *Slot[V]) Get() (V, bool) {
	return s.inner.Get(struct{}{})
}

func (s *Slot[V]) Put(value V, ttl time.Duration) {
	s.inner.Put(struct{}{}, value, ttl)
}

func (s *Slot[V]) PurgeExpired() int {
	return s.inner.PurgeExpired()
}

func (s *Slot[V]) Clear() {
	s.inner.Clear()
}

// Size is 1 while the slot holds a value, expired or not, and 0 otherwise.
func (s *Slot[V]) Size() int {
	return s.inner.Size()
}
