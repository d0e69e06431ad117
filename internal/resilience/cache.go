package resilience

import (
	"sync"
	"time"
)

// entry is a cached value plus its fetch timestamp.
type entry[T any] struct {
	value     T
	fetchedAt time.Time
}

// Cache is a keyed TTL cache for one data class of one source. Entries are
// fresh while now - fetchedAt < TTL; stale entries are kept around so the
// Guard can serve them when the source is down. The cache is owned exclusively
// by its Guard and is safe for concurrent use.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache with the given freshness TTL.
func NewCache[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock sets a custom clock and returns the cache. Used by tests.
func (c *Cache[T]) WithClock(now func() time.Time) *Cache[T] {
	c.now = now
	return c
}

// Get returns the cached value for key if it is still fresh.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		var zero T
		return zero, false
	}
	return e.value, true
}

// GetStale returns the cached value for key regardless of age.
func (c *Cache[T]) GetStale(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Put stores a freshly fetched value. The write is atomic: concurrent readers
// observe either the previous entry or the complete new one.
func (c *Cache[T]) Put(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[T]{value: value, fetchedAt: c.now()}
}

// Len returns the number of cached entries, fresh or stale.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
