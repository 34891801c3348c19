package analytics

import (
	"sync"
	"time"
)

// ResultCache is a small TTL cache for computed dashboard payloads, keyed by
// the filter parameters that produced them. It is an optimization only:
// correctness never depends on a hit, and entries are recomputed after the TTL
// regardless of underlying writes.
type ResultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value   any
	expires time.Time
}

// NewResultCache builds a cache; a non-positive TTL disables caching entirely.
func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns a live entry for key, if any.
func (c *ResultCache) Get(key string, now time.Time) (any, bool) {
	if c == nil || c.ttl <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || now.After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Put stores a value under key until the TTL lapses.
func (c *ResultCache) Put(key string, value any, now time.Time) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expires: now.Add(c.ttl)}
}
