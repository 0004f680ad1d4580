package insight

import (
	"sync"
	"time"
)

// Cache is a TTL store keyed by opaque cache keys, one entry per key with
// last-write-wins semantics. Entries are only removed by Delete or by
// discarding the cache itself; there is no eviction policy.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value     any
	fetchedAt time.Time
	expiresAt time.Time
}

// NewCache builds an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Get returns the entry for key when it is still fresh at now.
func (c *Cache) Get(key string, now time.Time) (any, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || !now.Before(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key with a freshness window of ttl from now.
func (c *Cache) Set(key string, value any, now time.Time, ttl time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		value:     value,
		fetchedAt: now,
		expiresAt: now.Add(ttl),
	}
}

// Delete removes the entry for key without touching other keys.
func (c *Cache) Delete(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len reports the number of stored entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
