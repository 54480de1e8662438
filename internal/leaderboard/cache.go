package leaderboard

import (
	"sync"
	"time"
)

// cacheEntry holds one cached response with its expiry
type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache is a small in-memory TTL cache for leaderboard responses.
// Leaderboards tolerate staleness; reads vastly outnumber submissions.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration

	hits   int64
	misses int64
}

// NewCache creates a cache with the given TTL
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// Get returns a cached value if present and fresh
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		c.misses++
		if ok {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()

	return entry.value, true
}

// Set stores a value under the key
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Invalidate drops all cached responses. Called after submissions so
// rankings never lag a write by more than the read path's TTL.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Stats returns hit/miss counters
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"hits":        c.hits,
		"misses":      c.misses,
		"entries":     len(c.entries),
		"ttl_seconds": c.ttl.Seconds(),
	}
}
