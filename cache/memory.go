package cache

import (
	"sync"
	"time"
)

// memoryEntry is one stored conversion. A zero deadline means the entry
// lives as long as the cache does.
type memoryEntry struct {
	value   string
	expires time.Time
}

func (e memoryEntry) live(now time.Time) bool {
	return e.expires.IsZero() || now.Before(e.expires)
}

// MemoryCache keeps conversion results in process memory for the
// duration of a run. Safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

var _ ConversionCache = (*MemoryCache)(nil)

// NewMemoryCache creates a memory cache. A ttl of zero or less disables
// expiry.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl < 0 {
		ttl = 0
	}
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

// Get returns the live value stored under key. A stale entry counts as
// a miss and is dropped on the way out.
func (c *MemoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}
	if !e.live(time.Now()) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", false
	}
	return e.value, true
}

// Set stores value under key, stamping the expiry deadline.
func (c *MemoryCache) Set(key, value string) error {
	e := memoryEntry{value: value}
	if c.ttl > 0 {
		e.expires = time.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, stale ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
}

// Entries snapshots the live entries, keyed as stored. The exporter
// uses this to persist a run's conversions.
func (c *MemoryCache) Entries() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	snapshot := make(map[string]string, len(c.entries))
	for key, e := range c.entries {
		if e.live(now) {
			snapshot[key] = e.value
		}
	}
	return snapshot
}
