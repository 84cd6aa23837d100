package chain

import (
	"sync"
	"time"
)

// SnapshotCache holds the most recent snapshot per symbol for a bounded time,
// so a dashboard polling every few seconds does not hammer the provider.
// Callers pass the current time explicitly, which keeps expiry deterministic
// under test.
type SnapshotCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

type cacheEntry struct {
	snapshot *Snapshot
	storedAt time.Time
}

func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the cached snapshot for symbol if one exists and has not aged
// past the TTL.
func (c *SnapshotCache) Get(symbol string, now time.Time) (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[symbol]
	if !ok || now.Sub(entry.storedAt) > c.ttl {
		return nil, false
	}
	return entry.snapshot, true
}

func (c *SnapshotCache) Set(symbol string, snapshot *Snapshot, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[symbol] = cacheEntry{snapshot: snapshot, storedAt: now}
}

// Purge drops entries older than the TTL and returns how many were removed.
func (c *SnapshotCache) Purge(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for symbol, entry := range c.entries {
		if now.Sub(entry.storedAt) > c.ttl {
			delete(c.entries, symbol)
			removed++
		}
	}
	return removed
}
