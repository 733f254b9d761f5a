package assistant

import (
	"context"
	"sync"
	"time"
)

// availabilityCache memoizes Backend.Available answers for a short TTL so a
// flapping health probe is not hammered on every request.
type availabilityCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]availabilityEntry
}

type availabilityEntry struct {
	available bool
	expires   time.Time
}

func newAvailabilityCache(ttl time.Duration) *availabilityCache {
	return &availabilityCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]availabilityEntry),
	}
}

// Check returns the cached availability for the backend, probing it when the
// cache entry is missing or stale.
func (c *availabilityCache) Check(ctx context.Context, b Backend) bool {
	if c == nil || c.ttl <= 0 {
		return b.Available(ctx)
	}

	id := b.ID()

	c.mu.Lock()
	entry, ok := c.entries[id]
	if ok && c.now().Before(entry.expires) {
		c.mu.Unlock()
		return entry.available
	}
	c.mu.Unlock()

	// Probe outside the lock; concurrent probes for the same backend are
	// harmless and the last writer wins.
	available := b.Available(ctx)

	c.mu.Lock()
	c.entries[id] = availabilityEntry{
		available: available,
		expires:   c.now().Add(c.ttl),
	}
	c.mu.Unlock()

	return available
}

// Invalidate drops the cached entry so the next Check probes again. Called
// after a send failure so an unhealthy backend is not trusted for a full TTL.
func (c *availabilityCache) Invalidate(id string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}
