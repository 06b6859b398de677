// Package cache provides the TTL cache shared by the domain services.
//
// Every service keeps one TTLCache per resource kind, keyed by user or
// resource id. Concurrent reads of the same key collapse into a single
// backend fetch, and a failed fetch never leaves a poisoned entry behind.
package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads the value for a key from the backend.
type FetchFunc func(ctx context.Context) (interface{}, error)

type entry struct {
	data      interface{}
	fetchedAt time.Time
}

// TTLCache is a process-local cache with a fixed time-to-live per entry and
// request de-duplication for concurrent misses on the same key.
type TTLCache struct {
	name    string // For log prefixes, e.g. "ResultsCache"
	ttl     time.Duration
	now     func() time.Time // Injectable clock for tests
	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group
}

// New creates a TTLCache. A non-positive ttl disables caching entirely
// (every Get fetches), which keeps call sites uniform.
func New(name string, ttl time.Duration) *TTLCache {
	return &TTLCache{
		name:    name,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// WithClock overrides the cache's clock. Tests use it to control TTL expiry.
func (c *TTLCache) WithClock(now func() time.Time) *TTLCache {
	c.now = now
	return c
}

// Get returns the cached value for key if its entry is fresher than the TTL,
// otherwise fetches it. Concurrent Get calls for the same key while a fetch
// is in flight share that single fetch. On fetch failure no entry is stored,
// so the next Get retries cleanly.
func (c *TTLCache) Get(ctx context.Context, key string, fetch FetchFunc) (interface{}, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight: another caller may have just stored it.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		data, err := fetch(ctx)
		if err != nil {
			log.Printf("WARN: [%s] Fetch for key '%s' failed, entry not cached: %v", c.name, key, err)
			return nil, err
		}
		if c.ttl > 0 {
			c.mu.Lock()
			c.entries[key] = entry{data: data, fetchedAt: c.now()}
			c.mu.Unlock()
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Printf("INFO: [%s] Fetch for key '%s' de-duplicated against an in-flight request.", c.name, key)
	}
	return v, nil
}

// Invalidate deletes the entry for key unconditionally. Mutating operations
// call it so the next read observes fresh backend state.
func (c *TTLCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		log.Printf("INFO: [%s] Invalidated entry for key '%s'.", c.name, key)
	}
}

// Set stores a value directly with a fresh timestamp. A no-op when the
// cache is disabled.
func (c *TTLCache) Set(key string, data interface{}) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{data: data, fetchedAt: c.now()}
}

// Peek reports whether a live (even if stale) entry exists for key, without
// touching the backend. Tests use it to assert non-poisoning.
func (c *TTLCache) Peek(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.data, true
}

// Len returns the number of live entries.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *TTLCache) lookup(key string) (interface{}, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return e.data, true
}
