// Package loadonce provides an idempotent, concurrency-safe lazy cache keyed
// by string. Concurrent first-use calls for the same key collapse into a
// single underlying load via singleflight; the result is then cached for
// read-mostly reuse, matching this codebase's read-heavy calibration tables.
package loadonce

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache[T] lazily loads and caches values of type T by key. Zero value is
// ready to use.
type Cache[T any] struct {
	group singleflight.Group
	mu    sync.RWMutex
	vals  map[string]T
}

// Get returns the cached value for key, loading it via fn on first use.
// Concurrent Get calls for the same key share one fn invocation.
func (c *Cache[T]) Get(key string, fn func() (T, error)) (T, error) {
	c.mu.RLock()
	if v, ok := c.vals[key]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check under the singleflight call in case another goroutine
		// populated the cache between the RUnlock above and Do acquiring it.
		c.mu.RLock()
		if v, ok := c.vals[key]; ok {
			c.mu.RUnlock()
			return v, nil
		}
		c.mu.RUnlock()

		loaded, err := fn()
		if err != nil {
			return loaded, err
		}
		c.mu.Lock()
		if c.vals == nil {
			c.vals = make(map[string]T)
		}
		c.vals[key] = loaded
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Clear drops all cached values. Mainly useful for tests.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals = nil
}
