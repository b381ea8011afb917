// Package cache provides the per-run shared computation cache. Rules use it
// to avoid re-parsing the same file; entries live until the run ends and are
// never invalidated mid-run (inputs are immutable for the run's duration).
package cache

import (
	"io"
	"sync"

	"github.com/bloomreach-forge/brXM-Inspection-Tool-sub001/internal/shared/observability"
)

// Cache is a thread-safe memoization table keyed by string. A miss computed
// redundantly by two workers is acceptable (compute is pure); the first
// stored value wins so every reader observes the same artifact.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]interface{}
	enabled bool
}

func New(enabled bool) *Cache {
	return &Cache{entries: make(map[string]interface{}), enabled: enabled}
}

// GetOrCompute returns the cached value for key, computing and storing it on
// a miss. When two computations race, the loser's value is discarded; if it
// holds native resources it is closed immediately.
func (c *Cache) GetOrCompute(key string, compute func() interface{}) interface{} {
	if !c.enabled {
		return compute()
	}

	c.mu.RLock()
	value, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		observability.CacheHits.Inc()
		return value
	}
	observability.CacheMisses.Inc()

	computed := compute()

	c.mu.Lock()
	if existing, ok := c.entries[key]; ok {
		c.mu.Unlock()
		closeValue(computed)
		return existing
	}
	c.entries[key] = computed
	c.mu.Unlock()
	return computed
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close releases cached artifacts holding native resources (tree-sitter
// trees own C memory). Called once when the run's results are sealed.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, value := range c.entries {
		closeValue(value)
		delete(c.entries, key)
	}
}

func closeValue(value interface{}) {
	if closer, ok := value.(io.Closer); ok {
		_ = closer.Close()
	}
}
