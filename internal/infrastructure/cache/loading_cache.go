// Package cache provides caching infrastructure.
package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// LoadingCache is a bounded, thread-safe cache that fills itself on a miss.
// Concurrent misses on the same key share a single load.
type LoadingCache[V any] struct {
	entries *lru.Cache[string, V]
	group   singleflight.Group

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewLoadingCache creates a cache holding at most size entries.
func NewLoadingCache[V any](size int) (*LoadingCache[V], error) {
	entries, err := lru.New[string, V](size)
	if err != nil {
		return nil, err
	}
	return &LoadingCache[V]{entries: entries}, nil
}

// Get returns the cached value for key, calling load on a miss.
// Failed loads are not cached.
func (c *LoadingCache[V]) Get(key string, load func() (V, error)) (V, error) {
	if v, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)

	v, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.entries.Get(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

// Purge drops every entry.
func (c *LoadingCache[V]) Purge() {
	c.entries.Purge()
}

// CacheStats reports cache usage.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// GetStats returns current cache statistics.
func (c *LoadingCache[V]) GetStats() CacheStats {
	return CacheStats{
		Entries: c.entries.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
