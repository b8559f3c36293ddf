package match

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/golang/groupcache/lru"

	"github.com/couchcryptid/station-match-etl/internal/domain"
)

// CachedFinder wraps a Finder with an in-memory LRU cache keyed by the query
// coordinates. The direct and three-way passes query the same hub stations,
// so the second pass is answered from the cache.
type CachedFinder struct {
	inner  Finder
	cache  *lruCache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedFinder creates a cache decorator around a finder.
func NewCachedFinder(inner Finder, maxEntries int) *CachedFinder {
	return &CachedFinder{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

// Nearest returns a cached neighbor for the query's coordinates, or asks the
// inner finder. Errors are not cached.
func (c *CachedFinder) Nearest(query domain.Station) (domain.Neighbor, error) {
	if !query.HasCoordinates() {
		return c.inner.Nearest(query)
	}

	key := fmt.Sprintf("%v,%v", query.Lat, query.Lon)
	if nb, ok := c.cache.get(key); ok {
		c.hits.Add(1)
		nb.Query = query
		return nb, nil
	}
	c.misses.Add(1)

	nb, err := c.inner.Nearest(query)
	if err != nil {
		return nb, err
	}
	c.cache.put(key, nb)
	return nb, nil
}

// Stats returns the number of cache hits and misses so far.
func (c *CachedFinder) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// lruCache guards a groupcache LRU, which is not safe for concurrent use.
type lruCache struct {
	mu      sync.Mutex
	entries *lru.Cache
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{entries: lru.New(max(maxEntries, 1))}
}

func (c *lruCache) get(key string) (domain.Neighbor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries.Get(key)
	if !ok {
		return domain.Neighbor{}, false
	}
	return v.(domain.Neighbor), true
}

func (c *lruCache) put(key string, nb domain.Neighbor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(key, nb)
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
