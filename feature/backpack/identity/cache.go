package identity

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// idCache is an in-memory LRU cache from lookup key to internal id, with
// time-based expiration so a row recreated under a new id cannot be served
// stale forever.
type idCache struct {
	lru *expirable.LRU[string, int64]
}

// newIDCache creates the cache. size caps the number of tracked players;
// ttl is the time-to-live per entry.
func newIDCache(size int, ttl time.Duration) *idCache {
	if size <= 0 {
		size = 1024
	}
	return &idCache{
		lru: expirable.NewLRU[string, int64](size, nil, ttl),
	}
}

// Get retrieves a cached internal id. Ids <= 0 are never cached.
func (c *idCache) Get(key string) (int64, bool) {
	return c.lru.Get(key)
}

// Set stores a resolved internal id.
func (c *idCache) Set(key string, id int64) {
	if id <= 0 {
		return
	}
	c.lru.Add(key, id)
}

// Invalidate removes a key from the cache.
func (c *idCache) Invalidate(key string) {
	c.lru.Remove(key)
}
