package newsscraping

import (
	"sync"
	"time"
)

type cacheEntry struct {
	digest  HeadlineDigest
	expires time.Time
}

// Cache keeps headline digests per symbol for a fixed TTL.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

func NewCache(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{ttl: ttl, now: now, entries: make(map[string]cacheEntry)}
}

func (c *Cache) Get(symbol string) (HeadlineDigest, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[symbol]
	if !ok {
		return HeadlineDigest{}, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, symbol)
		return HeadlineDigest{}, false
	}
	return e.digest, true
}

func (c *Cache) Set(symbol string, d HeadlineDigest) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[symbol] = cacheEntry{digest: d, expires: c.now().Add(c.ttl)}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
