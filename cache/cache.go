package cache

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"dividendfetcher/models"
)

// entry holds a cached result with its expiry time.
type entry struct {
	info      *models.DividendInfo
	expiresAt time.Time
}

// Cache is an in-memory TTL cache of dividend results keyed by normalized
// (upper-cased) ticker. Reads use lazy expiry; a background sweep bounds
// memory. It is safe for concurrent use.
type Cache struct {
	mu    sync.RWMutex
	store map[string]*entry

	hits   atomic.Int64
	misses atomic.Int64

	// now is the clock, replaceable in tests.
	now  func() time.Time
	done chan struct{}
}

// New creates a Cache and starts a sweep goroutine that evicts expired
// entries every sweepInterval. Call Stop to terminate the sweeper.
func New(sweepInterval time.Duration) *Cache {
	c := &Cache{
		store: make(map[string]*entry),
		now:   time.Now,
		done:  make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweepLoop(sweepInterval)
	}
	return c
}

// Key normalizes a ticker to its cache key.
func Key(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Get returns the cached result for a ticker, or nil when absent or expired.
func (c *Cache) Get(ticker string) *models.DividendInfo {
	key := Key(ticker)

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok || c.now().After(e.expiresAt) {
		c.misses.Add(1)
		return nil
	}
	c.hits.Add(1)
	return e.info
}

// Set inserts or overwrites the entry for a ticker with expiry now + ttl.
func (c *Cache) Set(ticker string, info *models.DividendInfo, ttl time.Duration) {
	key := Key(ticker)
	c.mu.Lock()
	c.store[key] = &entry{
		info:      info,
		expiresAt: c.now().Add(ttl),
	}
	c.mu.Unlock()
}

// Invalidate removes one ticker's entry.
func (c *Cache) Invalidate(ticker string) {
	c.mu.Lock()
	delete(c.store, Key(ticker))
	c.mu.Unlock()
}

// InvalidateAll removes every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.store = make(map[string]*entry)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Stats returns a snapshot of cache size and hit/miss counters.
func (c *Cache) Stats() models.CacheStats {
	return models.CacheStats{
		Entries: c.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// Stop terminates the background sweeper.
func (c *Cache) Stop() {
	close(c.done)
}

// sweepLoop evicts expired entries on a fixed interval.
func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			now := c.now()
			c.mu.Lock()
			for k, e := range c.store {
				if now.After(e.expiresAt) {
					delete(c.store, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
