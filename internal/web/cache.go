package web

import (
	"sync"
	"time"
)

// CacheTTL bounds how long a fetched page stays valid.
const CacheTTL = 300 * time.Second

type cacheEntry struct {
	content  string
	storedAt time.Time
}

// Cache memoizes formatted fetch results per URL. Entries expire after
// CacheTTL and are evicted lazily on lookup; there is no background sweep
// and no capacity bound.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCache constructs an empty cache using the wall clock.
func NewCache() *Cache {
	return &Cache{entries: map[string]cacheEntry{}, now: time.Now}
}

// Get returns the cached content for url if present and unexpired.
// An expired entry is removed as a side effect of the lookup.
func (c *Cache) Get(url string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[url]
	if !ok {
		return "", false
	}
	if c.now().Sub(entry.storedAt) >= CacheTTL {
		delete(c.entries, url)
		return "", false
	}
	return entry.content, true
}

// Put stores content for url, overwriting any prior entry.
func (c *Cache) Put(url string, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = cacheEntry{content: content, storedAt: c.now()}
}

// Clear removes every entry and returns how many were removed.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := len(c.entries)
	c.entries = map[string]cacheEntry{}
	return count
}
