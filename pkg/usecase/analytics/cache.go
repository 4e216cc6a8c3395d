package analytics

import (
	"sync"
	"time"

	"github.com/flashfusion/forge/pkg/model"
)

type cacheEntry struct {
	data      *model.Dashboard
	timestamp time.Time
	ttl       time.Duration
}

func (e *cacheEntry) valid(now time.Time) bool {
	return now.Sub(e.timestamp) <= e.ttl
}

// cache holds copies of built dashboards and hands out copies, so callers
// may modify what they get. Expired entries are purged when read.
type cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

func newCache() *cache {
	return &cache{entries: make(map[string]*cacheEntry)}
}

func cacheKey(subjectID, timeRange string) string {
	return subjectID + ":" + timeRange
}

func (c *cache) get(key string, now time.Time) (*model.Dashboard, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.valid(now) {
		delete(c.entries, key)
		return nil, false
	}
	return e.data.Clone(), true
}

func (c *cache) set(key string, data *model.Dashboard, now time.Time, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &cacheEntry{data: data.Clone(), timestamp: now, ttl: ttl}
}

func (c *cache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

func (c *cache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
