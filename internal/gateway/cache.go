package gateway

import (
	"sync"

	"streetfood-backend/internal/recommendations/schema"
)

// responseCache maps payload fingerprints to interpreted sets. With a
// positive limit the oldest insert is evicted first; zero means unbounded.
type responseCache struct {
	mu      sync.RWMutex
	limit   int
	entries map[string]schema.RecommendationSet
	order   []string
}

func newResponseCache(limit int) *responseCache {
	if limit < 0 {
		limit = 0
	}
	return &responseCache{
		limit:   limit,
		entries: make(map[string]schema.RecommendationSet),
	}
}

func (c *responseCache) get(key string) (schema.RecommendationSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	set, ok := c.entries[key]
	if !ok {
		return schema.RecommendationSet{}, false
	}
	return set.Clone(), true
}

func (c *responseCache) put(key string, set schema.RecommendationSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = set.Clone()
	for c.limit > 0 && len(c.order) > c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

func (c *responseCache) clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]schema.RecommendationSet)
	c.order = nil
	return n
}

func (c *responseCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
