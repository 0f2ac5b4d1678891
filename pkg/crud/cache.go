package crud

import (
	"slices"
	"strings"
	"sync"
)

// Cache holds the results of one resource's endpoints by cache key. It has
// no TTL and no eviction: entries stay until they are invalidated.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Result
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Result)}
}

// Get returns the result stored at key.
func (c *Cache) Get(key string) (*Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.entries[key]

	return r, ok
}

// Set stores r at key, replacing any previous entry.
func (c *Cache) Set(key string, r *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = r
}

// GetOrSet returns the result already stored at key, or stores and returns
// r. loaded reports which one happened.
func (c *Cache) GetOrSet(key string, r *Result) (actual *Result, loaded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		return existing, true
	}

	c.entries[key] = r

	return r, false
}

// DeleteIf removes key only while it still holds r.
func (c *Cache) DeleteIf(key string, r *Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[key] != r {
		return false
	}

	delete(c.entries, key)

	return true
}

// DeletePrefix removes every key starting with prefix and returns how many
// were removed. This is a plain string prefix match: "get" also removes
// keys of an endpoint called "getAll".
func (c *Cache) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0

	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}

	return removed
}

// Clear removes all entries.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := len(c.entries)
	c.entries = make(map[string]*Result)

	return removed
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Keys returns the stored keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}
