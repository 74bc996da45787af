package cache

import (
	"context"
	"sync"
)

// InMemoryCounterCache implements CounterCache with a mutex-guarded
// map. Suitable for tests and single-instance deployments without
// Redis.
type InMemoryCounterCache struct {
	mu       sync.Mutex
	counters map[string]int64
}

// NewInMemoryCounterCache creates an empty in-memory counter cache
func NewInMemoryCounterCache() *InMemoryCounterCache {
	return &InMemoryCounterCache{counters: make(map[string]int64)}
}

// Increment adds by to the shop counter when an entry exists
func (c *InMemoryCounterCache) Increment(_ context.Context, shopID string, by int64) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, ok := c.counters[shopID]
	if !ok {
		return 0, false, nil
	}
	current += by
	c.counters[shopID] = current
	return current, true, nil
}

// Prime seeds the counter if absent
func (c *InMemoryCounterCache) Prime(_ context.Context, shopID string, value int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.counters[shopID]; ok {
		return false, nil
	}
	c.counters[shopID] = value
	return true, nil
}

// Current reads the counter value
func (c *InMemoryCounterCache) Current(_ context.Context, shopID string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.counters[shopID]
	return value, ok, nil
}

// Drop removes a shop's entry. Test helper for simulating eviction.
func (c *InMemoryCounterCache) Drop(shopID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counters, shopID)
}

// Ensure InMemoryCounterCache implements CounterCache
var _ CounterCache = (*InMemoryCounterCache)(nil)
