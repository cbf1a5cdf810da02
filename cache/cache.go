// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"sync"
	"time"
)

// DefaultCleanupInterval is how often the janitor sweeps expired items.
const DefaultCleanupInterval = time.Minute

// Item represents a cached value with expiration
type Item[V any] struct {
	Value      V
	Expiration int64
}

func (i Item[V]) expired(now int64) bool {
	return now > i.Expiration
}

// Cache is an in-memory key/value store with per-item expiry.
type Cache[V any] struct {
	items map[string]Item[V]
	mu    sync.RWMutex

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache and starts a janitor that removes expired items every
// cleanupInterval. A non-positive interval disables the janitor.
func New[V any](cleanupInterval time.Duration) *Cache[V] {
	c := &Cache[V]{
		items: make(map[string]Item[V]),
		stop:  make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go c.janitor(cleanupInterval)
	}

	return c
}

func (c *Cache[V]) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.DeleteExpired()
		case <-c.stop:
			return
		}
	}
}

// Close stops the janitor. The cache stays usable.
func (c *Cache[V]) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Set adds an item to the cache with the given expiration duration
func (c *Cache[V]) Set(key string, value V, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = Item[V]{
		Value:      value,
		Expiration: time.Now().Add(duration).UnixNano(),
	}
}

// Get retrieves an item from the cache
// Returns the item and a boolean indicating if the item was found
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V
	item, found := c.items[key]
	if !found || item.expired(time.Now().UnixNano()) {
		return zero, false
	}

	return item.Value, true
}

// Delete removes an item from the cache
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// DeleteExpired removes all expired items from the cache
func (c *Cache[V]) DeleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for k, v := range c.items {
		if v.expired(now) {
			delete(c.items, k)
		}
	}
}

// Clear removes all items from the cache
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]Item[V])
}

// Len reports the number of stored items, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}
