package di

import (
	"context"
	"sync"
	"time"

	"github.com/engmung/portfolio-Nat/application/ports"
)

var _ ports.Cache = (*InMemoryCache)(nil)

// InMemoryCache provides a simple in-memory cache implementation. Query results
// are keyed by graph generation, so old entries simply age out.
type InMemoryCache struct {
	mu       sync.RWMutex
	items    map[string]cacheItem
	metrics  ports.Metrics
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type cacheItem struct {
	value     interface{}
	expiresAt time.Time
}

// NewInMemoryCache creates a cache and starts its cleanup loop. Call Close to stop it.
func NewInMemoryCache(metrics ports.Metrics) *InMemoryCache {
	if metrics == nil {
		metrics = ports.NoopMetrics{}
	}
	cache := &InMemoryCache{
		items:   make(map[string]cacheItem),
		metrics: metrics,
		now:     time.Now,
		stop:    make(chan struct{}),
	}

	go cache.cleanupExpired(time.Minute)

	return cache
}

// Get retrieves a value from cache
func (c *InMemoryCache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists || c.now().After(item.expiresAt) {
		c.metrics.Increment("cache_misses")
		return nil, false
	}

	c.metrics.Increment("cache_hits")
	return item.value, true
}

// Set stores a value in cache with TTL in seconds. A non-positive TTL stores nothing.
func (c *InMemoryCache) Set(ctx context.Context, key string, value interface{}, ttl int) error {
	if ttl <= 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = cacheItem{
		value:     value,
		expiresAt: c.now().Add(time.Duration(ttl) * time.Second),
	}

	return nil
}

// Delete removes a value from cache
func (c *InMemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
	return nil
}

// Clear removes all values from cache
func (c *InMemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]cacheItem)
	return nil
}

// Len reports how many entries are held, expired or not
func (c *InMemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the cleanup loop
func (c *InMemoryCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// cleanupExpired periodically removes expired items
func (c *InMemoryCache) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evict()
		}
	}
}

func (c *InMemoryCache) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
		}
	}
}
