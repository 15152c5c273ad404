// Package cache is a small in-process TTL cache fronting the draw-history
// reads. It is an optimization only: callers behave identically on hit and
// miss. Constructed and injected explicitly so tests never share state.
package cache

import (
	"sync"
	"time"
)

type item struct {
	value     interface{}
	expiresAt time.Time
	createdAt time.Time
}

// Cache is a bounded key/value store with per-entry TTL, oldest-entry
// eviction and a periodic sweep of expired entries.
type Cache struct {
	mu      sync.Mutex
	items   map[string]item
	maxSize int
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
}

// New starts the sweep goroutine; call Stop when done with the cache.
func New(maxSize int, ttl, sweepInterval time.Duration) *Cache {
	c := &Cache{
		items:   make(map[string]item),
		maxSize: maxSize,
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go c.sweep(sweepInterval)
	return c
}

// Get returns the value for key when present and unexpired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(it.expiresAt) {
		delete(c.items, key)
		return nil, false
	}
	return it.value, true
}

// Set stores a value, evicting the oldest entry when the cache is full.
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxSize {
		c.evictOldestLocked()
	}

	now := time.Now()
	c.items[key] = item{value: value, expiresAt: now.Add(c.ttl), createdAt: now}
}

// Delete removes one entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len reports the current entry count, expired entries included until the
// next sweep.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stop terminates the sweep goroutine. Safe to call more than once.
func (c *Cache) Stop() {
	c.once.Do(func() { close(c.done) })
}

func (c *Cache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, it := range c.items {
				if now.After(it.expiresAt) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time
	first := true
	for key, it := range c.items {
		if first || it.createdAt.Before(oldestTime) {
			first = false
			oldestKey = key
			oldestTime = it.createdAt
		}
	}
	if !first {
		delete(c.items, oldestKey)
	}
}
