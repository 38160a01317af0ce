// Package cache is a small in-memory TTL cache.
package cache

import (
	"sync"
	"time"
)

// Item is a cached value with its expiry in unix nanoseconds. Zero never expires.
type Item struct {
	Value      interface{}
	Expiration int64
}

// Expired reports whether the item is past its expiry at now.
func (item Item) Expired(now time.Time) bool {
	return item.Expiration > 0 && now.UnixNano() > item.Expiration
}

// Options tunes a Cache
type Options struct {
	DefaultExpiration time.Duration
	CleanupInterval   time.Duration
	// MaxItems bounds the cache; the entry closest to expiry is evicted first. Zero is unbounded.
	MaxItems int
}

// Cache is a thread-safe in-memory cache with expiration
type Cache struct {
	mu        sync.RWMutex
	items     map[string]Item
	opts      Options
	onEvicted func(string, interface{})
	now       func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache and starts the janitor when CleanupInterval is set.
func New(opts Options) *Cache {
	c := &Cache{
		items: make(map[string]Item),
		opts:  opts,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if opts.CleanupInterval > 0 {
		go c.janitor(opts.CleanupInterval)
	}
	return c
}

// Set adds an item with the default expiration
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithExpiration(key, value, c.opts.DefaultExpiration)
}

// SetWithExpiration adds an item that expires after d. d <= 0 never expires.
func (c *Cache) SetWithExpiration(key string, value interface{}, d time.Duration) {
	var exp int64
	if d > 0 {
		exp = c.now().Add(d).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.opts.MaxItems > 0 && len(c.items) >= c.opts.MaxItems {
		c.evictOldest()
	}
	c.items[key] = Item{Value: value, Expiration: exp}
}

// Get retrieves an unexpired item
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found || item.Expired(c.now()) {
		return nil, false
	}
	return item.Value, true
}

// Take retrieves an unexpired item and removes it in the same step.
func (c *Cache) Take(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return nil, false
	}
	delete(c.items, key)
	if item.Expired(c.now()) {
		return nil, false
	}
	return item.Value, true
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, found := c.items[key]; found && c.onEvicted != nil {
		c.onEvicted(key, item.Value)
	}
	delete(c.items, key)
}

// Count returns the number of items, including expired ones not yet collected
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// SetOnEvicted sets the callback run when an item is removed by Delete, expiry or eviction
func (c *Cache) SetOnEvicted(f func(string, interface{})) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvicted = f
}

// Close stops the janitor. The cache stays usable.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, v := range c.items {
		if v.Expired(now) {
			if c.onEvicted != nil {
				c.onEvicted(k, v.Value)
			}
			delete(c.items, k)
		}
	}
}

// evictOldest removes the item closest to expiry, preferring ones that expire at all.
func (c *Cache) evictOldest() {
	var (
		oldestKey string
		oldestExp int64
		found     bool
	)
	for k, v := range c.items {
		if !found || (v.Expiration != 0 && (oldestExp == 0 || v.Expiration < oldestExp)) {
			oldestKey, oldestExp, found = k, v.Expiration, true
		}
	}
	if !found {
		return
	}
	if c.onEvicted != nil {
		c.onEvicted(oldestKey, c.items[oldestKey].Value)
	}
	delete(c.items, oldestKey)
}
