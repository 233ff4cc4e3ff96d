package cache

import (
	"sync"
	"time"
)

// Item represents a cached item with expiration
type Item struct {
	Value      interface{}
	Expiration int64
	lastAccess int64
}

// Expired checks if the cache item has expired
func (item Item) Expired() bool {
	if item.Expiration == 0 {
		return false
	}
	return time.Now().UnixNano() > item.Expiration
}

// Options configures a Cache.
type Options struct {
	// DefaultExpiration is the TTL applied by Set. Zero means no expiry.
	DefaultExpiration time.Duration
	// CleanupInterval controls how often expired items are purged. Zero disables the janitor.
	CleanupInterval time.Duration
	// MaxItems bounds the cache size; the least recently used item is evicted first.
	MaxItems int
	// Sliding refreshes an item's expiration on every Get.
	Sliding bool
}

// Cache is a thread-safe in-memory cache with expiration
type Cache struct {
	items             map[string]Item
	mu                sync.RWMutex
	defaultExpiration time.Duration
	cleanupInterval   time.Duration
	maxItems          int
	sliding           bool
	onEvicted         func(string, interface{})
	stop              chan struct{}
	stopOnce          sync.Once
}

// New creates a cache and starts its janitor if a cleanup interval is set.
func New(opts Options) *Cache {
	cache := &Cache{
		items:             make(map[string]Item),
		defaultExpiration: opts.DefaultExpiration,
		cleanupInterval:   opts.CleanupInterval,
		maxItems:          opts.MaxItems,
		sliding:           opts.Sliding,
		stop:              make(chan struct{}),
	}

	if cache.cleanupInterval > 0 {
		go cache.startCleanupTimer()
	}

	return cache
}

// Set adds an item to the cache with the default expiration
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithExpiration(key, value, c.defaultExpiration)
}

// SetWithExpiration adds an item to the cache with a specific expiration time
func (c *Cache) SetWithExpiration(key string, value interface{}, d time.Duration) {
	var exp int64
	now := time.Now()
	if d > 0 {
		exp = now.Add(d).UnixNano()
	}

	c.mu.Lock()
	var evictedKey string
	var evictedValue interface{}
	if _, exists := c.items[key]; !exists && c.maxItems > 0 && len(c.items) >= c.maxItems {
		evictedKey, evictedValue = c.evictOldest()
	}

	c.items[key] = Item{
		Value:      value,
		Expiration: exp,
		lastAccess: now.UnixNano(),
	}
	onEvicted := c.onEvicted
	c.mu.Unlock()

	if evictedKey != "" && onEvicted != nil {
		onEvicted(evictedKey, evictedValue)
	}
}

// Get retrieves an item from the cache
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found || item.Expired() {
		return nil, false
	}

	now := time.Now()
	item.lastAccess = now.UnixNano()
	if c.sliding && item.Expiration > 0 && c.defaultExpiration > 0 {
		item.Expiration = now.Add(c.defaultExpiration).UnixNano()
	}
	c.items[key] = item

	return item.Value, true
}

// Delete removes an item from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	item, found := c.items[key]
	delete(c.items, key)
	onEvicted := c.onEvicted
	c.mu.Unlock()

	if found && onEvicted != nil {
		onEvicted(key, item.Value)
	}
}

// Count returns the number of items in the cache (including expired items)
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// SetOnEvicted sets the callback to be called when an item is evicted.
// The callback runs without the cache lock held.
func (c *Cache) SetOnEvicted(f func(string, interface{})) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.onEvicted = f
}

// Close stops the janitor goroutine.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// startCleanupTimer starts the cleanup ticker
func (c *Cache) startCleanupTimer() {
	ticker := time.NewTicker(c.cleanupInterval)
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

// DeleteExpired deletes all expired items from the cache
func (c *Cache) DeleteExpired() {
	type kv struct {
		key   string
		value interface{}
	}
	var evicted []kv

	c.mu.Lock()
	now := time.Now().UnixNano()
	for k, v := range c.items {
		if v.Expiration > 0 && now > v.Expiration {
			evicted = append(evicted, kv{k, v.Value})
			delete(c.items, k)
		}
	}
	onEvicted := c.onEvicted
	c.mu.Unlock()

	if onEvicted != nil {
		for _, e := range evicted {
			onEvicted(e.key, e.value)
		}
	}
}

// evictOldest removes the least recently used item. Caller holds the lock.
func (c *Cache) evictOldest() (string, interface{}) {
	var oldestKey string
	var oldestAccess int64

	for k, v := range c.items {
		if oldestKey == "" || v.lastAccess < oldestAccess {
			oldestKey = k
			oldestAccess = v.lastAccess
		}
	}

	if oldestKey == "" {
		return "", nil
	}
	value := c.items[oldestKey].Value
	delete(c.items, oldestKey)
	return oldestKey, value
}
