package cache

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/backoffice/pkg/cache"
)

// MemoryCache implements cache.ResponseCache using in-memory storage.
type MemoryCache struct {
	entries map[string]*cacheEntry
	mu      sync.RWMutex
	now     func() time.Time
	stop    chan struct{}
	once    sync.Once
}

// NewMemoryCache creates a new in-memory cache. Expired entries are swept
// every interval until Close is called.
func NewMemoryCache(interval time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*cacheEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if interval > 0 {
		go c.cleanup(interval)
	}
	return c
}

// Get retrieves a response from cache.
func (c *MemoryCache) Get(_ context.Context, key string) (*cache.CachedResponse, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || c.now().After(entry.expiresAt) {
		return nil, nil
	}
	resp := *entry.resp
	resp.Body = append([]byte(nil), entry.resp.Body...)
	return &resp, nil
}

// Set stores a response with TTL.
func (c *MemoryCache) Set(_ context.Context, key string, resp *cache.CachedResponse, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := *resp
	stored.Body = append([]byte(nil), resp.Body...)
	c.entries[key] = &cacheEntry{resp: &stored, expiresAt: c.now().Add(ttl)}
	return nil
}

// Delete removes a response from cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

// Close stops the cleanup goroutine.
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

// cleanup removes expired entries from cache
func (c *MemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *MemoryCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

type cacheEntry struct {
	resp      *cache.CachedResponse
	expiresAt time.Time
}

var _ cache.ResponseCache = (*MemoryCache)(nil)
