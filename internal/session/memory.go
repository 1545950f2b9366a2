package session

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/gradebook-service/internal/auth"
)

type memoryEntry struct {
	identity  auth.Identity
	expiresAt time.Time
}

// MemoryCache is a process-local Cache used in tests and when Redis is not
// configured. Expired entries are dropped lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Put(_ context.Context, token string, identity auth.Identity, ttl time.Duration) {
	if token == "" || ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[token] = memoryEntry{identity: identity, expiresAt: time.Now().Add(ttl)}
}

func (c *MemoryCache) Get(_ context.Context, token string) (auth.Identity, bool) {
	c.mu.RLock()
	entry, ok := c.entries[token]
	c.mu.RUnlock()
	if !ok {
		return auth.Identity{}, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, token)
		c.mu.Unlock()
		return auth.Identity{}, false
	}
	return entry.identity, true
}

func (c *MemoryCache) Drop(_ context.Context, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, token)
}

// Len reports the number of live entries, for tests and stats.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
