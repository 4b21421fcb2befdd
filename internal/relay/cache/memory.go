package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

var _ Cache = (*Memory)(nil)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Cache used by tests and by deployments that
// run without a redis backend.
type Memory struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration

	now func() time.Time
}

// NewMemory creates an in-process cache with the given default TTL.
func NewMemory(defaultTTL time.Duration) *Memory {
	return &Memory{
		entries:    make(map[string]memoryEntry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

func (c *Memory) Get(_ context.Context, _, key string) ([]byte, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (c *Memory) Set(_ context.Context, _, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	c.entries[key] = memoryEntry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

func (c *Memory) RemoveModule(_ context.Context, module string) {
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, module) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}
