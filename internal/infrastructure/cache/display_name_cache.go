package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/backoffice/internal/domain/finance/acl"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const displayNameKeyPrefix = "finance:names:"

func displayNameKey(prefix string, tenantID uuid.UUID, kind acl.DisplayNameKind, id uuid.UUID) string {
	return fmt.Sprintf("%s%s:%s:%s", prefix, tenantID, kind, id)
}

// nameEntry is a cached display name with expiration
type nameEntry struct {
	name      string
	expiresAt time.Time
}

// InMemoryDisplayNameCache implements acl.DisplayNameCache with a map.
// It is used when redis is disabled and in tests.
type InMemoryDisplayNameCache struct {
	mu        sync.RWMutex
	entries   map[string]nameEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryDisplayNameCache creates a new in-memory cache and starts its cleanup loop
func NewInMemoryDisplayNameCache() *InMemoryDisplayNameCache {
	c := &InMemoryDisplayNameCache{
		entries:  make(map[string]nameEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

// GetMany returns the unexpired names of ids
func (c *InMemoryDisplayNameCache) GetMany(_ context.Context, tenantID uuid.UUID, kind acl.DisplayNameKind, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	found := make(map[uuid.UUID]string, len(ids))
	for _, id := range ids {
		e, ok := c.entries[displayNameKey("", tenantID, kind, id)]
		if ok && now.Before(e.expiresAt) {
			found[id] = e.name
		}
	}
	return found, nil
}

// SetMany stores names for ttl
func (c *InMemoryDisplayNameCache) SetMany(_ context.Context, tenantID uuid.UUID, kind acl.DisplayNameKind, names map[uuid.UUID]string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(ttl)
	for id, name := range names {
		c.entries[displayNameKey("", tenantID, kind, id)] = nameEntry{name: name, expiresAt: expiresAt}
	}
	return nil
}

// Size returns the number of entries, expired ones included
func (c *InMemoryDisplayNameCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *InMemoryDisplayNameCache) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopChan:
			return
		}
	}
}

func (c *InMemoryDisplayNameCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// Close stops the cleanup goroutine
func (c *InMemoryDisplayNameCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
	})
	c.wg.Wait()
	return nil
}

// RedisDisplayNameCache implements acl.DisplayNameCache on redis, shared by every replica
type RedisDisplayNameCache struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisDisplayNameCache creates a cache with an existing redis client
func NewRedisDisplayNameCache(client redis.UniversalClient, keyPrefix string) *RedisDisplayNameCache {
	if keyPrefix == "" {
		keyPrefix = displayNameKeyPrefix
	}
	return &RedisDisplayNameCache{client: client, keyPrefix: keyPrefix}
}

// GetMany reads every key with a single MGET
func (c *RedisDisplayNameCache) GetMany(ctx context.Context, tenantID uuid.UUID, kind acl.DisplayNameKind, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	found := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = displayNameKey(c.keyPrefix, tenantID, kind, id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read display names: %w", err)
	}
	for i, v := range values {
		if name, ok := v.(string); ok {
			found[ids[i]] = name
		}
	}
	return found, nil
}

// SetMany writes every name with its ttl in one pipeline
func (c *RedisDisplayNameCache) SetMany(ctx context.Context, tenantID uuid.UUID, kind acl.DisplayNameKind, names map[uuid.UUID]string, ttl time.Duration) error {
	if len(names) == 0 {
		return nil
	}
	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for id, name := range names {
			pipe.Set(ctx, displayNameKey(c.keyPrefix, tenantID, kind, id), name, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write display names: %w", err)
	}
	return nil
}

var (
	_ acl.DisplayNameCache = (*InMemoryDisplayNameCache)(nil)
	_ acl.DisplayNameCache = (*RedisDisplayNameCache)(nil)
)
