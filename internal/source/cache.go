package source

import (
	"context"
	"errors"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	platformredis "vendorgate/internal/platform/redis"
)

// TypeCache remembers which plugin flavor a hostname runs so fetches that
// follow a connection test in the same session dispatch the right mapping
// strategy without re-probing the source. A miss returns "" with no error.
type TypeCache interface {
	Get(ctx context.Context, hostname string) (string, error)
	Set(ctx context.Context, hostname, sourceType string) error
}

// MemoryTypeCache is the single-process TypeCache.
type MemoryTypeCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryTypeEntry
}

type memoryTypeEntry struct {
	sourceType string
	expiresAt  time.Time
}

func NewMemoryTypeCache(ttl time.Duration) *MemoryTypeCache {
	return &MemoryTypeCache{ttl: ttl, entries: make(map[string]memoryTypeEntry)}
}

func (c *MemoryTypeCache) Get(_ context.Context, hostname string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[hostname]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", nil
	}
	return entry.sourceType, nil
}

func (c *MemoryTypeCache) Set(_ context.Context, hostname, sourceType string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[hostname] = memoryTypeEntry{
		sourceType: sourceType,
		expiresAt:  time.Now().Add(c.ttl),
	}
	return nil
}

// RedisTypeCache shares detections across instances.
type RedisTypeCache struct {
	client *platformredis.Client
	ttl    time.Duration
}

func NewRedisTypeCache(client *platformredis.Client, ttl time.Duration) *RedisTypeCache {
	return &RedisTypeCache{client: client, ttl: ttl}
}

func typeCacheKey(hostname string) string {
	return "source-type:" + hostname
}

func (c *RedisTypeCache) Get(ctx context.Context, hostname string) (string, error) {
	val, err := c.client.Get(ctx, typeCacheKey(hostname)).Result()
	if errors.Is(err, goredis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (c *RedisTypeCache) Set(ctx context.Context, hostname, sourceType string) error {
	return c.client.Set(ctx, typeCacheKey(hostname), sourceType, c.ttl).Err()
}
