package groups

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUCache is the default in-process group cache: bounded size, per-entry
// TTL, invalidated synchronously on group update/delete.
type LRUCache struct {
	cache *lru.LRU[string, *UserGroup]
}

// NewLRUCache builds an LRU cache. A zero ttl disables expiry and leaves
// eviction to size pressure and explicit invalidation.
func NewLRUCache(size int, ttl time.Duration) *LRUCache {
	if size <= 0 {
		size = 256
	}
	return &LRUCache{cache: lru.NewLRU[string, *UserGroup](size, nil, ttl)}
}

// Get implements Cache.
func (c *LRUCache) Get(ctx context.Context, id string) (*UserGroup, bool) {
	g, ok := c.cache.Get(id)
	if !ok {
		return nil, false
	}
	return g.Clone(), true
}

// Set implements Cache.
func (c *LRUCache) Set(ctx context.Context, g *UserGroup) {
	c.cache.Add(g.ID, g.Clone())
}

// Invalidate implements Cache.
func (c *LRUCache) Invalidate(ctx context.Context, id string) {
	c.cache.Remove(id)
}

// RedisCache is a shared group cache for multi-process deployments, so an
// update through one process invalidates reads through its peers. Failures
// degrade to cache misses; Redis being down must never fail an operation.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache wraps an existing Redis client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisCache{client: client, prefix: "docflow:group:", ttl: ttl}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, id string) (*UserGroup, bool) {
	raw, err := c.client.Get(ctx, c.prefix+id).Bytes()
	if err != nil {
		return nil, false
	}
	var g UserGroup
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, false
	}
	return &g, true
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, g *UserGroup) {
	raw, err := json.Marshal(g)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.prefix+g.ID, raw, c.ttl)
}

// Invalidate implements Cache.
func (c *RedisCache) Invalidate(ctx context.Context, id string) {
	c.client.Del(ctx, c.prefix+id)
}
