package mollie

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	mollietypes "github.com/formbridge/mollie-gateway/internal/core/datamodel/mollie"
)

// MethodsCache stores enabled payment methods per (mode, profile id), so
// repeated label lookups within the TTL do not hit the provider. The
// cache is owned and injected by the caller; a miss is never an error.
type MethodsCache interface {
	Get(ctx context.Context, mode, profileID string) ([]mollietypes.Method, bool)
	Set(ctx context.Context, mode, profileID string, methods []mollietypes.Method) error
}

func methodsCacheKey(mode, profileID string) string {
	return fmt.Sprintf("mollie_methods_%s_%s", mode, profileID)
}

type memoryCacheEntry struct {
	methods   []mollietypes.Method
	expiresAt time.Time
}

// MemoryMethodsCache is a mutex-guarded in-memory implementation for
// tests and single-node runs.
type MemoryMethodsCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]memoryCacheEntry
	now     func() time.Time
}

func NewMemoryMethodsCache(ttl time.Duration) *MemoryMethodsCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryMethodsCache{
		ttl:     ttl,
		entries: make(map[string]memoryCacheEntry),
		now:     time.Now,
	}
}

func (c *MemoryMethodsCache) Get(ctx context.Context, mode, profileID string) ([]mollietypes.Method, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[methodsCacheKey(mode, profileID)]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.methods, true
}

func (c *MemoryMethodsCache) Set(ctx context.Context, mode, profileID string, methods []mollietypes.Method) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[methodsCacheKey(mode, profileID)] = memoryCacheEntry{
		methods:   methods,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// RedisMethodsCache shares the method list across nodes via Redis,
// JSON-encoded with the TTL enforced server side.
type RedisMethodsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisMethodsCache(client *redis.Client, ttl time.Duration) *RedisMethodsCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisMethodsCache{client: client, ttl: ttl}
}

func (c *RedisMethodsCache) Get(ctx context.Context, mode, profileID string) ([]mollietypes.Method, bool) {
	raw, err := c.client.Get(ctx, methodsCacheKey(mode, profileID)).Result()
	if err != nil {
		return nil, false
	}

	var methods []mollietypes.Method
	if err := json.Unmarshal([]byte(raw), &methods); err != nil {
		return nil, false
	}
	return methods, true
}

func (c *RedisMethodsCache) Set(ctx context.Context, mode, profileID string, methods []mollietypes.Method) error {
	raw, err := json.Marshal(methods)
	if err != nil {
		return fmt.Errorf("encode methods: %w", err)
	}
	return c.client.Set(ctx, methodsCacheKey(mode, profileID), raw, c.ttl).Err()
}
