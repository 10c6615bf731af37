package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is the counter store behind the shared rate limiter.
type Client interface {
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// RedisClient is a wrapper around the Redis client.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*RedisClient, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{client: client}, nil
}

// Increment increments a counter in cache.
func (r *RedisClient) Increment(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

// Expire sets an expiration on a key.
func (r *RedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return r.client.Expire(ctx, key, expiration).Err()
}

// Ping checks the connection.
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// MemoryCache is an in-memory Client for development and tests.
type MemoryCache struct {
	mu    sync.Mutex
	store map[string]cacheItem
	now   func() time.Time
}

type cacheItem struct {
	value      string
	expiration time.Time
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		store: make(map[string]cacheItem),
		now:   time.Now,
	}
}

func (m *MemoryCache) live(key string) (cacheItem, bool) {
	item, exists := m.store[key]
	if !exists {
		return cacheItem{}, false
	}
	if !item.expiration.IsZero() && m.now().After(item.expiration) {
		delete(m.store, key)
		return cacheItem{}, false
	}
	return item, true
}

// Increment increments a counter, creating it without expiry.
func (m *MemoryCache) Increment(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, _ := m.live(key)

	var current int64
	if item.value != "" {
		parsed, err := strconv.ParseInt(item.value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value at %q is not an integer", key)
		}
		current = parsed
	}
	current++

	item.value = strconv.FormatInt(current, 10)
	m.store[key] = item
	return current, nil
}

// Expire sets an expiration on a key in memory cache.
func (m *MemoryCache) Expire(_ context.Context, key string, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, exists := m.live(key)
	if !exists {
		return fmt.Errorf("key not found")
	}

	item.expiration = m.now().Add(expiration)
	m.store[key] = item
	return nil
}

// Ping always succeeds.
func (m *MemoryCache) Ping(context.Context) error {
	return nil
}

// Close clears the store.
func (m *MemoryCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = make(map[string]cacheItem)
	return nil
}
