// Package cache holds short-lived JSON values (camera settings) and
// publishes hub events to external subscribers.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"

	"github.com/robowatch/hub/internal/config"
)

// Cache is implemented by the redis and in-process backends.
type Cache interface {
	// Get decodes the value under key into dest and reports whether it was present.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Publish(ctx context.Context, channel string, message interface{}) error
	Close() error
}

// New returns a redis cache when enabled and reachable, otherwise the
// in-process cache.
func New(ctx context.Context, cfg config.RedisConfig) Cache {
	if !cfg.Enabled {
		return NewMemoryCache()
	}
	rc, err := NewRedisCache(ctx, cfg, 3)
	if err != nil {
		nuts.L.Warnf("[Cache] Redis unavailable, using in-process cache: %v", err)
		return NewMemoryCache()
	}
	return rc
}

// RedisCache stores values as JSON strings in redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects and pings redis, retrying up to attempts times.
func NewRedisCache(ctx context.Context, cfg config.RedisConfig, attempts int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var lastErr error
	for i := 0; i < attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		lastErr = client.Ping(pingCtx).Err()
		cancel()
		if lastErr == nil {
			nuts.L.Infof("[Cache] Connected to redis at %s:%d", cfg.Host, cfg.Port)
			return &RedisCache{client: client}, nil
		}
		nuts.L.Warnf("[Cache] Redis ping attempt %d/%d failed: %v", i+1, attempts, lastErr)
		select {
		case <-ctx.Done():
			client.Close()
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	client.Close()
	return nil, fmt.Errorf("redis ping failed after %d attempts: %w", attempts, lastErr)
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *RedisCache) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, channel, data).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// MemoryCache keeps encoded values in a go-cache instance. Publish is a
// no-op; in-process subscribers use the stream broker.
type MemoryCache struct {
	items *gocache.Cache
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: gocache.New(5*time.Minute, 10*time.Minute)}
}

func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := c.items.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw.([]byte), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	c.items.Set(key, data, ttl)
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.items.Delete(key)
	return nil
}

func (c *MemoryCache) Publish(ctx context.Context, channel string, message interface{}) error {
	return nil
}

func (c *MemoryCache) Close() error {
	c.items.Flush()
	return nil
}
