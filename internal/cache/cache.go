// Package cache is an optional response cache: a thin Redis wrapper that
// degrades to a no-op when REDIS_URL is unset. The API server holds a Cache,
// but no handler reads from or writes to it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache get/sets JSON-encoded values under a TTL. Get returns ok=false on a
// cache miss, never an error — callers always have a live fallback path
// (the store/metrics engine) so a cache failure should never fail a request.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (ok bool, err error)
	Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error
	Close() error
}

// New returns a Redis-backed Cache, or a noopCache when addr is empty.
func New(addr string) Cache {
	if addr == "" {
		return noopCache{}
	}
	return &redisCache{client: redis.NewClient(&redis.Options{Addr: addr})}
}

type redisCache struct {
	client *redis.Client
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

type noopCache struct{}

func (noopCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) { return false, nil }
func (noopCache) Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error {
	return nil
}
func (noopCache) Close() error { return nil }
