package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// Redis caches values in a shared Redis so several server replicas reuse
// each other's views.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

// OpenRedis connects and pings the configured Redis.
func OpenRedis(ctx context.Context, opts Options) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr, DB: opts.RedisDB})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck
		return nil, eris.Wrapf(err, "cache: ping redis %s", opts.RedisAddr)
	}
	return NewRedis(client, opts.KeyPrefix, opts.TTL), nil
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Get retrieves a cached value.
func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		c.misses.Add(1)
		return nil, false, eris.Wrap(err, "cache: redis get")
	}
	c.hits.Add(1)
	return data, true, nil
}

// Set stores a value with the configured TTL.
func (c *Redis) Set(ctx context.Context, key string, data []byte) error {
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return eris.Wrap(err, "cache: redis set")
	}
	return nil
}

// Stats returns hit/miss counters; entry counts are not tracked.
func (c *Redis) Stats() Stats {
	return newStats("redis", 0, 0, c.hits.Load(), c.misses.Load())
}

// Close closes the client.
func (c *Redis) Close() error {
	return c.client.Close()
}
