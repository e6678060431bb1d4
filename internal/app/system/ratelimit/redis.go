package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter is a fixed-window Counter shared across instances.
// The first hit in a window sets the key's expiry.
type RedisCounter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedisCounter allows limit hits per window per key, keyed under prefix.
func NewRedisCounter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisCounter {
	return &RedisCounter{client: client, prefix: prefix, limit: limit, window: window}
}

func (c *RedisCounter) key(k string) string { return c.prefix + ":" + k }

// Hit implements Counter.
func (c *RedisCounter) Hit(ctx context.Context, key string) (bool, error) {
	rk := c.key(key)
	count, err := c.client.Incr(ctx, rk).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := c.client.Expire(ctx, rk, c.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return count <= int64(c.limit), nil
}

// Reset implements Counter.
func (c *RedisCounter) Reset(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("rate limit reset: %w", err)
	}
	return nil
}
