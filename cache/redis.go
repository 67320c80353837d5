package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "hanconv:"

// RedisCache shares conversion results across runs and machines, so a
// book series converted in several sessions reuses one phrase memory.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

var _ ConversionCache = (*RedisCache)(nil)

// RedisConfig configures the Redis-backed cache.
type RedisConfig struct {
	URL       string        // connection URL, e.g. "redis://localhost:6379/0"
	TTL       time.Duration // zero keeps entries until Redis evicts them
	KeyPrefix string        // default "hanconv:"
}

// NewRedisCache connects to Redis and verifies the connection before
// returning.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisCacheFromClient(client, cfg.TTL, cfg.KeyPrefix), nil
}

// NewRedisCacheFromClient wraps an existing client; tests use it to
// plug in a mock.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration, prefix string) *RedisCache {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisCache{client: client, ttl: ttl, prefix: prefix}
}

func (c *RedisCache) key(k string) string { return c.prefix + k }

// Get looks up key. Backend trouble degrades to a miss: a broken cache
// must never break a conversion.
func (c *RedisCache) Get(key string) (string, bool) {
	val, err := c.client.Get(context.Background(), c.key(key)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Set stores value under key with the configured TTL.
func (c *RedisCache) Set(key, value string) error {
	return c.client.Set(context.Background(), c.key(key), value, c.ttl).Err()
}

// Close releases the connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
