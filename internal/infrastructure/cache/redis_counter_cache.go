package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCounterKeyPrefix = "invoice:counter:"

// RedisCounterCache implements CounterCache on Redis. INCRBY gives the
// atomic increment the allocator's hot path relies on; SETNX keeps a
// concurrent cold-path seed from clobbering a value another allocation
// just wrote.
type RedisCounterCache struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisCounterCache connects to Redis and returns a counter cache
func NewRedisCounterCache(cfg RedisConfig) (*RedisCounterCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCounterCache{client: client, keyPrefix: defaultCounterKeyPrefix}, nil
}

// NewRedisCounterCacheWithClient wraps an existing client. Useful for
// tests and for sharing one connection pool across components.
func NewRedisCounterCacheWithClient(client *redis.Client, keyPrefix string) *RedisCounterCache {
	if keyPrefix == "" {
		keyPrefix = defaultCounterKeyPrefix
	}
	return &RedisCounterCache{client: client, keyPrefix: keyPrefix}
}

func (c *RedisCounterCache) key(shopID string) string {
	return c.keyPrefix + shopID
}

// Increment adds by to the shop counter when an entry exists. The
// existence probe and the INCRBY are two commands; a concurrent
// expiry between them only downgrades to the cold path, it cannot
// produce a duplicate value.
func (c *RedisCounterCache) Increment(ctx context.Context, shopID string, by int64) (int64, bool, error) {
	exists, err := c.client.Exists(ctx, c.key(shopID)).Result()
	if err != nil {
		return 0, false, fmt.Errorf("failed to probe counter key: %w", err)
	}
	if exists == 0 {
		return 0, false, nil
	}

	value, err := c.client.IncrBy(ctx, c.key(shopID), by).Result()
	if err != nil {
		return 0, false, fmt.Errorf("failed to increment counter: %w", err)
	}
	return value, true, nil
}

// Prime seeds the counter with SETNX
func (c *RedisCounterCache) Prime(ctx context.Context, shopID string, value int64) (bool, error) {
	set, err := c.client.SetNX(ctx, c.key(shopID), value, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to prime counter: %w", err)
	}
	return set, nil
}

// Current reads the counter value
func (c *RedisCounterCache) Current(ctx context.Context, shopID string) (int64, bool, error) {
	value, err := c.client.Get(ctx, c.key(shopID)).Int64()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read counter: %w", err)
	}
	return value, true, nil
}

// Close releases the underlying Redis connection
func (c *RedisCounterCache) Close() error {
	return c.client.Close()
}

// Ensure RedisCounterCache implements CounterCache
var _ CounterCache = (*RedisCounterCache)(nil)
