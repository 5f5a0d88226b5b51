package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"profile-hub/internal/domain"
	"profile-hub/utils/otel"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Entries are hashes {value, ttl}; ttl is kept so reads can slide the expiry
// without the caller knowing it.

// getScript returns the value under KEYS[1] and resets its expiry.
var getScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'value', 'ttl')
if not v[1] then
	return false
end
redis.call('PEXPIRE', KEYS[1], v[2])
return v[1]
`)

// getOrInsertScript returns the existing value under KEYS[1] (resetting its
// expiry) or stores ARGV[1] with a ttl of ARGV[2] milliseconds.
var getOrInsertScript = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'value', 'ttl')
if v[1] then
	redis.call('PEXPIRE', KEYS[1], v[2])
	return v[1]
end
redis.call('HSET', KEYS[1], 'value', ARGV[1], 'ttl', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[2])
return ARGV[1]
`)

// RedisCache is a shared sliding-expiration cache for JSON values.
// Implements domain.ProfileCache.
type RedisCache struct {
	client *redis.Client
	name   string
	group  singleflight.Group
}

// NewRedisCache creates a Redis cache from a URL.
func NewRedisCache(name, url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("instrument redis client: %w", err)
	}
	return NewRedisCacheWithClient(name, client), nil
}

// NewRedisCacheWithClient creates a Redis cache over an existing client.
func NewRedisCacheWithClient(name string, client *redis.Client) *RedisCache {
	return &RedisCache{client: client, name: name}
}

// Ping checks connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Get returns the value under key and refreshes its expiry.
func (c *RedisCache) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	raw, err := getScript.Run(ctx, c.client, []string{key}).Text()
	if errors.Is(err, redis.Nil) {
		otel.RecordCacheLookup(ctx, c.name, false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
	}
	otel.RecordCacheLookup(ctx, c.name, true)
	return json.RawMessage(raw), true, nil
}

// GetOrCreate returns the value under key, or stores the result of create.
// Within this process concurrent callers share one create call; across
// processes the first insert wins and every caller gets the stored value.
// Expiry has millisecond resolution, so ttl must be at least a millisecond.
// create and the insert run detached from the first caller's cancellation.
func (c *RedisCache) GetOrCreate(ctx context.Context, key string, ttl time.Duration, create func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	if ttl < time.Millisecond {
		return nil, ErrInvalidTTL
	}

	value, found, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if found {
		return value, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		v, err := create(ctx)
		if err != nil {
			return nil, err
		}
		if !json.Valid(v) {
			return nil, fmt.Errorf("cache %s: value for %q is not valid JSON", c.name, key)
		}
		stored, err := getOrInsertScript.Run(ctx, c.client, []string{key}, string(v), ttl.Milliseconds()).Text()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrCacheUnavailable, err)
		}
		return json.RawMessage(stored), nil
	})
	if err != nil {
		return nil, err
	}
	return res.(json.RawMessage), nil
}
