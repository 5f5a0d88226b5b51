package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"profile-hub/utils/otel"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultCapacity bounds a cache created with a non-positive capacity.
const DefaultCapacity = 10000

// ErrInvalidTTL is returned when an entry is stored with a non-positive TTL, or
// one below the Redis backend's millisecond resolution.
var ErrInvalidTTL = errors.New("cache: ttl must be positive")

// entry is a cached value with its sliding expiration window.
type entry[V any] struct {
	value     V
	ttl       time.Duration
	expiresAt time.Time
}

type options struct {
	sweepInterval time.Duration
	absolute      bool
}

// Option configures an Expiring cache.
type Option func(*options)

// WithSweepInterval sets how often expired entries are removed in the
// background. A non-positive interval disables the sweep; expired entries are
// then only dropped when next accessed. The default is one minute.
func WithSweepInterval(d time.Duration) Option {
	return func(o *options) { o.sweepInterval = d }
}

// WithAbsoluteExpiry makes entries expire ttl after creation regardless of
// how often they are read.
func WithAbsoluteExpiry() Option {
	return func(o *options) { o.absolute = true }
}

// Expiring is a thread-safe in-memory cache with sliding expiration.
// Every hit pushes the entry's expiry out by its TTL. Capacity is bounded;
// when full, the least recently used entry is evicted.
// Implements domain.ExpiringCache.
type Expiring[V any] struct {
	name     string
	mu       sync.Mutex
	items    *lru.Cache[string, *entry[V]]
	group    singleflight.Group
	now      func() time.Time
	absolute bool

	done      chan struct{}
	closeOnce sync.Once
}

// NewExpiring creates a cache holding at most capacity entries.
func NewExpiring[V any](name string, capacity int, opts ...Option) (*Expiring[V], error) {
	o := options{sweepInterval: time.Minute}
	for _, opt := range opts {
		opt(&o)
	}

	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	items, err := lru.New[string, *entry[V]](capacity)
	if err != nil {
		return nil, fmt.Errorf("create %s cache: %w", name, err)
	}

	c := &Expiring[V]{
		name:     name,
		items:    items,
		now:      time.Now,
		absolute: o.absolute,
		done:     make(chan struct{}),
	}
	if o.sweepInterval > 0 {
		go c.cleanupLoop(o.sweepInterval)
	}
	return c, nil
}

// Get returns the live value stored under key and refreshes its expiry.
// The error is always nil; it exists to satisfy domain.ExpiringCache.
func (c *Expiring[V]) Get(ctx context.Context, key string) (V, bool, error) {
	v, ok := c.lookup(key)
	otel.RecordCacheLookup(ctx, c.name, ok)
	return v, ok, nil
}

// GetOrCreate returns the live value under key, or calls create and stores its
// result for ttl. Concurrent callers for the same missing key share a single
// create call, which runs detached from the first caller's cancellation. A
// create error is returned to every waiting caller and nothing is stored.
func (c *Expiring[V]) GetOrCreate(ctx context.Context, key string, ttl time.Duration, create func(context.Context) (V, error)) (V, error) {
	var zero V
	if ttl <= 0 {
		return zero, ErrInvalidTTL
	}

	if v, ok := c.lookup(key); ok {
		otel.RecordCacheLookup(ctx, c.name, true)
		return v, nil
	}
	otel.RecordCacheLookup(ctx, c.name, false)

	res, err, _ := c.group.Do(key, func() (any, error) {
		// A previous flight may have stored the entry after our lookup.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		ctx := context.WithoutCancel(ctx)
		v, err := create(ctx)
		if err != nil {
			return nil, err
		}
		c.store(ctx, key, v, ttl)
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return res.(V), nil
}

// Set stores value under key for ttl, replacing any existing entry.
func (c *Expiring[V]) Set(key string, value V, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	c.store(context.Background(), key, value, ttl)
	return nil
}

// Delete removes key from the cache.
func (c *Expiring[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items.Remove(key)
}

// Len returns the number of stored entries, including expired ones not yet swept.
func (c *Expiring[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.Len()
}

// Close stops the background sweep.
func (c *Expiring[V]) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// lookup returns the live value for key, sliding its expiry forward unless
// the cache uses absolute expiry.
func (c *Expiring[V]) lookup(key string) (V, bool) {
	var zero V

	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.items.Get(key)
	if !found {
		return zero, false
	}
	now := c.now()
	if !now.Before(e.expiresAt) {
		c.items.Remove(key)
		return zero, false
	}
	if !c.absolute {
		e.expiresAt = now.Add(e.ttl)
	}
	return e.value, true
}

func (c *Expiring[V]) store(ctx context.Context, key string, value V, ttl time.Duration) {
	c.mu.Lock()
	evicted := c.items.Add(key, &entry[V]{
		value:     value,
		ttl:       ttl,
		expiresAt: c.now().Add(ttl),
	})
	c.mu.Unlock()

	if evicted {
		otel.RecordCacheEvictions(ctx, c.name, "capacity", 1)
	}
}

// cleanup removes expired entries and returns how many were removed.
func (c *Expiring[V]) cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, key := range c.items.Keys() {
		e, ok := c.items.Peek(key)
		if ok && !now.Before(e.expiresAt) {
			c.items.Remove(key)
			removed++
		}
	}
	return removed
}

// cleanupLoop runs periodic cleanup of expired entries.
func (c *Expiring[V]) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			otel.RecordCacheEvictions(context.Background(), c.name, "expired", c.cleanup())
		}
	}
}
