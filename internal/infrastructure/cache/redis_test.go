package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"profile-hub/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	c, err := NewRedisCache("profile", "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	return c, mr
}

func rawConstant(s string) func(context.Context) (json.RawMessage, error) {
	return func(context.Context) (json.RawMessage, error) { return json.RawMessage(s), nil }
}

func TestRedisCache_GetOrCreateAndGet(t *testing.T) {
	c, _ := setupRedisCache(t)
	ctx := context.Background()

	got, err := c.GetOrCreate(ctx, "userprofile:alice", 600*time.Second, rawConstant(`{"alice":"tok123"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"alice":"tok123"}`, string(got))

	cached, found, err := c.Get(ctx, "userprofile:alice")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"alice":"tok123"}`, string(cached))
}

func TestRedisCache_GetOrCreateKeepsFirstValue(t *testing.T) {
	c, _ := setupRedisCache(t)
	ctx := context.Background()

	_, err := c.GetOrCreate(ctx, "k", time.Minute, rawConstant(`{"v":1}`))
	require.NoError(t, err)

	var called bool
	got, err := c.GetOrCreate(ctx, "k", time.Minute, func(context.Context) (json.RawMessage, error) {
		called = true
		return json.RawMessage(`{"v":2}`), nil
	})
	require.NoError(t, err)
	assert.False(t, called)
	assert.JSONEq(t, `{"v":1}`, string(got))
}

func TestRedisCache_SlidingExpiration(t *testing.T) {
	c, mr := setupRedisCache(t)
	ctx := context.Background()

	_, err := c.GetOrCreate(ctx, "k", 600*time.Second, rawConstant(`{}`))
	require.NoError(t, err)

	mr.FastForward(500 * time.Second)
	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 600*time.Second, mr.TTL("k"))

	mr.FastForward(601 * time.Second)
	_, found, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCache_InsertLosesToExistingEntry(t *testing.T) {
	c, _ := setupRedisCache(t)
	ctx := context.Background()

	// Another process inserts between our miss and our insert.
	got, err := c.GetOrCreate(ctx, "k", time.Minute, func(ctx context.Context) (json.RawMessage, error) {
		other := NewRedisCacheWithClient("other", c.client)
		_, err := other.GetOrCreate(ctx, "k", time.Minute, rawConstant(`{"winner":"other"}`))
		require.NoError(t, err)
		return json.RawMessage(`{"winner":"self"}`), nil
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"winner":"other"}`, string(got))
}

func TestRedisCache_ConcurrentGetOrCreateRunsCreateOnce(t *testing.T) {
	c, _ := setupRedisCache(t)
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	create := func(context.Context) (json.RawMessage, error) {
		calls.Add(1)
		<-release
		return json.RawMessage(`{"v":1}`), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.GetOrCreate(ctx, "shared", time.Minute, create)
			assert.NoError(t, err)
			assert.JSONEq(t, `{"v":1}`, string(got))
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestRedisCache_CreateErrors(t *testing.T) {
	c, mr := setupRedisCache(t)
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := c.GetOrCreate(ctx, "k", time.Minute, func(context.Context) (json.RawMessage, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = c.GetOrCreate(ctx, "k", time.Minute, rawConstant(`{not json`))
	assert.Error(t, err)
	assert.False(t, mr.Exists("k"))

	_, err = c.GetOrCreate(ctx, "k", 0, rawConstant(`{}`))
	assert.ErrorIs(t, err, ErrInvalidTTL)
}

func TestRedisCache_SubMillisecondTTLIsRejected(t *testing.T) {
	c, mr := setupRedisCache(t)

	_, err := c.GetOrCreate(context.Background(), "k", 500*time.Microsecond, rawConstant(`{"a":1}`))

	assert.ErrorIs(t, err, ErrInvalidTTL)
	assert.False(t, mr.Exists("k"))

	got, err := c.GetOrCreate(context.Background(), "k", time.Millisecond, rawConstant(`{"a":1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(got))
	assert.True(t, mr.Exists("k"))
}

func TestRedisCache_CreateOutlivesCallerCancellation(t *testing.T) {
	c, mr := setupRedisCache(t)
	ctx, cancel := context.WithCancel(context.Background())

	got, err := c.GetOrCreate(ctx, "k", time.Minute, func(ctx context.Context) (json.RawMessage, error) {
		cancel()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return json.RawMessage(`{"ok":true}`), nil
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(got))
	assert.True(t, mr.Exists("k"))
}

func TestRedisCache_Unavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	c, err := NewRedisCache("profile", "redis://"+mr.Addr())
	require.NoError(t, err)
	defer c.Close()
	mr.Close()

	_, _, err = c.Get(context.Background(), "k")
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
	assert.ErrorIs(t, c.Ping(context.Background()), domain.ErrCacheUnavailable)
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache("profile", "not-a-url://")
	assert.Error(t, err)
}

func TestRedisCache_ImplementsDomainPort(t *testing.T) {
	var _ domain.ProfileCache = (*RedisCache)(nil)
}
