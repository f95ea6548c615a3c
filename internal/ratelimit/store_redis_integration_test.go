//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journey/internal/platform/config"
	platformredis "journey/internal/platform/redis"
	"journey/pkg/testutil/containers"
)

func newRedisStore(t *testing.T) *RedisWindowStore {
	t.Helper()
	rc := containers.NewRedisContainer(t)

	client, err := platformredis.New(config.RedisConfig{
		URL:          rc.URL,
		PoolSize:     4,
		MinIdleConns: 1,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisWindowStore(client)
}

func Test_RedisWindowStore_CountsWithinWindow(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	count, resetAt, err := store.Incr(ctx, "ratelimit:general:203.0.113.9", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.WithinDuration(t, time.Now().Add(time.Minute), resetAt, 5*time.Second)

	count, _, err = store.Incr(ctx, "ratelimit:general:203.0.113.9", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func Test_RedisWindowStore_WindowExpires(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	_, _, err := store.Incr(ctx, "ratelimit:auth:203.0.113.9", time.Second)
	require.NoError(t, err)

	time.Sleep(1500 * time.Millisecond)

	count, _, err := store.Incr(ctx, "ratelimit:auth:203.0.113.9", time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func Test_Limiter_OnRedisStore(t *testing.T) {
	store := newRedisStore(t)
	limiter := NewLimiter(store, time.Minute, 2, 2)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		result, err := limiter.Allow(ctx, "198.51.100.7", "/api/data")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	}
	result, err := limiter.Allow(ctx, "198.51.100.7", "/api/data")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
}
