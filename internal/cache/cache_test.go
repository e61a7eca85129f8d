package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threatlens/dashboard-api/internal/cache"
	"github.com/threatlens/dashboard-api/internal/config"
	"go.uber.org/zap"
)

func TestMemory(t *testing.T) {
	c := cache.NewMemory()
	ctx := context.Background()

	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestMemory_Expiry(t *testing.T) {
	c := cache.NewMemory()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", []byte("v"), 20*time.Millisecond))
	require.NoError(t, c.Set(ctx, "zero", []byte("v"), 0))

	_, err := c.Get(ctx, "zero")
	assert.ErrorIs(t, err, cache.ErrMiss, "non-positive ttl is not stored")

	assert.Eventually(t, func() bool {
		_, err := c.Get(ctx, "short")
		return err == cache.ErrMiss
	}, time.Second, 10*time.Millisecond)
}

func TestNew(t *testing.T) {
	c, err := cache.New(&config.CacheConfig{Driver: "memory"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &cache.Memory{}, c)

	_, err = cache.New(&config.CacheConfig{Driver: "memcached"}, zap.NewNop())
	assert.Error(t, err)

	_, err = cache.New(&config.CacheConfig{Driver: "redis", RedisAddr: "127.0.0.1:1"}, zap.NewNop())
	assert.Error(t, err)
}

func TestHashKey(t *testing.T) {
	a := cache.HashKey("cookie-a")
	assert.Len(t, a, 64)
	assert.Equal(t, a, cache.HashKey("cookie-a"))
	assert.NotEqual(t, a, cache.HashKey("cookie-b"))
}
