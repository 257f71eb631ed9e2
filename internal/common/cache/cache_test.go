package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalCache(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(time.Minute, time.Minute)

	_, found := c.Get(ctx, "missing")
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "key", map[string]interface{}{"n": 1}, time.Minute))

	value, found := c.Get(ctx, "key")
	require.True(t, found)
	assert.Equal(t, map[string]interface{}{"n": 1}, value)

	require.NoError(t, c.Delete(ctx, "key"))
	_, found = c.Get(ctx, "key")
	assert.False(t, found)
}

func TestLocalCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := NewLocalCache(time.Minute, time.Minute)

	require.NoError(t, c.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, c.Set(ctx, "b", 2, time.Minute))
	require.NoError(t, c.Clear(ctx))

	_, found := c.Get(ctx, "a")
	assert.False(t, found)
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, "test:"), server
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedisCache(t)

	_, found := c.Get(ctx, "missing")
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "key", map[string]interface{}{"name": "A"}, time.Minute))

	value, found := c.Get(ctx, "key")
	require.True(t, found)
	assert.Equal(t, map[string]interface{}{"name": "A"}, value)

	require.NoError(t, c.Delete(ctx, "key"))
	_, found = c.Get(ctx, "key")
	assert.False(t, found)
}

func TestRedisCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	c, server := newRedisCache(t)

	require.NoError(t, c.Set(ctx, "key", "value", time.Second))
	server.FastForward(2 * time.Second)

	_, found := c.Get(ctx, "key")
	assert.False(t, found)
}

func TestRedisCache_ClearRespectsPrefix(t *testing.T) {
	ctx := context.Background()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	mine := NewRedisCache(client, "mine:")
	other := NewRedisCache(client, "other:")

	require.NoError(t, mine.Set(ctx, "a", 1, time.Minute))
	require.NoError(t, other.Set(ctx, "a", 2, time.Minute))
	require.NoError(t, mine.Clear(ctx))

	_, found := mine.Get(ctx, "a")
	assert.False(t, found)

	_, found = other.Get(ctx, "a")
	assert.True(t, found, "clearing one prefix leaves other prefixes alone")
}
