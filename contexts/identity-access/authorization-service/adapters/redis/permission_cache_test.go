package redisadapter

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*PermissionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewPermissionCache(client), mr
}

func TestPermissionCacheRoundTripAndInvalidate(t *testing.T) {
	cache, _ := newCache(t)
	ctx := context.Background()
	now := time.Now()

	_, found, err := cache.Get(ctx, "user-1", now)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "user-1", []string{"item.read", "item.write"}, now.Add(time.Minute)))
	permissions, found, err := cache.Get(ctx, "user-1", now)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"item.read", "item.write"}, permissions)

	require.NoError(t, cache.Invalidate(ctx, "user-1"))
	_, found, err = cache.Get(ctx, "user-1", now)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPermissionCacheExpires(t *testing.T) {
	cache, mr := newCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "user-2", nil, time.Now().Add(time.Minute)))
	permissions, found, err := cache.Get(ctx, "user-2", time.Now())
	require.NoError(t, err)
	require.True(t, found)
	assert.Empty(t, permissions)

	mr.FastForward(2 * time.Minute)
	_, found, err = cache.Get(ctx, "user-2", time.Now())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPermissionCacheSkipsExpiredEntries(t *testing.T) {
	cache, mr := newCache(t)
	require.NoError(t, cache.Set(context.Background(), "user-3", []string{"item.read"}, time.Now().Add(-time.Second)))
	assert.False(t, mr.Exists(permissionKeyPrefix+"user-3"))
}
