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

func newTestCache(t *testing.T, ttl time.Duration) (*FieldCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewFieldCache(client, ttl), mr
}

func TestFieldCacheStoresResolvedNames(t *testing.T) {
	cache, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	_, found, err := cache.GetField(ctx, "uri")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.SetField(ctx, "uri", "dc.rights.uri"))
	name, found, err := cache.GetField(ctx, "uri")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "dc.rights.uri", name)

	stored, err := mr.Get(fieldKey("uri"))
	require.NoError(t, err)
	assert.Equal(t, "dc.rights.uri", stored)

	mr.FastForward(2 * time.Hour)
	_, found, err = cache.GetField(ctx, "uri")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFieldCacheEntriesExpireIndependently(t *testing.T) {
	cache, mr := newTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.SetField(ctx, "uri", "dc.rights.uri"))
	mr.FastForward(40 * time.Minute)
	require.NoError(t, cache.SetField(ctx, "name", "dc.rights"))
	mr.FastForward(30 * time.Minute)

	_, found, err := cache.GetField(ctx, "uri")
	require.NoError(t, err)
	assert.False(t, found)

	name, found, err := cache.GetField(ctx, "name")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "dc.rights", name)
}

func TestFieldCacheIgnoresEmptyValues(t *testing.T) {
	cache, mr := newTestCache(t, 0)

	require.NoError(t, cache.SetField(context.Background(), "name", ""))
	assert.False(t, mr.Exists(fieldKey("name")))
}
