package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rediscache "github.com/billyagent/dialogue-service/internal/infrastructure/cache/redis"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *rediscache.Cache) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	cache, err := rediscache.NewCache(rediscache.Config{
		Host:     mr.Host(),
		Port:     mr.Port(),
		Password: "",
		DB:       0,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})

	return mr, cache
}

func TestNewCache_Success(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cache, err := rediscache.NewCache(rediscache.Config{
		Host: mr.Host(),
		Port: mr.Port(),
	})

	assert.NoError(t, err)
	assert.NotNil(t, cache)

	cache.Close()
}

func TestNewCache_ConnectionFailure(t *testing.T) {
	_, err := rediscache.NewCache(rediscache.Config{
		Host: "localhost",
		Port: "1", // nothing listening
	})

	assert.Error(t, err)
}

func TestCache_SetAndGet(t *testing.T) {
	_, cache := setupMiniredis(t)
	ctx := context.Background()

	err := cache.Set(ctx, "session:user:u1", []byte(`{"sessionId":"s1"}`), time.Minute)
	require.NoError(t, err)

	result, err := cache.Get(ctx, "session:user:u1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"sessionId":"s1"}`), result)
}

func TestCache_GetMissingReturnsNil(t *testing.T) {
	_, cache := setupMiniredis(t)

	result, err := cache.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCache_TTLExpiry(t *testing.T) {
	mr, cache := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", []byte("value"), time.Second))

	mr.FastForward(2 * time.Second)

	result, err := cache.Get(ctx, "key")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCache_Delete(t *testing.T) {
	_, cache := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", []byte("value"), time.Minute))

	existed, err := cache.Delete(ctx, "key")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = cache.Delete(ctx, "key")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestCache_SweepIsNoOp(t *testing.T) {
	_, cache := setupMiniredis(t)

	evicted, err := cache.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, evicted)
}

func TestCache_Ping(t *testing.T) {
	mr, cache := setupMiniredis(t)

	assert.NoError(t, cache.Ping(context.Background()))

	mr.Close()
	assert.Error(t, cache.Ping(context.Background()))
}
