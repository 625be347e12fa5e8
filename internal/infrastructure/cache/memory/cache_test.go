package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memorycache "github.com/billyagent/dialogue-service/internal/infrastructure/cache/memory"
)

func TestCache_SetAndGet(t *testing.T) {
	c := memorycache.NewCache()
	ctx := context.Background()

	err := c.Set(ctx, "key", []byte("value"), time.Minute)
	require.NoError(t, err)

	result, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), result)
}

func TestCache_GetMissingReturnsNil(t *testing.T) {
	c := memorycache.NewCache()

	result, err := c.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestCache_ExpiredEntryIsAbsent(t *testing.T) {
	c := memorycache.NewCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	result, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 0, c.Len())
}

func TestCache_Delete(t *testing.T) {
	c := memorycache.NewCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))

	existed, err := c.Delete(ctx, "key")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = c.Delete(ctx, "key")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestCache_Sweep(t *testing.T) {
	c := memorycache.NewCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "live", []byte("a"), time.Minute))
	require.NoError(t, c.Set(ctx, "stale-1", []byte("b"), -time.Second))
	require.NoError(t, c.Set(ctx, "stale-2", []byte("c"), -time.Second))

	evicted, err := c.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, evicted)
	assert.Equal(t, 1, c.Len())
}

func TestCache_Close(t *testing.T) {
	c := memorycache.NewCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))
	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.Close())

	assert.Equal(t, 0, c.Len())
	assert.Error(t, c.Ping(ctx))
}
