package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robowatch/hub/internal/config"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	var got map[string]string
	found, err := c.Get(ctx, "settings:camera", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "settings:camera", map[string]string{"quality": "75"}, time.Minute))
	found, err = c.Get(ctx, "settings:camera", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "75", got["quality"])

	require.NoError(t, c.Delete(ctx, "settings:camera"))
	found, err = c.Get(ctx, "settings:camera", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	var got string
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestNewFallsBackToMemory(t *testing.T) {
	c := New(context.Background(), config.RedisConfig{Enabled: false})
	_, ok := c.(*MemoryCache)
	assert.True(t, ok)
	assert.NoError(t, c.Publish(context.Background(), "robowatch:alerts", map[string]string{"id": "al_1"}))
}
