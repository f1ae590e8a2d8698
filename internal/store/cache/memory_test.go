package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCacheSetGet(t *testing.T) {
	c := newMemoryCache(time.Minute)
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "k", "v", time.Minute))

	var got string
	assert.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "v", got)
}

func TestMemoryCacheExpiredKeyMisses(t *testing.T) {
	c := newMemoryCache(time.Minute)
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "k", "v", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	var got string
	assert.Error(t, c.Get(ctx, "k", &got))
}

func TestMemoryCacheJanitorEvictsExpiredEntries(t *testing.T) {
	c := newMemoryCache(10 * time.Millisecond)
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "short", "v", time.Millisecond))
	assert.NoError(t, c.Set(ctx, "long", "v", time.Minute))

	assert.Eventually(t, func() bool {
		c.mu.RLock()
		defer c.mu.RUnlock()
		_, shortAlive := c.items["short"]
		_, longAlive := c.items["long"]
		return !shortAlive && longAlive
	}, time.Second, 10*time.Millisecond)
}
