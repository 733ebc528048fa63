package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Close()

	ctx := context.Background()

	t.Run("records new key", func(t *testing.T) {
		isNew, err := store.MarkProcessed(ctx, "checkout:1", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)

		done, err := store.IsProcessed(ctx, "checkout:1")
		require.NoError(t, err)
		assert.True(t, done)
	})

	t.Run("rejects repeated key", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "checkout:2", time.Hour)
		require.NoError(t, err)

		isNew, err := store.MarkProcessed(ctx, "checkout:2", time.Hour)
		require.NoError(t, err)
		assert.False(t, isNew)
	})

	t.Run("accepts key again after expiry", func(t *testing.T) {
		_, err := store.MarkProcessed(ctx, "checkout:3", 10*time.Millisecond)
		require.NoError(t, err)
		time.Sleep(20 * time.Millisecond)

		done, err := store.IsProcessed(ctx, "checkout:3")
		require.NoError(t, err)
		assert.False(t, done)

		isNew, err := store.MarkProcessed(ctx, "checkout:3", time.Hour)
		require.NoError(t, err)
		assert.True(t, isNew)
	})
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Close()
	ctx := context.Background()

	_, err := store.MarkProcessed(ctx, "webhook:evt_1", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "webhook:evt_1"))

	isNew, err := store.MarkProcessed(ctx, "webhook:evt_1", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew, "a released key can be claimed again")

	assert.NoError(t, store.Release(ctx, "never-seen"))
}

func TestInMemoryIdempotencyStore_ConcurrentMark(t *testing.T) {
	store := NewInMemoryIdempotencyStore(time.Minute)
	defer store.Close()

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.MarkProcessed(context.Background(), "evt_1", time.Hour)
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins)
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	store := NewInMemoryIdempotencyStore(5 * time.Millisecond)
	defer store.Close()

	_, err := store.MarkProcessed(context.Background(), "short", time.Millisecond)
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
