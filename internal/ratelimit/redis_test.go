package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-optimizer/internal/redis"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redis.NewClient(&redis.Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, "rl:test:"), mr
}

func TestRedisStore_RecordAttempt(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("admits attempts up to the limit", func(t *testing.T) {
		store, mr := setupRedisStore(t)
		mr.SetTime(base)

		for i := 1; i <= 3; i++ {
			entry, allowed, err := store.RecordAttempt(ctx, "alice", 3, time.Minute)
			require.NoError(t, err)
			assert.True(t, allowed, "attempt %d should be admitted", i)
			assert.Equal(t, i, entry.Count)
		}

		entry, allowed, err := store.RecordAttempt(ctx, "alice", 3, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, 3, entry.Count)
	})

	t.Run("rejected attempts do not consume budget", func(t *testing.T) {
		store, mr := setupRedisStore(t)
		mr.SetTime(base)

		for i := 0; i < 10; i++ {
			_, _, err := store.RecordAttempt(ctx, "bob", 2, time.Minute)
			require.NoError(t, err)
		}

		entry, allowed, err := store.RecordAttempt(ctx, "bob", 2, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, 2, entry.Count)
	})

	t.Run("window rollover admits again", func(t *testing.T) {
		store, mr := setupRedisStore(t)
		mr.SetTime(base)

		_, allowed, err := store.RecordAttempt(ctx, "carol", 1, time.Minute)
		require.NoError(t, err)
		require.True(t, allowed)

		_, allowed, err = store.RecordAttempt(ctx, "carol", 1, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)

		mr.SetTime(base.Add(time.Minute + time.Second))
		entry, allowed, err := store.RecordAttempt(ctx, "carol", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 1, entry.Count)
	})

	t.Run("window starts at the oldest recorded event", func(t *testing.T) {
		store, mr := setupRedisStore(t)
		mr.SetTime(base)

		entry, _, err := store.RecordAttempt(ctx, "dave", 5, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, base.UnixMilli(), entry.WindowStart.UnixMilli())

		// Later attempts keep the first event as the window start, so the
		// reset instant (WindowStart + window) tells callers the real wait.
		mr.SetTime(base.Add(30 * time.Second))
		entry, _, err = store.RecordAttempt(ctx, "dave", 5, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, base.UnixMilli(), entry.WindowStart.UnixMilli())
	})

	t.Run("denied attempts report when budget frees up", func(t *testing.T) {
		store, mr := setupRedisStore(t)
		mr.SetTime(base)

		_, allowed, err := store.RecordAttempt(ctx, "frank", 1, time.Minute)
		require.NoError(t, err)
		require.True(t, allowed)

		mr.SetTime(base.Add(45 * time.Second))
		entry, allowed, err := store.RecordAttempt(ctx, "frank", 1, time.Minute)
		require.NoError(t, err)
		require.False(t, allowed)

		// The budget frees up when the first event leaves the window,
		// 15 seconds from now rather than a full minute.
		reset := entry.WindowStart.Add(time.Minute)
		assert.Equal(t, base.Add(time.Minute).UnixMilli(), reset.UnixMilli())
	})

	t.Run("store errors are reported as unavailable", func(t *testing.T) {
		store, mr := setupRedisStore(t)
		mr.Close()

		_, _, err := store.RecordAttempt(ctx, "erin", 5, time.Minute)
		assert.Error(t, err)
	})
}

func TestRedisStore_GetAndCountSince(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	store, mr := setupRedisStore(t)
	mr.SetTime(base)

	entry, err := store.Get(ctx, "alice", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, entry)

	_, _, err = store.RecordAttempt(ctx, "alice", 10, time.Hour)
	require.NoError(t, err)

	mr.SetTime(base.Add(30 * time.Second))
	_, _, err = store.RecordAttempt(ctx, "alice", 10, time.Hour)
	require.NoError(t, err)

	entry, err = store.Get(ctx, "alice", time.Hour)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 2, entry.Count)

	count, err := store.CountSince(ctx, "alice", base.Add(10*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRedisStore_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	store, mr := setupRedisStore(t)

	mr.SetTime(base)
	for i := 0; i < 3; i++ {
		_, _, err := store.RecordAttempt(ctx, "old", 10, 24*time.Hour)
		require.NoError(t, err)
	}

	mr.SetTime(base.Add(time.Hour))
	_, _, err := store.RecordAttempt(ctx, "fresh", 10, 24*time.Hour)
	require.NoError(t, err)

	removed, err := store.PurgeExpired(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	count, err := store.CountSince(ctx, "fresh", base)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
