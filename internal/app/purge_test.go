package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-optimizer/internal/ratelimit"
)

type fakeLock struct {
	grant    bool
	acquired int
	released int
}

func (f *fakeLock) AcquireLock(ctx context.Context, key string, expiration time.Duration) (bool, error) {
	f.acquired++
	return f.grant, nil
}

func (f *fakeLock) ReleaseLock(ctx context.Context, key string) error {
	f.released++
	return nil
}

func TestPurgeJob(t *testing.T) {
	t.Run("removes expired entries", func(t *testing.T) {
		store := ratelimit.NewMemoryStore()
		_, allowed, err := store.RecordAttempt(context.Background(), "ip:203.0.113.9", 10, time.Millisecond)
		require.NoError(t, err)
		require.True(t, allowed)

		time.Sleep(5 * time.Millisecond)

		job := newPurgeJob(store, nil, 0)
		job.run()

		entry, err := store.Get(context.Background(), "ip:203.0.113.9", time.Hour)
		require.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("skips the purge when the lock is held elsewhere", func(t *testing.T) {
		store := ratelimit.NewMemoryStore()
		_, _, err := store.RecordAttempt(context.Background(), "ip:203.0.113.9", 10, time.Millisecond)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)

		lock := &fakeLock{grant: false}
		job := newPurgeJob(store, lock, 0)
		job.run()

		assert.Equal(t, 1, lock.acquired)
		assert.Zero(t, lock.released)

		entry, err := store.Get(context.Background(), "ip:203.0.113.9", time.Hour)
		require.NoError(t, err)
		assert.NotNil(t, entry)
	})

	t.Run("releases the lock after purging", func(t *testing.T) {
		lock := &fakeLock{grant: true}
		job := newPurgeJob(ratelimit.NewMemoryStore(), lock, time.Hour)
		job.run()

		assert.Equal(t, 1, lock.acquired)
		assert.Equal(t, 1, lock.released)
	})
}
