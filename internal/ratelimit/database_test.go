package ratelimit

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ratelimit_test.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE rate_limit_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			identity TEXT NOT NULL,
			recorded_at BIGINT NOT NULL
		);
		CREATE INDEX idx_rate_limit_events_identity ON rate_limit_events(identity, recorded_at);
	`)
	require.NoError(t, err)

	return db
}

func eventCount(t *testing.T, db *sql.DB, identity string) int {
	t.Helper()
	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM rate_limit_events WHERE identity = ?`, identity).Scan(&count)
	require.NoError(t, err)
	return count
}

func TestDatabaseStore_RecordAttempt(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("admits attempts up to the limit", func(t *testing.T) {
		store := NewDatabaseStore(setupTestDB(t), "sqlite")
		now := base
		store.now = func() time.Time { now = now.Add(time.Second); return now }

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

	t.Run("rejected attempts leave no rows behind", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewDatabaseStore(db, "sqlite")
		now := base
		store.now = func() time.Time { now = now.Add(time.Second); return now }

		for i := 0; i < 10; i++ {
			_, _, err := store.RecordAttempt(ctx, "bob", 2, time.Minute)
			require.NoError(t, err)
		}

		assert.Equal(t, 2, eventCount(t, db, "bob"))
	})

	t.Run("window rollover admits again", func(t *testing.T) {
		store := NewDatabaseStore(setupTestDB(t), "sqlite")
		now := base
		store.now = func() time.Time { return now }

		_, allowed, err := store.RecordAttempt(ctx, "carol", 1, time.Minute)
		require.NoError(t, err)
		require.True(t, allowed)

		now = base.Add(30 * time.Second)
		_, allowed, err = store.RecordAttempt(ctx, "carol", 1, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)

		now = base.Add(time.Minute + time.Second)
		entry, allowed, err := store.RecordAttempt(ctx, "carol", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 1, entry.Count)
	})

	t.Run("window starts at the oldest recorded event", func(t *testing.T) {
		store := NewDatabaseStore(setupTestDB(t), "sqlite")
		now := base
		store.now = func() time.Time { return now }

		entry, _, err := store.RecordAttempt(ctx, "gwen", 2, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, base.UnixMilli(), entry.WindowStart.UnixMilli())

		now = base.Add(30 * time.Second)
		entry, _, err = store.RecordAttempt(ctx, "gwen", 2, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, base.UnixMilli(), entry.WindowStart.UnixMilli())

		// Once denied, WindowStart + window is when the first event falls
		// out of the window and budget frees up.
		now = base.Add(45 * time.Second)
		entry, allowed, err := store.RecordAttempt(ctx, "gwen", 2, time.Minute)
		require.NoError(t, err)
		require.False(t, allowed)
		assert.Equal(t, base.Add(time.Minute).UnixMilli(), entry.WindowStart.Add(time.Minute).UnixMilli())
	})

	t.Run("zero limit denies without recording", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewDatabaseStore(db, "sqlite")

		_, allowed, err := store.RecordAttempt(ctx, "dave", 0, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, 0, eventCount(t, db, "dave"))
	})

	t.Run("identities are isolated", func(t *testing.T) {
		store := NewDatabaseStore(setupTestDB(t), "sqlite")

		_, allowed, err := store.RecordAttempt(ctx, "erin", 1, time.Minute)
		require.NoError(t, err)
		require.True(t, allowed)

		_, allowed, err = store.RecordAttempt(ctx, "erin", 1, time.Minute)
		require.NoError(t, err)
		assert.False(t, allowed)

		_, allowed, err = store.RecordAttempt(ctx, "frank", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}

func TestDatabaseStore_RecordAttempt_Concurrent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	// SQLite allows a single writer; one connection keeps concurrent
	// attempts from tripping over SQLITE_BUSY instead of queueing.
	db.SetMaxOpenConns(1)
	store := NewDatabaseStore(db, "sqlite")

	const limit = 50
	var admitted int64
	var wg sync.WaitGroup

	for i := 0; i < 2*limit; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, allowed, err := store.RecordAttempt(ctx, "contended", limit, time.Minute)
			require.NoError(t, err)
			if allowed {
				atomic.AddInt64(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(limit), admitted)
	assert.Equal(t, limit, eventCount(t, db, "contended"))
}

func TestDatabaseStore_Get(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	store := NewDatabaseStore(setupTestDB(t), "sqlite")
	now := base
	store.now = func() time.Time { return now }

	entry, err := store.Get(ctx, "alice", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, entry)

	_, _, err = store.RecordAttempt(ctx, "alice", 5, time.Minute)
	require.NoError(t, err)

	now = base.Add(10 * time.Second)
	entry, err = store.Get(ctx, "alice", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, 1, entry.Count)

	// Outside the window the identity reads as absent
	now = base.Add(2 * time.Minute)
	entry, err = store.Get(ctx, "alice", time.Minute)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestDatabaseStore_CountSince(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	store := NewDatabaseStore(setupTestDB(t), "sqlite")
	now := base
	store.now = func() time.Time { return now }

	_, _, err := store.RecordAttempt(ctx, "alice", 10, time.Hour)
	require.NoError(t, err)

	now = base.Add(30 * time.Second)
	_, _, err = store.RecordAttempt(ctx, "alice", 10, time.Hour)
	require.NoError(t, err)

	count, err := store.CountSince(ctx, "alice", base.Add(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.CountSince(ctx, "alice", base.Add(10*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDatabaseStore_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	db := setupTestDB(t)
	store := NewDatabaseStore(db, "sqlite")
	now := base
	store.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, _, err := store.RecordAttempt(ctx, "old", 10, 24*time.Hour)
		require.NoError(t, err)
	}

	now = base.Add(time.Hour)
	_, _, err := store.RecordAttempt(ctx, "fresh", 10, 24*time.Hour)
	require.NoError(t, err)

	removed, err := store.PurgeExpired(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	assert.Equal(t, 0, eventCount(t, db, "old"))
	assert.Equal(t, 1, eventCount(t, db, "fresh"))
}
