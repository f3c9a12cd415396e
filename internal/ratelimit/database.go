package ratelimit

import (
	"context"
	"database/sql"
	"time"

	"resume-optimizer/internal/common/errors"
)

// DatabaseStore records attempts as rows in the rate_limit_events table,
// one row per admitted attempt. The limit check and the insert run as a
// single conditional INSERT statement. SQLite serializes writers, so the
// statement alone is atomic there; under PostgreSQL read-committed two
// concurrent statements could both pass the count check, so the insert runs
// in a transaction holding an advisory lock on the identity.
//
// Timestamps are stored as Unix milliseconds so the same queries work on
// both SQLite and PostgreSQL.
type DatabaseStore struct {
	db      *sql.DB
	dialect string

	// now is swappable so tests can control window boundaries
	now func() time.Time
}

const (
	recordAttemptSQLite = `
		INSERT INTO rate_limit_events (identity, recorded_at)
		SELECT ?, ?
		WHERE (SELECT COUNT(*) FROM rate_limit_events WHERE identity = ? AND recorded_at > ?) < ?`

	recordAttemptPostgres = `
		INSERT INTO rate_limit_events (identity, recorded_at)
		SELECT $1, $2
		WHERE (SELECT COUNT(*) FROM rate_limit_events WHERE identity = $1 AND recorded_at > $3) < $4`

	advisoryLockPostgres = `SELECT pg_advisory_xact_lock(hashtext($1))`

	windowStateSQLite   = `SELECT COUNT(*), MIN(recorded_at) FROM rate_limit_events WHERE identity = ? AND recorded_at > ?`
	windowStatePostgres = `SELECT COUNT(*), MIN(recorded_at) FROM rate_limit_events WHERE identity = $1 AND recorded_at > $2`

	countSinceSQLite   = `SELECT COUNT(*) FROM rate_limit_events WHERE identity = ? AND recorded_at > ?`
	countSincePostgres = `SELECT COUNT(*) FROM rate_limit_events WHERE identity = $1 AND recorded_at > $2`

	purgeSQLite   = `DELETE FROM rate_limit_events WHERE recorded_at < ?`
	purgePostgres = `DELETE FROM rate_limit_events WHERE recorded_at < $1`
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// NewDatabaseStore creates a store backed by the given database connection.
// Dialect must be "sqlite" or "postgres"; anything else falls back to the
// SQLite placeholder syntax.
func NewDatabaseStore(db *sql.DB, dialect string) *DatabaseStore {
	return &DatabaseStore{
		db:      db,
		dialect: dialect,
		now:     time.Now,
	}
}

func (s *DatabaseStore) postgres() bool {
	return s.dialect == "postgres" || s.dialect == "postgresql"
}

func (s *DatabaseStore) Get(ctx context.Context, identity string, window time.Duration) (*Entry, error) {
	since := s.now().Add(-window)

	count, oldest, err := s.windowState(ctx, s.db, identity, since)
	if err != nil {
		return nil, err
	}

	if count == 0 {
		return nil, nil
	}

	return &Entry{
		Identity:    identity,
		WindowStart: oldest,
		Count:       count,
	}, nil
}

func (s *DatabaseStore) RecordAttempt(ctx context.Context, identity string, limit int, window time.Duration) (*Entry, bool, error) {
	now := s.now()
	since := now.Add(-window)

	if s.postgres() {
		return s.recordAttemptLocked(ctx, identity, limit, now, since)
	}

	result, err := s.db.ExecContext(ctx, recordAttemptSQLite,
		identity, now.UnixMilli(), identity, since.UnixMilli(), limit)
	if err != nil {
		return nil, false, errors.StoreUnavailableError("database", err)
	}

	return s.attemptOutcome(ctx, s.db, identity, since, result)
}

// recordAttemptLocked serializes concurrent attempts for the same identity
// with pg_advisory_xact_lock, which PostgreSQL releases at commit. Without
// it, two statements could both snapshot count = limit-1 and both insert.
func (s *DatabaseStore) recordAttemptLocked(ctx context.Context, identity string, limit int, now, since time.Time) (*Entry, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, errors.StoreUnavailableError("database", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, advisoryLockPostgres, identity); err != nil {
		return nil, false, errors.StoreUnavailableError("database", err)
	}

	result, err := tx.ExecContext(ctx, recordAttemptPostgres,
		identity, now.UnixMilli(), since.UnixMilli(), limit)
	if err != nil {
		return nil, false, errors.StoreUnavailableError("database", err)
	}

	entry, allowed, err := s.attemptOutcome(ctx, tx, identity, since, result)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(); err != nil {
		return nil, false, errors.StoreUnavailableError("database", err)
	}

	return entry, allowed, nil
}

func (s *DatabaseStore) attemptOutcome(ctx context.Context, q querier, identity string, since time.Time, result sql.Result) (*Entry, bool, error) {
	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, false, errors.StoreUnavailableError("database", err)
	}

	count, oldest, err := s.windowState(ctx, q, identity, since)
	if err != nil {
		return nil, false, err
	}

	return &Entry{
		Identity:    identity,
		WindowStart: oldest,
		Count:       count,
	}, inserted > 0, nil
}

// windowState returns the number of events recorded after since and the
// timestamp of the oldest of them. The oldest event marks the window start:
// it is the next event to fall out, so entry.WindowStart + window is when
// budget frees up. With no events the window start is the cutoff itself.
func (s *DatabaseStore) windowState(ctx context.Context, q querier, identity string, since time.Time) (int, time.Time, error) {
	query := windowStateSQLite
	if s.postgres() {
		query = windowStatePostgres
	}

	var count int
	var oldestMillis sql.NullInt64
	if err := q.QueryRowContext(ctx, query, identity, since.UnixMilli()).Scan(&count, &oldestMillis); err != nil {
		return 0, time.Time{}, errors.StoreUnavailableError("database", err)
	}

	oldest := since
	if oldestMillis.Valid {
		oldest = time.UnixMilli(oldestMillis.Int64)
	}

	return count, oldest, nil
}

func (s *DatabaseStore) CountSince(ctx context.Context, identity string, since time.Time) (int, error) {
	query := countSinceSQLite
	if s.postgres() {
		query = countSincePostgres
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, identity, since.UnixMilli()).Scan(&count); err != nil {
		return 0, errors.StoreUnavailableError("database", err)
	}

	return count, nil
}

func (s *DatabaseStore) PurgeExpired(ctx context.Context, olderThan time.Time) (int, error) {
	query := purgeSQLite
	if s.postgres() {
		query = purgePostgres
	}

	result, err := s.db.ExecContext(ctx, query, olderThan.UnixMilli())
	if err != nil {
		return 0, errors.StoreUnavailableError("database", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, errors.StoreUnavailableError("database", err)
	}

	return int(removed), nil
}
