package ratelimit

import (
	"context"
	"time"

	"resume-optimizer/internal/common/errors"
)

// RedisCounter is the subset of the Redis client used by the store. The
// check-and-record operation runs as a single server-side script, so the
// atomicity guarantee holds across application instances. The time it
// returns is the oldest recorded event still inside the window.
type RedisCounter interface {
	RecordRateLimitAttempt(ctx context.Context, key string, limit int, window time.Duration) (bool, int, time.Time, error)
	CountRateLimitSince(ctx context.Context, key string, since time.Time) (int, error)
	PurgeRateLimitEvents(ctx context.Context, keyPrefix string, olderThan time.Time) (int, error)
}

// RedisStore records attempts as timestamped events in Redis sorted sets,
// one set per identity. Window boundaries are computed with the Redis server
// clock, so all instances sharing the store agree on them.
type RedisStore struct {
	client    RedisCounter
	keyPrefix string
}

// NewRedisStore creates a store that records attempts under keyPrefix.
// An empty prefix defaults to "rate_limit:".
func NewRedisStore(client RedisCounter, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "rate_limit:"
	}
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *RedisStore) key(identity string) string {
	return s.keyPrefix + identity
}

func (s *RedisStore) Get(ctx context.Context, identity string, window time.Duration) (*Entry, error) {
	windowStart := time.Now().Add(-window)

	count, err := s.client.CountRateLimitSince(ctx, s.key(identity), windowStart)
	if err != nil {
		return nil, errors.StoreUnavailableError("redis", err)
	}

	if count == 0 {
		return nil, nil
	}

	// Read-only path: the window cutoff stands in for the oldest event,
	// which only RecordAttempt learns from the script.
	return &Entry{
		Identity:    identity,
		WindowStart: windowStart,
		Count:       count,
	}, nil
}

func (s *RedisStore) RecordAttempt(ctx context.Context, identity string, limit int, window time.Duration) (*Entry, bool, error) {
	allowed, count, oldest, err := s.client.RecordRateLimitAttempt(ctx, s.key(identity), limit, window)
	if err != nil {
		return nil, false, errors.StoreUnavailableError("redis", err)
	}

	// The oldest surviving event marks the window start: it is the next
	// event to expire, so WindowStart + window is when budget frees up.
	return &Entry{
		Identity:    identity,
		WindowStart: oldest,
		Count:       count,
	}, allowed, nil
}

func (s *RedisStore) CountSince(ctx context.Context, identity string, since time.Time) (int, error) {
	count, err := s.client.CountRateLimitSince(ctx, s.key(identity), since)
	if err != nil {
		return 0, errors.StoreUnavailableError("redis", err)
	}
	return count, nil
}

func (s *RedisStore) PurgeExpired(ctx context.Context, olderThan time.Time) (int, error) {
	removed, err := s.client.PurgeRateLimitEvents(ctx, s.keyPrefix, olderThan)
	if err != nil {
		return removed, errors.StoreUnavailableError("redis", err)
	}
	return removed, nil
}
