package ratelimit

import (
	"context"
	"time"
)

// Entry is a snapshot of the recorded attempts for one identity within the
// current window.
type Entry struct {
	// Identity is the key the attempts were recorded under
	Identity string `json:"identity"`

	// WindowStart is when the current window began: the fixed window start
	// for counter stores, the oldest surviving event for event-log stores.
	// WindowStart plus the window length is when budget frees up.
	WindowStart time.Time `json:"window_start"`

	// Count is the number of admitted attempts in the current window
	Count int `json:"count"`
}

// Store records attempts per identity within a rolling window. Implementations
// may keep a single counter per window or individual timestamped events, but
// all of them must make RecordAttempt atomic: the limit check and the write
// happen as one operation so concurrent callers cannot overshoot the limit.
type Store interface {
	// Get returns the entry for an identity, or nil if the identity has no
	// attempts within the given window. It never modifies state.
	Get(ctx context.Context, identity string, window time.Duration) (*Entry, error)

	// RecordAttempt checks the identity against the limit and, only when the
	// attempt is admitted, records it. It returns a snapshot of the entry
	// after the operation and whether the attempt was admitted. Rejected
	// attempts must not consume budget.
	RecordAttempt(ctx context.Context, identity string, limit int, window time.Duration) (*Entry, bool, error)

	// CountSince reports how many recorded attempts fall after the given
	// instant. Counter-based implementations approximate this with the
	// aggregate count of the overlapping window.
	CountSince(ctx context.Context, identity string, since time.Time) (int, error)

	// PurgeExpired removes recorded state older than the given instant and
	// returns how many entries were removed.
	PurgeExpired(ctx context.Context, olderThan time.Time) (int, error)
}
