package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps one counter per identity in process memory. It is the
// default backend for single-instance deployments; counters are lost on
// restart, which for abuse mitigation only means a briefly reset budget.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*Entry

	// now is swappable so tests can control window boundaries
	now func() time.Time
}

// NewMemoryStore creates an empty in-memory counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(ctx context.Context, identity string, window time.Duration) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[identity]
	if !ok {
		return nil, nil
	}

	if s.expired(entry, window) {
		return nil, nil
	}

	snapshot := *entry
	return &snapshot, nil
}

func (s *MemoryStore) RecordAttempt(ctx context.Context, identity string, limit int, window time.Duration) (*Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.entries[identity]

	if !ok || s.expired(entry, window) {
		if limit < 1 {
			return &Entry{Identity: identity, WindowStart: now, Count: 0}, false, nil
		}

		entry = &Entry{Identity: identity, WindowStart: now, Count: 1}
		s.entries[identity] = entry

		snapshot := *entry
		return &snapshot, true, nil
	}

	if entry.Count >= limit {
		snapshot := *entry
		return &snapshot, false, nil
	}

	entry.Count++
	snapshot := *entry
	return &snapshot, true, nil
}

func (s *MemoryStore) CountSince(ctx context.Context, identity string, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[identity]
	if !ok || entry.WindowStart.Before(since) {
		return 0, nil
	}

	return entry.Count, nil
}

func (s *MemoryStore) PurgeExpired(ctx context.Context, olderThan time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for identity, entry := range s.entries {
		if entry.WindowStart.Before(olderThan) {
			delete(s.entries, identity)
			removed++
		}
	}

	return removed, nil
}

// expired reports whether the entry's window has elapsed. A clock that moved
// backward (now before the window start) keeps the window alive rather than
// resetting it early, so an anomaly can only delay budget renewal, never
// grant extra budget.
func (s *MemoryStore) expired(entry *Entry, window time.Duration) bool {
	now := s.now()
	if now.Before(entry.WindowStart) {
		return false
	}
	return now.Sub(entry.WindowStart) >= window
}
