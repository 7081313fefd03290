// Package memory implements the domain store contracts with in-process
// state. It backs standalone mode, where the scanner runs without external
// infrastructure, and the package tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tundeabiola/surebet/internal/domain"
)

// QuotaStore implements domain.QuotaStore with a mutex-guarded daily log.
// The single lock serializes the rollover and surface transitions, so the
// daily-limit and at-most-once invariants hold under concurrent callers.
type QuotaStore struct {
	limit int
	now   func() time.Time

	mu    sync.Mutex
	date  string
	count int
	last  string
	sent  map[string]struct{}
}

// NewQuotaStore creates an empty store for the current UTC day.
func NewQuotaStore(limit int) *QuotaStore {
	s := &QuotaStore{
		limit: limit,
		now:   func() time.Time { return time.Now().UTC() },
		sent:  map[string]struct{}{},
	}
	s.date = s.today()
	return s
}

// SetClock overrides the time source. Test hook.
func (s *QuotaStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *QuotaStore) today() string {
	return s.now().UTC().Format(domain.DateFormat)
}

// rollover resets the log when the stored date is not today. Caller holds mu.
func (s *QuotaStore) rollover() {
	today := s.today()
	if s.date == today {
		return
	}
	s.date = today
	s.count = 0
	s.last = ""
	s.sent = map[string]struct{}{}
}

func (s *QuotaStore) snapshotLocked() domain.QuotaSnapshot {
	return domain.QuotaSnapshot{
		Date:                s.date,
		SurfacedCount:       s.count,
		LastSurfacedMatchID: s.last,
		Limit:               s.limit,
	}
}

// Snapshot returns the current daily log, rolling over first.
func (s *QuotaStore) Snapshot(ctx context.Context) (domain.QuotaSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover()
	return s.snapshotLocked(), nil
}

// Seen reports whether matchID was surfaced today.
func (s *QuotaStore) Seen(ctx context.Context, matchID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover()
	_, ok := s.sent[matchID]
	return ok, nil
}

// Record commits a surfacing. The limit check, dedup check, counter
// increment and set insert happen under one lock acquisition, so no other
// surface can interleave between check and commit.
func (s *QuotaStore) Record(ctx context.Context, matchID string) (domain.QuotaSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover()

	if s.count >= s.limit {
		return domain.QuotaSnapshot{}, domain.ErrQuotaExhausted
	}
	if _, ok := s.sent[matchID]; ok {
		return domain.QuotaSnapshot{}, domain.ErrAlreadySurfaced
	}
	s.count++
	s.last = matchID
	s.sent[matchID] = struct{}{}
	return s.snapshotLocked(), nil
}

// Reset unconditionally clears the log to the empty-for-today state.
func (s *QuotaStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.date = s.today()
	s.count = 0
	s.last = ""
	s.sent = map[string]struct{}{}
	return nil
}

// SentCount returns the size of today's sent set. Test hook.
func (s *QuotaStore) SentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// Compile-time interface check.
var _ domain.QuotaStore = (*QuotaStore)(nil)
