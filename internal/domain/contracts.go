package domain

import (
	"context"
	"time"
)

// OddsSource produces Match snapshots. Implementations must normalize
// whatever shape they ingest into the canonical Match form; the core never
// branches on data provenance. A fetch failure is reported as an error
// wrapping ErrSourceUnavailable and is treated as "zero matches this cycle"
// by callers.
type OddsSource interface {
	Fetch(ctx context.Context) ([]Match, error)
}

// QuotaStore owns the per-day surfacing log and the set of already-surfaced
// match IDs. It is the only writer of that state. Every operation triggers
// the rollover transition first: stored state for a previous day is reset
// to {today, 0, none, empty} before the operation proceeds.
type QuotaStore interface {
	// Snapshot returns the current daily log, read-only.
	Snapshot(ctx context.Context) (QuotaSnapshot, error)

	// Seen reports whether the match has already been surfaced today.
	Seen(ctx context.Context, matchID string) (bool, error)

	// Record commits a surfacing: it atomically checks the daily limit and
	// the sent set, increments the counter and inserts the match ID. It
	// returns ErrQuotaExhausted when the limit is reached, ErrAlreadySurfaced
	// when the match was surfaced before, and ErrStateConflict when a
	// concurrent transition invalidated the update (the caller may retry
	// once).
	Record(ctx context.Context, matchID string) (QuotaSnapshot, error)

	// Reset unconditionally clears the log to the empty-for-today state.
	Reset(ctx context.Context) error
}

// OpportunityCache is a time-bounded memo of computed opportunities keyed by
// match ID. Entries are advisory speed-ups only: a miss must never be
// treated as "no opportunity exists" and entries may be evicted at any time
// after expiry. Per-key last-write-wins; no cross-key consistency.
type OpportunityCache interface {
	Put(ctx context.Context, opp Opportunity, ttl time.Duration) error

	// Get returns ErrNotFound for absent or expired entries.
	Get(ctx context.Context, matchID string) (Opportunity, error)

	// Purge drops expired entries eagerly. Backends with native TTL support
	// may implement this as a no-op.
	Purge(ctx context.Context) error

	// Reset drops every cached opportunity.
	Reset(ctx context.Context) error
}

// OpportunityLog persists surfaced opportunities for history and archival.
type OpportunityLog interface {
	Insert(ctx context.Context, opp Opportunity, surfacedAt time.Time) error
	ListBefore(ctx context.Context, before time.Time) ([]SurfacedOpportunity, error)
	DeleteBefore(ctx context.Context, before time.Time) error
}

// LockManager provides short-lived mutual exclusion keyed by string.
type LockManager interface {
	// Acquire returns an unlock function on success and ErrLockHeld when the
	// lock is held by another party.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// BlobWriter uploads an object to cold storage.
type BlobWriter interface {
	Write(ctx context.Context, key, contentType string, data []byte) error
}
