// Package service holds the application services that tie the pure
// arbitrage core to the quota store, cache and odds source.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/tundeabiola/surebet/internal/arbitrage"
	"github.com/tundeabiola/surebet/internal/domain"
)

// NextStatus classifies the outcome of a Next call.
type NextStatus string

const (
	StatusFound NextStatus = "opportunity_found"
	StatusLimit NextStatus = "daily_limit_reached"
	StatusNone  NextStatus = "no_arbitrage_available"
)

// NextResult is the outcome of one Next call. Opportunity is set only when
// Status is StatusFound.
type NextResult struct {
	Status      NextStatus          `json:"status"`
	Opportunity *domain.Opportunity `json:"opportunity,omitempty"`
	Progress    string              `json:"progress"`
}

// surfaceLockTTL bounds how long a per-match surface lock can outlive a
// crashed holder.
const surfaceLockTTL = 10 * time.Second

// QueryConfig holds the tunables of the query service.
type QueryConfig struct {
	CacheTTL time.Duration
}

// QueryService serves the next unsurfaced arbitrage opportunity, committing
// the quota update atomically with returning it.
type QueryService struct {
	source    domain.OddsSource
	finder    *arbitrage.Finder
	validator *arbitrage.Validator
	cache     domain.OpportunityCache
	quota     domain.QuotaStore
	locks     domain.LockManager
	oppLog    domain.OpportunityLog // optional; nil disables history
	cfg       QueryConfig
	logger    *slog.Logger
}

// NewQueryService creates a QueryService. oppLog may be nil when surfaced
// history is not persisted.
func NewQueryService(
	source domain.OddsSource,
	finder *arbitrage.Finder,
	validator *arbitrage.Validator,
	cache domain.OpportunityCache,
	quota domain.QuotaStore,
	locks domain.LockManager,
	oppLog domain.OpportunityLog,
	cfg QueryConfig,
	logger *slog.Logger,
) *QueryService {
	return &QueryService{
		source:    source,
		finder:    finder,
		validator: validator,
		cache:     cache,
		quota:     quota,
		locks:     locks,
		oppLog:    oppLog,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "query_service")),
	}
}

// Next returns the next unsurfaced opportunity, scanning candidates in
// ascending match-id order. The quota commit happens through
// QuotaStore.Record under a per-match lock, so a match is surfaced at most
// once per day and the daily count never exceeds the limit, no matter how
// many callers race.
func (s *QueryService) Next(ctx context.Context) (NextResult, error) {
	snap, err := s.quota.Snapshot(ctx)
	if err != nil {
		return NextResult{}, fmt.Errorf("query: quota snapshot: %w", err)
	}
	if snap.Exhausted() {
		return NextResult{Status: StatusLimit, Progress: progress(snap)}, nil
	}

	matches, err := s.source.Fetch(ctx)
	if err != nil {
		return NextResult{}, fmt.Errorf("query: fetch matches: %w", err)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })

	for _, m := range matches {
		seen, err := s.quota.Seen(ctx, m.ID)
		if err != nil {
			return NextResult{}, fmt.Errorf("query: seen check %s: %w", m.ID, err)
		}
		if seen {
			continue
		}

		opp, ok := s.lookup(ctx, m)
		if !ok {
			continue
		}
		if accepted, reason := s.validator.Accept(opp, snap, false); !accepted {
			s.logger.Debug("candidate rejected",
				slog.String("match_id", m.ID),
				slog.String("reason", reason),
			)
			continue
		}

		result, committed, err := s.commit(ctx, opp)
		if err != nil {
			return NextResult{}, err
		}
		if committed {
			return result, nil
		}
		if result.Status == StatusLimit {
			return result, nil
		}
		// Lost the race for this match; move on to the next candidate.
	}

	snap, err = s.quota.Snapshot(ctx)
	if err != nil {
		return NextResult{}, fmt.Errorf("query: quota snapshot: %w", err)
	}
	return NextResult{Status: StatusNone, Progress: progress(snap)}, nil
}

// lookup serves the opportunity from cache when possible and recomputes it
// otherwise. A cache miss is never treated as "no opportunity": the match
// goes through the finder before being skipped.
func (s *QueryService) lookup(ctx context.Context, m domain.Match) (domain.Opportunity, bool) {
	opp, err := s.cache.Get(ctx, m.ID)
	if err == nil {
		return opp, true
	}
	if !errors.Is(err, domain.ErrNotFound) {
		s.logger.Warn("cache lookup failed, recomputing",
			slog.String("match_id", m.ID),
			slog.String("error", err.Error()),
		)
	}

	opp, found := s.finder.FindBest(m)
	if !found {
		return domain.Opportunity{}, false
	}
	if err := s.cache.Put(ctx, opp, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("cache put failed",
			slog.String("match_id", m.ID),
			slog.String("error", err.Error()),
		)
	}
	return opp, true
}

// commit surfaces the opportunity under a per-match lock. It retries the
// quota record once on ErrStateConflict; a second conflict surfaces to the
// caller as a retryable error rather than silent loss.
func (s *QueryService) commit(ctx context.Context, opp domain.Opportunity) (NextResult, bool, error) {
	unlock, err := s.locks.Acquire(ctx, "surface:"+opp.MatchID, surfaceLockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			return NextResult{}, false, nil
		}
		return NextResult{}, false, fmt.Errorf("query: acquire surface lock %s: %w", opp.MatchID, err)
	}
	defer unlock()

	snap, err := s.quota.Record(ctx, opp.MatchID)
	if errors.Is(err, domain.ErrStateConflict) {
		snap, err = s.quota.Record(ctx, opp.MatchID)
		if errors.Is(err, domain.ErrStateConflict) {
			return NextResult{}, false, fmt.Errorf("query: surface %s: %w", opp.MatchID, err)
		}
	}
	switch {
	case errors.Is(err, domain.ErrAlreadySurfaced):
		return NextResult{}, false, nil
	case errors.Is(err, domain.ErrQuotaExhausted):
		limitSnap, snapErr := s.quota.Snapshot(ctx)
		if snapErr != nil {
			return NextResult{}, false, fmt.Errorf("query: quota snapshot: %w", snapErr)
		}
		return NextResult{Status: StatusLimit, Progress: progress(limitSnap)}, false, nil
	case err != nil:
		return NextResult{}, false, fmt.Errorf("query: surface %s: %w", opp.MatchID, err)
	}

	if s.oppLog != nil {
		if logErr := s.oppLog.Insert(ctx, opp, time.Now().UTC()); logErr != nil {
			// History is best-effort; the surfacing itself already committed.
			s.logger.Warn("opportunity history insert failed",
				slog.String("match_id", opp.MatchID),
				slog.String("error", logErr.Error()),
			)
		}
	}

	s.logger.Info("opportunity surfaced",
		slog.String("match_id", opp.MatchID),
		slog.String("teams", opp.Teams),
		slog.Float64("profit_percent", opp.ProfitPercent),
		slog.Int("surfaced_count", snap.SurfacedCount),
	)
	return NextResult{
		Status:      StatusFound,
		Opportunity: &opp,
		Progress:    progress(snap),
	}, true, nil
}

// Reset clears the quota store and the opportunity cache to their
// empty-for-today state. Operator action, idempotent.
func (s *QueryService) Reset(ctx context.Context) error {
	if err := s.quota.Reset(ctx); err != nil {
		return fmt.Errorf("query: reset quota: %w", err)
	}
	if err := s.cache.Reset(ctx); err != nil {
		return fmt.Errorf("query: reset cache: %w", err)
	}
	s.logger.Info("daily state reset")
	return nil
}

// Quota exposes the current quota snapshot for the status endpoints.
func (s *QueryService) Quota(ctx context.Context) (domain.QuotaSnapshot, error) {
	return s.quota.Snapshot(ctx)
}

func progress(snap domain.QuotaSnapshot) string {
	return fmt.Sprintf("%d/%d", snap.SurfacedCount, snap.Limit)
}
