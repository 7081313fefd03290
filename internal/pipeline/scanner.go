// Package pipeline runs the background loops: the periodic odds scan, the
// cache purge and the history archiver.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/tundeabiola/surebet/internal/arbitrage"
	"github.com/tundeabiola/surebet/internal/domain"
)

// ScannerConfig holds the scan loop tunables.
type ScannerConfig struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	CacheTTL     time.Duration
}

// Scanner periodically pulls the odds slate, computes the best opportunity
// per match and warms the cache. It never commits quota: surfacing stays
// with the query path so the daily limit has a single writer.
type Scanner struct {
	source    domain.OddsSource
	finder    *arbitrage.Finder
	validator *arbitrage.Validator
	cache     domain.OpportunityCache
	quota     domain.QuotaStore
	cfg       ScannerConfig
	logger    *slog.Logger
}

func NewScanner(
	source domain.OddsSource,
	finder *arbitrage.Finder,
	validator *arbitrage.Validator,
	cache domain.OpportunityCache,
	quota domain.QuotaStore,
	cfg ScannerConfig,
	logger *slog.Logger,
) *Scanner {
	return &Scanner{
		source:    source,
		finder:    finder,
		validator: validator,
		cache:     cache,
		quota:     quota,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "scanner")),
	}
}

// RunLoop runs a scan cycle immediately and then on every interval tick
// until the context is cancelled. A failed cycle is logged and skipped; the
// loop itself never stops on cycle errors.
func (s *Scanner) RunLoop(ctx context.Context) error {
	s.logger.Info("scan loop started", slog.Duration("interval", s.cfg.Interval))

	if err := s.Cycle(ctx); err != nil {
		s.logger.Error("scan cycle failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scan loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.Cycle(ctx); err != nil {
				s.logger.Error("scan cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Cycle fetches one slate and caches every opportunity that passes the
// advisory checks. Quota state is read once per cycle; a stale read only
// costs an extra cache entry, never a wrong surfacing.
func (s *Scanner) Cycle(ctx context.Context) error {
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	started := time.Now()
	matches, err := s.source.Fetch(fetchCtx)
	if err != nil {
		return err
	}

	snap, err := s.quota.Snapshot(ctx)
	if err != nil {
		return err
	}

	cached := 0
	for _, m := range matches {
		opp, found := s.finder.FindBest(m)
		if !found {
			continue
		}
		seen, err := s.quota.Seen(ctx, m.ID)
		if err != nil {
			s.logger.Warn("seen check failed",
				slog.String("match_id", m.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if accepted, _ := s.validator.Accept(opp, snap, seen); !accepted {
			continue
		}
		if err := s.cache.Put(ctx, opp, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("cache put failed",
				slog.String("match_id", m.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		cached++
	}

	s.logger.Info("scan cycle complete",
		slog.Int("matches", len(matches)),
		slog.Int("cached", cached),
		slog.Duration("elapsed", time.Since(started)),
	)
	return nil
}
