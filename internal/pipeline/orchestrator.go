package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tundeabiola/surebet/internal/domain"
)

// purgeInterval drives the eager cache sweep. Backends with native TTL
// implement Purge as a no-op, so a short interval is cheap everywhere.
const purgeInterval = time.Minute

// Orchestrator supervises the background loops as one unit: if any loop
// fails hard, the whole group winds down.
type Orchestrator struct {
	scanner  *Scanner
	archiver *Archiver // nil when archival is disabled
	cache    domain.OpportunityCache
	hourUTC  int
	logger   *slog.Logger
}

func NewOrchestrator(scanner *Scanner, archiver *Archiver, cache domain.OpportunityCache, archiveHourUTC int, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		scanner:  scanner,
		archiver: archiver,
		cache:    cache,
		hourUTC:  archiveHourUTC,
		logger:   logger.With(slog.String("component", "orchestrator")),
	}
}

// Run blocks until the context is cancelled or a loop returns an error.
func (o *Orchestrator) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return o.scanner.RunLoop(ctx)
	})

	if o.archiver != nil {
		g.Go(func() error {
			return o.archiver.RunDaily(ctx, o.hourUTC)
		})
	}

	g.Go(func() error {
		ticker := time.NewTicker(purgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := o.cache.Purge(ctx); err != nil {
					o.logger.Warn("cache purge failed", slog.String("error", err.Error()))
				}
			}
		}
	})

	o.logger.Info("pipeline running")
	return g.Wait()
}
