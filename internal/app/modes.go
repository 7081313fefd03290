package app

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tundeabiola/surebet/internal/pipeline"
	"github.com/tundeabiola/surebet/internal/server"
	"github.com/tundeabiola/surebet/internal/server/handler"
)

// shutdownGrace bounds how long in-flight HTTP requests may drain.
const shutdownGrace = 10 * time.Second

// StandaloneMode runs the full engine against the in-memory backends: the
// scan loop plus the HTTP API, no external services required.
func (a *App) StandaloneMode(ctx context.Context, deps *Dependencies) error {
	return a.FullMode(ctx, deps)
}

// ScanMode runs only the background pipeline: periodic scanning, cache
// upkeep and, when enabled, the daily archiver.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)
	a.startFeed(ctx, g, deps)
	g.Go(func() error {
		return a.newOrchestrator(deps).Run(ctx)
	})
	return g.Wait()
}

// ServeMode runs only the HTTP API; opportunities are computed on demand by
// the query path.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)
	a.startFeed(ctx, g, deps)
	a.startServer(ctx, g, deps)
	return g.Wait()
}

// FullMode runs the pipeline and the HTTP API together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	g, ctx := errgroup.WithContext(ctx)
	a.startFeed(ctx, g, deps)
	g.Go(func() error {
		return a.newOrchestrator(deps).Run(ctx)
	})
	a.startServer(ctx, g, deps)
	return g.Wait()
}

func (a *App) newOrchestrator(deps *Dependencies) *pipeline.Orchestrator {
	scanner := newScanner(deps, a.cfg, a.logger)
	var archiver *pipeline.Archiver
	if a.cfg.Archive.Enabled && deps.BlobWriter != nil && deps.OppLog != nil {
		archiver = pipeline.NewArchiver(deps.OppLog, deps.BlobWriter, a.logger)
	}
	return pipeline.NewOrchestrator(scanner, archiver, deps.Cache, a.cfg.Archive.HourUTC, a.logger)
}

// startFeed supervises the websocket stream when that source is configured.
func (a *App) startFeed(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if deps.WSFeed == nil {
		return
	}
	g.Go(func() error {
		return deps.WSFeed.Run(ctx)
	})
}

// startServer runs the HTTP API and shuts it down when the group context
// ends. A disabled server leaves the group untouched.
func (a *App) startServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if !a.cfg.Server.Enabled {
		return
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, server.Handlers{
		Health: handler.NewHealthHandler(),
		Arb:    handler.NewArbHandler(deps.Query, a.logger),
		Quota:  handler.NewQuotaHandler(deps.Query, a.logger),
	}, a.logger)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	})
}
