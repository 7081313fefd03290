package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tundeabiola/surebet/internal/arbitrage"
	s3blob "github.com/tundeabiola/surebet/internal/blob/s3"
	cachemem "github.com/tundeabiola/surebet/internal/cache/memory"
	cacheredis "github.com/tundeabiola/surebet/internal/cache/redis"
	"github.com/tundeabiola/surebet/internal/config"
	"github.com/tundeabiola/surebet/internal/domain"
	"github.com/tundeabiola/surebet/internal/pipeline"
	"github.com/tundeabiola/surebet/internal/service"
	"github.com/tundeabiola/surebet/internal/source"
	storemem "github.com/tundeabiola/surebet/internal/store/memory"
	"github.com/tundeabiola/surebet/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. Wire builds it
// and the returned cleanup releases the connections.
type Dependencies struct {
	Source domain.OddsSource
	// WSFeed is non-nil when the ws source is configured; its Run loop must
	// be supervised alongside the mode's other goroutines.
	WSFeed *source.WSFeed

	Finder    *arbitrage.Finder
	Validator *arbitrage.Validator

	Quota  domain.QuotaStore
	Cache  domain.OpportunityCache
	Locks  domain.LockManager
	OppLog domain.OpportunityLog // nil without Postgres

	BlobWriter domain.BlobWriter // nil unless archival is enabled

	Query *service.QueryService
}

// usesExternalStores reports whether the mode runs against Postgres and
// Redis. standalone stays fully in-memory.
func usesExternalStores(mode string) bool {
	return !strings.EqualFold(mode, "standalone")
}

// Wire constructs the concrete dependency implementations for the configured
// mode and returns them with a cleanup function.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{
		Finder: arbitrage.NewFinder(arbitrage.FinderConfig{
			MinProfitPercent:     cfg.Arbitrage.MinProfitPercent,
			MaxStakePerBookmaker: cfg.Arbitrage.MaxStakePerBookmaker,
			Bankroll:             cfg.Arbitrage.StakePerArb,
		}),
		Validator: arbitrage.NewValidator(arbitrage.ValidatorConfig{
			MinProfitPercent:     cfg.Arbitrage.MinProfitPercent,
			MaxProfitPercent:     cfg.Arbitrage.MaxProfitPercent,
			MaxStakePerBookmaker: cfg.Arbitrage.MaxStakePerBookmaker,
		}),
	}

	switch strings.ToLower(cfg.Source.Kind) {
	case "synthetic":
		deps.Source = source.NewSynthetic(cfg.Source.Seed)
	case "http":
		deps.Source = source.NewHTTPSource(cfg.Source.URL, cfg.Source.FetchTimeout.Duration, logger)
	case "ws":
		feed := source.NewWSFeed(cfg.Source.WSURL, logger)
		closers = append(closers, feed.Close)
		deps.Source = feed
		deps.WSFeed = feed
	default:
		return nil, nil, fmt.Errorf("wire: unknown source kind %q", cfg.Source.Kind)
	}

	if usesExternalStores(cfg.Mode) {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.Quota = postgres.NewQuotaStore(pool, cfg.Arbitrage.DailyMatchLimit)
		deps.OppLog = postgres.NewOpportunityLog(pool)

		redisClient, err := cacheredis.New(ctx, cacheredis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Cache = cacheredis.NewOpportunityCache(redisClient)
		deps.Locks = cacheredis.NewLockManager(redisClient)
	} else {
		deps.Quota = storemem.NewQuotaStore(cfg.Arbitrage.DailyMatchLimit)
		deps.Cache = cachemem.NewOpportunityCache()
		deps.Locks = cachemem.NewLockManager()
	}

	if cfg.Archive.Enabled {
		if deps.OppLog == nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: archive requires a mode with postgres")
		}
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		deps.BlobWriter = s3blob.NewWriter(s3Client)
	}

	deps.Query = service.NewQueryService(
		deps.Source,
		deps.Finder,
		deps.Validator,
		deps.Cache,
		deps.Quota,
		deps.Locks,
		deps.OppLog,
		service.QueryConfig{CacheTTL: cfg.Arbitrage.CacheTTL()},
		logger,
	)

	return deps, cleanup, nil
}

// newScanner builds the background scanner from the wired dependencies.
func newScanner(deps *Dependencies, cfg *config.Config, logger *slog.Logger) *pipeline.Scanner {
	return pipeline.NewScanner(
		deps.Source,
		deps.Finder,
		deps.Validator,
		deps.Cache,
		deps.Quota,
		pipeline.ScannerConfig{
			Interval:     cfg.Arbitrage.ScanInterval(),
			FetchTimeout: cfg.Source.FetchTimeout.Duration,
			CacheTTL:     cfg.Arbitrage.CacheTTL(),
		},
		logger,
	)
}
