// Package config defines the engine configuration and its validation.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration. Fields come from a TOML file and are
// then overridden by SUREBET_* environment variables.
type Config struct {
	Source    SourceConfig    `toml:"source"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Archive   ArchiveConfig   `toml:"archive"`
	Arbitrage ArbitrageConfig `toml:"arbitrage"`
	Server    ServerConfig    `toml:"server"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// SourceConfig selects and configures the odds source.
type SourceConfig struct {
	// Kind is one of "synthetic", "http" or "ws".
	Kind string `toml:"kind"`

	// URL is the feed endpoint for the http kind.
	URL string `toml:"url"`

	// WSURL is the stream endpoint for the ws kind.
	WSURL string `toml:"ws_url"`

	FetchTimeout duration `toml:"fetch_timeout"`

	// Seed fixes the synthetic generator; 0 seeds from the clock.
	Seed int64 `toml:"seed"`
}

// PostgresConfig holds the quota-store database connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds the cache connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds the archive object-storage parameters.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ArchiveConfig controls the daily history archival.
type ArchiveConfig struct {
	Enabled bool `toml:"enabled"`
	HourUTC int  `toml:"hour_utc"`
}

// ArbitrageConfig holds the detection and quota parameters.
type ArbitrageConfig struct {
	DailyMatchLimit      int     `toml:"daily_match_limit"`
	MinProfitPercent     float64 `toml:"min_profit_percent"`
	MaxProfitPercent     float64 `toml:"max_profit_percent"`
	StakePerArb          float64 `toml:"stake_per_arb"`
	MaxStakePerBookmaker float64 `toml:"max_stake_per_bookmaker"`

	CacheTTLMinutes     int `toml:"cache_ttl_minutes"`
	ScanIntervalMinutes int `toml:"scan_interval_minutes"`
}

// ServerConfig holds the HTTP API parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"`
}

type duration struct {
	time.Duration
}

// UnmarshalText lets the TOML decoder parse duration strings like "10s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns the built-in configuration. standalone mode runs fully
// in-memory with the synthetic source and needs no external services.
func Defaults() Config {
	return Config{
		Source: SourceConfig{
			Kind:         "synthetic",
			FetchTimeout: duration{10 * time.Second},
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "surebet",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "surebet-archive",
			ForcePathStyle: true,
		},
		Archive: ArchiveConfig{
			Enabled: false,
			HourUTC: 3,
		},
		Arbitrage: ArbitrageConfig{
			DailyMatchLimit:      12,
			MinProfitPercent:     0.5,
			MaxProfitPercent:     8.0,
			StakePerArb:          5250,
			MaxStakePerBookmaker: 3000,
			CacheTTLMinutes:      10,
			ScanIntervalMinutes:  5,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Mode:     "standalone",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"standalone": true,
	"scan":       true,
	"serve":      true,
	"full":       true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validSourceKinds = map[string]bool{
	"synthetic": true,
	"http":      true,
	"ws":        true,
}

// Validate checks the config and returns one combined error naming every
// problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: standalone, scan, serve, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if !validSourceKinds[strings.ToLower(c.Source.Kind)] {
		errs = append(errs, fmt.Sprintf("source: unknown kind %q (valid: synthetic, http, ws)", c.Source.Kind))
	}
	if strings.EqualFold(c.Source.Kind, "http") && c.Source.URL == "" {
		errs = append(errs, "source: url must be set for kind http")
	}
	if strings.EqualFold(c.Source.Kind, "ws") && c.Source.WSURL == "" {
		errs = append(errs, "source: ws_url must be set for kind ws")
	}
	if c.Source.FetchTimeout.Duration <= 0 {
		errs = append(errs, "source: fetch_timeout must be > 0")
	}

	// External stores only matter outside standalone mode.
	if !strings.EqualFold(c.Mode, "standalone") {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.Archive.Enabled {
		if c.Archive.HourUTC < 0 || c.Archive.HourUTC > 23 {
			errs = append(errs, fmt.Sprintf("archive: hour_utc must be 0-23, got %d", c.Archive.HourUTC))
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when archive is enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when archive is enabled")
		}
	}

	if c.Arbitrage.DailyMatchLimit < 1 {
		errs = append(errs, "arbitrage: daily_match_limit must be >= 1")
	}
	if c.Arbitrage.MinProfitPercent < 0 {
		errs = append(errs, "arbitrage: min_profit_percent must be >= 0")
	}
	if c.Arbitrage.MaxProfitPercent <= c.Arbitrage.MinProfitPercent {
		errs = append(errs, "arbitrage: max_profit_percent must exceed min_profit_percent")
	}
	if c.Arbitrage.StakePerArb <= 0 {
		errs = append(errs, "arbitrage: stake_per_arb must be > 0")
	}
	if c.Arbitrage.MaxStakePerBookmaker <= 0 {
		errs = append(errs, "arbitrage: max_stake_per_bookmaker must be > 0")
	}
	if c.Arbitrage.CacheTTLMinutes < 1 {
		errs = append(errs, "arbitrage: cache_ttl_minutes must be >= 1")
	}
	if c.Arbitrage.ScanIntervalMinutes < 1 {
		errs = append(errs, "arbitrage: scan_interval_minutes must be >= 1")
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// CacheTTL returns the opportunity cache lifetime as a duration.
func (c *ArbitrageConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

// ScanInterval returns the scan loop period as a duration.
func (c *ArbitrageConfig) ScanInterval() time.Duration {
	return time.Duration(c.ScanIntervalMinutes) * time.Minute
}
