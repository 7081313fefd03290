package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads the TOML file at path on top of the built-in defaults and then
// applies SUREBET_* environment overrides. The result is not validated; call
// Config.Validate after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// .env is optional.
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides lets operators inject settings and secrets at deploy
// time without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Source.Kind, "SUREBET_SOURCE_KIND")
	setStr(&cfg.Source.URL, "SUREBET_SOURCE_URL")
	setStr(&cfg.Source.WSURL, "SUREBET_SOURCE_WS_URL")
	setDuration(&cfg.Source.FetchTimeout, "SUREBET_SOURCE_FETCH_TIMEOUT")
	setInt64(&cfg.Source.Seed, "SUREBET_SOURCE_SEED")

	setStr(&cfg.Postgres.DSN, "SUREBET_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "SUREBET_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "SUREBET_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "SUREBET_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "SUREBET_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "SUREBET_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "SUREBET_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "SUREBET_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "SUREBET_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "SUREBET_POSTGRES_RUN_MIGRATIONS")

	setStr(&cfg.Redis.Addr, "SUREBET_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SUREBET_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SUREBET_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "SUREBET_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "SUREBET_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "SUREBET_REDIS_TLS_ENABLED")

	setStr(&cfg.S3.Endpoint, "SUREBET_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "SUREBET_S3_REGION")
	setStr(&cfg.S3.Bucket, "SUREBET_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "SUREBET_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "SUREBET_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "SUREBET_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "SUREBET_S3_FORCE_PATH_STYLE")

	setBool(&cfg.Archive.Enabled, "SUREBET_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.HourUTC, "SUREBET_ARCHIVE_HOUR_UTC")

	setInt(&cfg.Arbitrage.DailyMatchLimit, "SUREBET_ARBITRAGE_DAILY_MATCH_LIMIT")
	setFloat64(&cfg.Arbitrage.MinProfitPercent, "SUREBET_ARBITRAGE_MIN_PROFIT_PERCENT")
	setFloat64(&cfg.Arbitrage.MaxProfitPercent, "SUREBET_ARBITRAGE_MAX_PROFIT_PERCENT")
	setFloat64(&cfg.Arbitrage.StakePerArb, "SUREBET_ARBITRAGE_STAKE_PER_ARB")
	setFloat64(&cfg.Arbitrage.MaxStakePerBookmaker, "SUREBET_ARBITRAGE_MAX_STAKE_PER_BOOKMAKER")
	setInt(&cfg.Arbitrage.CacheTTLMinutes, "SUREBET_ARBITRAGE_CACHE_TTL_MINUTES")
	setInt(&cfg.Arbitrage.ScanIntervalMinutes, "SUREBET_ARBITRAGE_SCAN_INTERVAL_MINUTES")

	setBool(&cfg.Server.Enabled, "SUREBET_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "SUREBET_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "SUREBET_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "SUREBET_SERVER_API_KEY")

	setStr(&cfg.Mode, "SUREBET_MODE")
	setStr(&cfg.LogLevel, "SUREBET_LOG_LEVEL")
}

// Typed env-var helpers. Each only mutates the target when the variable is
// present and parses.

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
