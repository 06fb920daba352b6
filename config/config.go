// Package config loads Timory Hub configuration from dotenv files and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/timory/timory-hub/internal/domain/engagement"
	"github.com/timory/timory-hub/internal/infrastructure/persistence/postgres"
	"github.com/timory/timory-hub/internal/infrastructure/persistence/redis"
	"github.com/timory/timory-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIG
// ══════════════════════════════════════════════════════════════════════════════

// Config is the full application configuration shared by cmd/api and cmd/worker.
type Config struct {
	App struct {
		Env      string `envconfig:"APP_ENV" default:"development"`
		Timezone string `envconfig:"APP_TIMEZONE" default:"UTC"`
		Version  string `envconfig:"APP_VERSION" default:"dev"`
	} `envconfig:""`

	Database struct {
		URL             string        `envconfig:"DATABASE_URL"`
		MaxConns        int32         `envconfig:"DATABASE_MAX_CONNS" default:"20"`
		MinConns        int32         `envconfig:"DATABASE_MIN_CONNS" default:"2"`
		MaxConnLifetime time.Duration `envconfig:"DATABASE_MAX_CONN_LIFETIME" default:"1h"`
		MaxConnIdleTime time.Duration `envconfig:"DATABASE_MAX_CONN_IDLE_TIME" default:"15m"`
		AutoMigrate     bool          `envconfig:"DATABASE_AUTO_MIGRATE" default:"true"`
	} `envconfig:""`

	Redis struct {
		Host     string `envconfig:"REDIS_HOST" default:"localhost"`
		Port     int    `envconfig:"REDIS_PORT" default:"6379"`
		Password string `envconfig:"REDIS_PASSWORD"`
		DB       int    `envconfig:"REDIS_DB" default:"0"`
		PoolSize int    `envconfig:"REDIS_POOL_SIZE" default:"10"`
	} `envconfig:""`

	HTTP struct {
		Addr            string        `envconfig:"HTTP_ADDR" default:":8080"`
		ReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
		WriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
		RequestTimeout  time.Duration `envconfig:"HTTP_REQUEST_TIMEOUT" default:"10s"`
		ShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
	} `envconfig:""`

	Batch struct {
		RollbackCron   string        `envconfig:"BATCH_ROLLBACK_CRON" default:"0 0 1 * * *"`
		WatchesCron    string        `envconfig:"BATCH_WATCHES_CRON" default:"20 0 1 * * *"`
		MembersCron    string        `envconfig:"BATCH_MEMBERS_CRON" default:"40 0 1 * * *"`
		ReconcileEvery time.Duration `envconfig:"BATCH_RECONCILE_INTERVAL" default:"6h"`
		Concurrency    int           `envconfig:"BATCH_CONCURRENCY" default:"16"`
		TopListSize    int           `envconfig:"BATCH_TOP_LIST_SIZE" default:"50"`
		LockTTL        time.Duration `envconfig:"BATCH_LOCK_TTL" default:"15m"`
		JobTimeout     time.Duration `envconfig:"BATCH_JOB_TIMEOUT" default:"30m"`
	} `envconfig:""`

	Engagement struct {
		ViewScope    string `envconfig:"VIEW_SCOPE" default:"global"`
		ListMaxLimit int    `envconfig:"LIST_MAX_LIMIT" default:"100"`
	} `envconfig:""`

	Observability struct {
		LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
		LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	} `envconfig:""`
}

// Load reads dotenv files and then the environment. Files are tried from the
// most specific to the least; godotenv never overrides a variable that is
// already set, so earlier files win.
func Load() (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	for _, f := range []string{".env." + env + ".local", ".env.local", ".env." + env, ".env"} {
		_ = godotenv.Load(f)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that envconfig cannot.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.URL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("APP_TIMEZONE: %w", err))
	}
	if c.Engagement.ViewScope != "global" && c.Engagement.ViewScope != "group" {
		errs = append(errs, fmt.Errorf("VIEW_SCOPE must be global or group, got %q", c.Engagement.ViewScope))
	}
	if c.Engagement.ListMaxLimit < 0 {
		errs = append(errs, errors.New("LIST_MAX_LIMIT cannot be negative"))
	}
	if c.Batch.ReconcileEvery <= 0 {
		errs = append(errs, errors.New("BATCH_RECONCILE_INTERVAL must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DERIVED SETTINGS
// ══════════════════════════════════════════════════════════════════════════════

// IsProduction reports APP_ENV=production.
func (c *Config) IsProduction() bool { return c.App.Env == "production" }

// Location returns the batch timezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ViewScope returns the configured view lookup scope.
func (c *Config) ViewScope() engagement.ViewScope {
	return engagement.ParseViewScope(c.Engagement.ViewScope)
}

// Postgres returns the pool configuration.
func (c *Config) Postgres() postgres.Config {
	return postgres.Config{
		URL:             c.Database.URL,
		MaxConns:        c.Database.MaxConns,
		MinConns:        c.Database.MinConns,
		MaxConnLifetime: c.Database.MaxConnLifetime,
		MaxConnIdleTime: c.Database.MaxConnIdleTime,
	}
}

// RedisConfig returns the cache configuration.
func (c *Config) RedisConfig() redis.Config {
	return redis.Config{
		Host:         c.Redis.Host,
		Port:         c.Redis.Port,
		Password:     c.Redis.Password,
		DB:           c.Redis.DB,
		PoolSize:     c.Redis.PoolSize,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Logger returns the logger configuration.
func (c *Config) Logger(service string) logger.Config {
	return logger.Config{
		Level:   c.Observability.LogLevel,
		Format:  c.Observability.LogFormat,
		Service: service,
		Version: c.App.Version,
	}
}
