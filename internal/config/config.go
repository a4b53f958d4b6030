// Package config defines the top-level configuration for the gameledger
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by GAMELEDGER_* environment variables.
type Config struct {
	Postgres      PostgresConfig      `toml:"postgres"`
	Redis         RedisConfig         `toml:"redis"`
	S3            S3Config            `toml:"s3"`
	IGDB          IGDBConfig          `toml:"igdb"`
	PriceCharting PriceChartingConfig `toml:"pricecharting"`
	Prices        PricesConfig        `toml:"prices"`
	Thresholds    ThresholdsConfig    `toml:"thresholds"`
	Sweep         SweepConfig         `toml:"sweep"`
	Archive       ArchiveConfig       `toml:"archive"`
	Server        ServerConfig        `toml:"server"`
	Notify        NotifyConfig        `toml:"notify"`
	Mode          string              `toml:"mode"`
	LogLevel      string              `toml:"log_level"`
}

// PostgresConfig holds PostgreSQL connection parameters.
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

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the ledger
// archive. Archival is skipped entirely when Enabled is false.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// IGDBConfig holds IGDB / Twitch OAuth credentials for catalog lookups.
type IGDBConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	BaseURL      string `toml:"base_url"`
	TokenURL     string `toml:"token_url"`
}

// PriceChartingConfig holds the price source API parameters.
type PriceChartingConfig struct {
	APIToken string `toml:"api_token"`
	BaseURL  string `toml:"base_url"`
}

// PricesConfig controls how scraped quotes become display prices.
type PricesConfig struct {
	// DisplayCurrency is the currency every committed price is stored in.
	DisplayCurrency string `toml:"display_currency"`
	// USDToGBPRate converts the source's USD amounts; a fixed rate, not a
	// live feed.
	USDToGBPRate float64 `toml:"usd_to_gbp_rate"`
	// PreferBoxed selects complete-in-box prices ahead of loose ones.
	PreferBoxed bool `toml:"prefer_boxed"`
}

// ThresholdsConfig is the global default threshold record. Per-game
// alert-settings rows override these field by field.
type ThresholdsConfig struct {
	AutoScrapingEnabled bool    `toml:"auto_scraping_enabled"`
	DefaultPriceSource  string  `toml:"default_price_source"`
	DefaultRegion       string  `toml:"default_region"`
	DropThresholdPct    float64 `toml:"drop_threshold_pct"`
	IncreasePct         float64 `toml:"increase_pct"`
	MinPriceThreshold   float64 `toml:"min_price_threshold"`
	MinValueChange      float64 `toml:"min_value_change"`
}

// SweepConfig controls the reconciliation sweep scheduler.
type SweepConfig struct {
	Interval duration `toml:"interval"`
	Pace     duration `toml:"pace"`
	LockTTL  duration `toml:"lock_ttl"`
}

// ArchiveConfig controls cold-storage archival of old ledger rows.
type ArchiveConfig struct {
	RetentionDays int `toml:"retention_days"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "gameledger",
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
			TLSEnabled: false,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "gameledger-archive",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		IGDB: IGDBConfig{
			BaseURL:  "https://api.igdb.com/v4",
			TokenURL: "https://id.twitch.tv/oauth2/token",
		},
		PriceCharting: PriceChartingConfig{
			BaseURL: "https://www.pricecharting.com",
		},
		Prices: PricesConfig{
			DisplayCurrency: "GBP",
			USDToGBPRate:    0.79,
			PreferBoxed:     true,
		},
		Thresholds: ThresholdsConfig{
			AutoScrapingEnabled: false,
			DefaultPriceSource:  "pricecharting",
			DefaultRegion:       "pal",
			DropThresholdPct:    10.0,
			IncreasePct:         20.0,
			MinPriceThreshold:   0.0,
			MinValueChange:      100.0,
		},
		Sweep: SweepConfig{
			Interval: duration{24 * time.Hour},
			Pace:     duration{2 * time.Second},
			LockTTL:  duration{30 * time.Minute},
		},
		Archive: ArchiveConfig{
			RetentionDays: 365,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"price_drop", "price_rise", "price_set", "sweep_complete"},
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"serve": true,
	"sweep": true,
	"full":  true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: serve, sweep, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Postgres
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
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3 — only required when archival is on.
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty when enabled")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.Archive.RetentionDays < 1 {
			errs = append(errs, "archive: retention_days must be >= 1 when s3 is enabled")
		}
	}

	// IGDB — both credentials together, or neither (resolution degrades to
	// a permanent miss without them).
	ik := c.IGDB.ClientID != ""
	is := c.IGDB.ClientSecret != ""
	if ik != is {
		errs = append(errs, "igdb: client_id and client_secret must be set together")
	}

	// PriceCharting
	if c.PriceCharting.BaseURL == "" {
		errs = append(errs, "pricecharting: base_url must not be empty")
	}

	// Prices
	if c.Prices.DisplayCurrency == "" {
		errs = append(errs, "prices: display_currency must not be empty")
	}
	if c.Prices.USDToGBPRate <= 0 {
		errs = append(errs, "prices: usd_to_gbp_rate must be > 0")
	}

	// Thresholds
	if c.Thresholds.DropThresholdPct < 0 {
		errs = append(errs, "thresholds: drop_threshold_pct must be >= 0")
	}
	if c.Thresholds.IncreasePct < 0 {
		errs = append(errs, "thresholds: increase_pct must be >= 0")
	}
	if c.Thresholds.MinPriceThreshold < 0 {
		errs = append(errs, "thresholds: min_price_threshold must be >= 0")
	}
	if c.Thresholds.MinValueChange < 0 {
		errs = append(errs, "thresholds: min_value_change must be >= 0")
	}

	// Sweep
	if c.Sweep.Interval.Duration <= 0 {
		errs = append(errs, "sweep: interval must be > 0")
	}
	if c.Sweep.Pace.Duration < 0 {
		errs = append(errs, "sweep: pace must be >= 0")
	}
	if c.Sweep.LockTTL.Duration <= 0 {
		errs = append(errs, "sweep: lock_ttl must be > 0")
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	// Notify — Telegram needs both fields.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
