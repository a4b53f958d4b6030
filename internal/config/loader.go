package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies GAMELEDGER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known GAMELEDGER_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "GAMELEDGER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "GAMELEDGER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "GAMELEDGER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "GAMELEDGER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "GAMELEDGER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "GAMELEDGER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "GAMELEDGER_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "GAMELEDGER_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "GAMELEDGER_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "GAMELEDGER_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "GAMELEDGER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "GAMELEDGER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "GAMELEDGER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "GAMELEDGER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "GAMELEDGER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "GAMELEDGER_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "GAMELEDGER_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "GAMELEDGER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "GAMELEDGER_S3_REGION")
	setStr(&cfg.S3.Bucket, "GAMELEDGER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "GAMELEDGER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "GAMELEDGER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "GAMELEDGER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "GAMELEDGER_S3_FORCE_PATH_STYLE")

	// ── IGDB ──
	setStr(&cfg.IGDB.ClientID, "GAMELEDGER_IGDB_CLIENT_ID")
	setStr(&cfg.IGDB.ClientSecret, "GAMELEDGER_IGDB_CLIENT_SECRET")
	setStr(&cfg.IGDB.BaseURL, "GAMELEDGER_IGDB_BASE_URL")
	setStr(&cfg.IGDB.TokenURL, "GAMELEDGER_IGDB_TOKEN_URL")

	// ── PriceCharting ──
	setStr(&cfg.PriceCharting.APIToken, "GAMELEDGER_PRICECHARTING_API_TOKEN")
	setStr(&cfg.PriceCharting.BaseURL, "GAMELEDGER_PRICECHARTING_BASE_URL")

	// ── Prices ──
	setStr(&cfg.Prices.DisplayCurrency, "GAMELEDGER_PRICES_DISPLAY_CURRENCY")
	setFloat64(&cfg.Prices.USDToGBPRate, "GAMELEDGER_PRICES_USD_TO_GBP_RATE")
	setBool(&cfg.Prices.PreferBoxed, "GAMELEDGER_PRICES_PREFER_BOXED")

	// ── Thresholds ──
	setBool(&cfg.Thresholds.AutoScrapingEnabled, "GAMELEDGER_THRESHOLDS_AUTO_SCRAPING_ENABLED")
	setStr(&cfg.Thresholds.DefaultPriceSource, "GAMELEDGER_THRESHOLDS_DEFAULT_PRICE_SOURCE")
	setStr(&cfg.Thresholds.DefaultRegion, "GAMELEDGER_THRESHOLDS_DEFAULT_REGION")
	setFloat64(&cfg.Thresholds.DropThresholdPct, "GAMELEDGER_THRESHOLDS_DROP_THRESHOLD_PCT")
	setFloat64(&cfg.Thresholds.IncreasePct, "GAMELEDGER_THRESHOLDS_INCREASE_PCT")
	setFloat64(&cfg.Thresholds.MinPriceThreshold, "GAMELEDGER_THRESHOLDS_MIN_PRICE_THRESHOLD")
	setFloat64(&cfg.Thresholds.MinValueChange, "GAMELEDGER_THRESHOLDS_MIN_VALUE_CHANGE")

	// ── Sweep ──
	setDuration(&cfg.Sweep.Interval, "GAMELEDGER_SWEEP_INTERVAL")
	setDuration(&cfg.Sweep.Pace, "GAMELEDGER_SWEEP_PACE")
	setDuration(&cfg.Sweep.LockTTL, "GAMELEDGER_SWEEP_LOCK_TTL")

	// ── Archive ──
	setInt(&cfg.Archive.RetentionDays, "GAMELEDGER_ARCHIVE_RETENTION_DAYS")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "GAMELEDGER_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "GAMELEDGER_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "GAMELEDGER_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "GAMELEDGER_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "GAMELEDGER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "GAMELEDGER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "GAMELEDGER_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "GAMELEDGER_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "GAMELEDGER_MODE")
	setStr(&cfg.LogLevel, "GAMELEDGER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

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
