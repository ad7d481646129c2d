// Package config loads application settings from the environment and an
// optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the service reads from its environment.
type Config struct {
	// HTTPAddr is the address the API server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"TENURE_HTTP_ADDR"`
	// PostgresDSN is the Postgres connection string. Empty runs the API on
	// the in-memory store (demo mode).
	PostgresDSN string `mapstructure:"TENURE_PG_DSN"`
	// AuthSecret signs session tokens (HS256). Required.
	AuthSecret string `mapstructure:"TENURE_AUTH_SECRET"`
	// TokenTTL is the session token lifetime.
	TokenTTL time.Duration `mapstructure:"TENURE_TOKEN_TTL"`
	// CookieName is the session cookie name.
	CookieName string `mapstructure:"TENURE_COOKIE_NAME"`
	// CookieSecure marks the session cookie Secure.
	CookieSecure bool `mapstructure:"TENURE_COOKIE_SECURE"`
	// ClientOrigins is a comma-separated list of allowed CORS origins.
	ClientOrigins string `mapstructure:"TENURE_CLIENT_ORIGINS"`
	// RateBurst / RatePerSec tune the per-IP token bucket.
	RateBurst  int `mapstructure:"TENURE_RATE_BURST"`
	RatePerSec int `mapstructure:"TENURE_RATE_PER_SEC"`
	// MaxBodyBytes caps request body size.
	MaxBodyBytes int64 `mapstructure:"TENURE_MAX_BODY_BYTES"`
	// MigrationsDir is where cmd/migrate finds *.up.sql files.
	MigrationsDir string `mapstructure:"TENURE_MIGRATIONS_DIR"`
	// LogLevel is zap's level: debug, info, warn, error.
	LogLevel string `mapstructure:"TENURE_LOG_LEVEL"`
}

// Origins splits ClientOrigins into a trimmed, non-empty list.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.ClientOrigins, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Load reads .env (if present), then builds Config from the environment.
// Missing .env is ignored; env vars override .env values.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("TENURE_HTTP_ADDR", ":8080")
	v.SetDefault("TENURE_PG_DSN", "")
	v.SetDefault("TENURE_AUTH_SECRET", "")
	v.SetDefault("TENURE_TOKEN_TTL", "168h")
	v.SetDefault("TENURE_COOKIE_NAME", "tenure_session")
	v.SetDefault("TENURE_COOKIE_SECURE", false)
	v.SetDefault("TENURE_CLIENT_ORIGINS", "http://localhost:5173")
	v.SetDefault("TENURE_RATE_BURST", 20)
	v.SetDefault("TENURE_RATE_PER_SEC", 10)
	v.SetDefault("TENURE_MAX_BODY_BYTES", 1<<20)
	v.SetDefault("TENURE_MIGRATIONS_DIR", "migrations")
	v.SetDefault("TENURE_LOG_LEVEL", "info")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: TENURE_HTTP_ADDR must be set")
	}
	if strings.TrimSpace(cfg.AuthSecret) == "" {
		return nil, errors.New("config: TENURE_AUTH_SECRET must be set")
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("config: TENURE_TOKEN_TTL must be positive")
	}
	if cfg.RateBurst <= 0 || cfg.RatePerSec <= 0 {
		return nil, errors.New("config: rate limit values must be positive")
	}
	return &cfg, nil
}
