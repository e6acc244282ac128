// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // billing.timezone must resolve without system zoneinfo

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Auth        AuthConfig        `yaml:"auth"`
	Billing     BillingConfig     `yaml:"billing"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	OpenAPI     OpenAPIConfig     `yaml:"openapi"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Process-wide token bucket in front of POST /auth/login.
	LoginRatePerSecond float64 `yaml:"login_rate_per_second"`
	LoginBurst         int     `yaml:"login_burst"`
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // only "sqlite"
	DSN    string `yaml:"dsn"`
}

// AuthConfig configures staff sessions and the login lockout.
type AuthConfig struct {
	SessionTTL   time.Duration `yaml:"session_ttl"`
	MaxAttempts  int           `yaml:"max_attempts"` // failures before locking
	LockMinutes  int           `yaml:"lock_minutes"` // lock duration and counting window
	BcryptCost   int           `yaml:"bcrypt_cost"`
	CookieSecure bool          `yaml:"cookie_secure"`
}

// BillingConfig configures membership billing.
type BillingConfig struct {
	MaxMonthlyFee string `yaml:"max_monthly_fee"` // decimal, e.g. "999.99"
	Timezone      string `yaml:"timezone"`        // decides which day is "today"
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// OpenAPIConfig configures OpenAPI/Swagger documentation.
type OpenAPIConfig struct {
	Enabled bool `yaml:"enabled"` // Enable OpenAPI endpoints
}

// MaintenanceConfig schedules background jobs. Schedules use cron syntax
// including descriptors such as "@every 10m".
type MaintenanceConfig struct {
	CleanupSchedule string `yaml:"cleanup_schedule"` // expired sessions and stale login attempts
	StatsSchedule   string `yaml:"stats_schedule"`   // refresh of the standing gauges
}

// Bcrypt cost bounds accepted by golang.org/x/crypto/bcrypt.
const (
	minBcryptCost = 4
	maxBcryptCost = 31
)

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Config{
		Metrics: MetricsConfig{Enabled: true},
		OpenAPI: OpenAPIConfig{Enabled: true},
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// This is useful for Docker deployments where no config file is needed.
//
// Environment variables:
//
//	GYMDESK_SERVER_HOST            - Server host (default: 0.0.0.0)
//	GYMDESK_SERVER_PORT            - Server port (default: 8080)
//	GYMDESK_LOGIN_RATE             - Login requests per second (default: 5)
//	GYMDESK_LOGIN_BURST            - Login burst size (default: 10)
//	GYMDESK_DATABASE_DSN           - Database path (default: gymdesk.db)
//	GYMDESK_AUTH_SESSION_TTL       - Session lifetime (default: 8h)
//	GYMDESK_AUTH_MAX_ATTEMPTS      - Failures before locking (default: 5)
//	GYMDESK_AUTH_LOCK_MINUTES      - Lock duration in minutes (default: 15)
//	GYMDESK_AUTH_BCRYPT_COST       - bcrypt cost (default: 10)
//	GYMDESK_AUTH_COOKIE_SECURE     - Mark the session cookie Secure
//	GYMDESK_BILLING_MAX_FEE        - Largest monthly fee (default: 999.99)
//	GYMDESK_BILLING_TIMEZONE       - IANA timezone for "today" (default: UTC)
//	GYMDESK_LOG_LEVEL              - Log level: debug, info, warn, error (default: info)
//	GYMDESK_LOG_FORMAT             - Log format: json or console (default: json)
//	GYMDESK_METRICS_ENABLED        - Enable /metrics endpoint (default: true)
//	GYMDESK_OPENAPI_ENABLED        - Enable OpenAPI/Swagger (default: true)
//	GYMDESK_CLEANUP_SCHEDULE       - Auth cleanup schedule (default: @every 10m)
//	GYMDESK_STATS_SCHEDULE         - Gauge refresh schedule (default: @every 5m)
func LoadFromEnv() (*Config, error) {
	cfg := Config{
		Metrics: MetricsConfig{Enabled: true},
		OpenAPI: OpenAPIConfig{Enabled: true},
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads from file when it exists and falls back to
// environment variables otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// HasEnvConfig returns true if the database location is set in the environment.
func HasEnvConfig() bool {
	return os.Getenv("GYMDESK_DATABASE_DSN") != ""
}

// applyEnvOverrides applies GYMDESK_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("GYMDESK_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("GYMDESK_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("GYMDESK_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("GYMDESK_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if v := os.Getenv("GYMDESK_LOGIN_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Server.LoginRatePerSecond = f
		}
	}
	if v := os.Getenv("GYMDESK_LOGIN_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.LoginBurst = n
		}
	}

	// Database configuration
	if v := os.Getenv("GYMDESK_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("GYMDESK_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	// Auth configuration
	if v := os.Getenv("GYMDESK_AUTH_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Auth.SessionTTL = d
		}
	}
	if v := os.Getenv("GYMDESK_AUTH_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Auth.MaxAttempts = n
		}
	}
	if v := os.Getenv("GYMDESK_AUTH_LOCK_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Auth.LockMinutes = n
		}
	}
	if v := os.Getenv("GYMDESK_AUTH_BCRYPT_COST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Auth.BcryptCost = n
		}
	}
	if v := os.Getenv("GYMDESK_AUTH_COOKIE_SECURE"); v != "" {
		cfg.Auth.CookieSecure = parseBool(v)
	}

	// Billing configuration
	if v := os.Getenv("GYMDESK_BILLING_MAX_FEE"); v != "" {
		cfg.Billing.MaxMonthlyFee = v
	}
	if v := os.Getenv("GYMDESK_BILLING_TIMEZONE"); v != "" {
		cfg.Billing.Timezone = v
	}

	// Logging configuration
	if v := os.Getenv("GYMDESK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("GYMDESK_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("GYMDESK_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("GYMDESK_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	// OpenAPI configuration
	if v := os.Getenv("GYMDESK_OPENAPI_ENABLED"); v != "" {
		cfg.OpenAPI.Enabled = parseBool(v)
	}

	// Maintenance configuration
	if v := os.Getenv("GYMDESK_CLEANUP_SCHEDULE"); v != "" {
		cfg.Maintenance.CleanupSchedule = v
	}
	if v := os.Getenv("GYMDESK_STATS_SCHEDULE"); v != "" {
		cfg.Maintenance.StatsSchedule = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.LoginRatePerSecond == 0 {
		cfg.Server.LoginRatePerSecond = 5
	}
	if cfg.Server.LoginBurst == 0 {
		cfg.Server.LoginBurst = 10
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "gymdesk.db"
	}

	if cfg.Auth.SessionTTL == 0 {
		cfg.Auth.SessionTTL = 8 * time.Hour
	}
	if cfg.Auth.MaxAttempts == 0 {
		cfg.Auth.MaxAttempts = 5
	}
	if cfg.Auth.LockMinutes == 0 {
		cfg.Auth.LockMinutes = 15
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 10
	}

	if cfg.Billing.MaxMonthlyFee == "" {
		cfg.Billing.MaxMonthlyFee = "999.99"
	}
	if cfg.Billing.Timezone == "" {
		cfg.Billing.Timezone = "UTC"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Maintenance.CleanupSchedule == "" {
		cfg.Maintenance.CleanupSchedule = "@every 10m"
	}
	if cfg.Maintenance.StatsSchedule == "" {
		cfg.Maintenance.StatsSchedule = "@every 5m"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if cfg.Server.LoginRatePerSecond < 0 {
		return fmt.Errorf("server.login_rate_per_second cannot be negative")
	}
	if cfg.Server.LoginBurst < 1 {
		return fmt.Errorf("server.login_burst must be at least 1")
	}

	if cfg.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be 'sqlite', got %q", cfg.Database.Driver)
	}

	if cfg.Auth.SessionTTL < time.Minute {
		return fmt.Errorf("auth.session_ttl must be at least 1m")
	}
	if cfg.Auth.MaxAttempts < 1 {
		return fmt.Errorf("auth.max_attempts must be at least 1")
	}
	if cfg.Auth.LockMinutes < 1 {
		return fmt.Errorf("auth.lock_minutes must be at least 1")
	}
	if cfg.Auth.BcryptCost < minBcryptCost || cfg.Auth.BcryptCost > maxBcryptCost {
		return fmt.Errorf("auth.bcrypt_cost must be between %d and %d", minBcryptCost, maxBcryptCost)
	}

	if _, err := cfg.Billing.MaxFee(); err != nil {
		return err
	}
	if _, err := time.LoadLocation(cfg.Billing.Timezone); err != nil {
		return fmt.Errorf("billing.timezone: %w", err)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if _, err := cron.ParseStandard(cfg.Maintenance.CleanupSchedule); err != nil {
		return fmt.Errorf("maintenance.cleanup_schedule: %w", err)
	}
	if _, err := cron.ParseStandard(cfg.Maintenance.StatsSchedule); err != nil {
		return fmt.Errorf("maintenance.stats_schedule: %w", err)
	}

	return nil
}

// MaxFee parses the configured maximum monthly fee.
func (b BillingConfig) MaxFee() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(b.MaxMonthlyFee)
	if err != nil {
		return decimal.Zero, fmt.Errorf("billing.max_monthly_fee: %w", err)
	}
	if !fee.IsPositive() {
		return decimal.Zero, fmt.Errorf("billing.max_monthly_fee must be positive")
	}
	return fee, nil
}

// LockDuration returns the lock duration, also used as the counting window.
func (a AuthConfig) LockDuration() time.Duration {
	return time.Duration(a.LockMinutes) * time.Minute
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
