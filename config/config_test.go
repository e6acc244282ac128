package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/gymdesk/config"
	"github.com/shopspring/decimal"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090
  login_rate_per_second: 2.5
  login_burst: 4

database:
  driver: "sqlite"
  dsn: ":memory:"

auth:
  session_ttl: 2h
  max_attempts: 3
  lock_minutes: 10
  bcrypt_cost: 4

billing:
  max_monthly_fee: "500.00"
  timezone: "America/Recife"

logging:
  level: "debug"
  format: "console"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Errorf("Addr = %s, want 127.0.0.1:9090", cfg.Server.Addr())
	}
	if cfg.Server.LoginRatePerSecond != 2.5 || cfg.Server.LoginBurst != 4 {
		t.Errorf("login rate = %v/%d, want 2.5/4", cfg.Server.LoginRatePerSecond, cfg.Server.LoginBurst)
	}
	if cfg.Database.DSN != ":memory:" {
		t.Errorf("Database.DSN = %s, want :memory:", cfg.Database.DSN)
	}
	if cfg.Auth.SessionTTL != 2*time.Hour {
		t.Errorf("Auth.SessionTTL = %v, want 2h", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.MaxAttempts != 3 || cfg.Auth.LockDuration() != 10*time.Minute {
		t.Errorf("lockout = %d/%v, want 3/10m", cfg.Auth.MaxAttempts, cfg.Auth.LockDuration())
	}
	fee, err := cfg.Billing.MaxFee()
	if err != nil || !fee.Equal(decimal.NewFromInt(500)) {
		t.Errorf("MaxFee = %s, %v, want 500", fee, err)
	}
	if cfg.Billing.Timezone != "America/Recife" {
		t.Errorf("Billing.Timezone = %s, want America/Recife", cfg.Billing.Timezone)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %s, want console", cfg.Logging.Format)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg := writeAndLoad(t, "")

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default Host = %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN != "gymdesk.db" {
		t.Errorf("default Database = %+v", cfg.Database)
	}
	if cfg.Auth.SessionTTL != 8*time.Hour {
		t.Errorf("default SessionTTL = %v, want 8h", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.MaxAttempts != 5 || cfg.Auth.LockMinutes != 15 {
		t.Errorf("default lockout = %d/%d, want 5/15", cfg.Auth.MaxAttempts, cfg.Auth.LockMinutes)
	}
	if cfg.Auth.BcryptCost != 10 {
		t.Errorf("default BcryptCost = %d, want 10", cfg.Auth.BcryptCost)
	}
	if cfg.Billing.MaxMonthlyFee != "999.99" || cfg.Billing.Timezone != "UTC" {
		t.Errorf("default Billing = %+v", cfg.Billing)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("default Logging = %+v", cfg.Logging)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Errorf("default Metrics = %+v", cfg.Metrics)
	}
	if !cfg.OpenAPI.Enabled {
		t.Error("default OpenAPI.Enabled = false, want true")
	}
	if cfg.Maintenance.CleanupSchedule != "@every 10m" || cfg.Maintenance.StatsSchedule != "@every 5m" {
		t.Errorf("default Maintenance = %+v", cfg.Maintenance)
	}
}

func TestLoad_MaintenanceSchedules(t *testing.T) {
	cfg := writeAndLoad(t, `
maintenance:
  cleanup_schedule: "0 3 * * *"
  stats_schedule: "@hourly"
`)

	if cfg.Maintenance.CleanupSchedule != "0 3 * * *" || cfg.Maintenance.StatsSchedule != "@hourly" {
		t.Errorf("Maintenance = %+v", cfg.Maintenance)
	}
}

func TestLoad_DisableMetrics(t *testing.T) {
	cfg := writeAndLoad(t, `
metrics:
  enabled: false
openapi:
  enabled: false
`)

	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
	if cfg.OpenAPI.Enabled {
		t.Error("OpenAPI.Enabled = true, want false")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_GYMDESK_DB", "/data/env.db")

	cfg := writeAndLoad(t, `
database:
  dsn: "${TEST_GYMDESK_DB}"
`)

	if cfg.Database.DSN != "/data/env.db" {
		t.Errorf("Database.DSN = %s, want /data/env.db", cfg.Database.DSN)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad driver", "database:\n  driver: postgres\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"negative rate", "server:\n  login_rate_per_second: -1\n"},
		{"short session", "auth:\n  session_ttl: 10s\n"},
		{"negative attempts", "auth:\n  max_attempts: -1\n"},
		{"bcrypt cost", "auth:\n  bcrypt_cost: 40\n"},
		{"fee not a number", "billing:\n  max_monthly_fee: abc\n"},
		{"fee negative", "billing:\n  max_monthly_fee: \"-5\"\n"},
		{"timezone", "billing:\n  timezone: Mars/Olympus\n"},
		{"log level", "logging:\n  level: verbose\n"},
		{"log format", "logging:\n  format: xml\n"},
		{"cleanup schedule", "maintenance:\n  cleanup_schedule: sometimes\n"},
		{"stats schedule", "maintenance:\n  stats_schedule: \"61 * * * *\"\n"},
		{"yaml", "server: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := writeAndLoadErr(t, tt.content); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := config.Load("/nonexistent/gymdesk.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GYMDESK_SERVER_PORT", "9999")
	t.Setenv("GYMDESK_DATABASE_DSN", "/tmp/env-test.db")
	t.Setenv("GYMDESK_LOG_LEVEL", "debug")
	t.Setenv("GYMDESK_METRICS_ENABLED", "false")
	t.Setenv("GYMDESK_AUTH_SESSION_TTL", "30m")
	t.Setenv("GYMDESK_AUTH_MAX_ATTEMPTS", "3")
	t.Setenv("GYMDESK_AUTH_COOKIE_SECURE", "yes")
	t.Setenv("GYMDESK_BILLING_MAX_FEE", "250.50")
	t.Setenv("GYMDESK_LOGIN_RATE", "0.5")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Database.DSN != "/tmp/env-test.db" {
		t.Errorf("Database.DSN = %s, want /tmp/env-test.db", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
	if cfg.Auth.SessionTTL != 30*time.Minute || cfg.Auth.MaxAttempts != 3 || !cfg.Auth.CookieSecure {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if cfg.Billing.MaxMonthlyFee != "250.50" {
		t.Errorf("Billing.MaxMonthlyFee = %s, want 250.50", cfg.Billing.MaxMonthlyFee)
	}
	if cfg.Server.LoginRatePerSecond != 0.5 {
		t.Errorf("LoginRatePerSecond = %v, want 0.5", cfg.Server.LoginRatePerSecond)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("GYMDESK_SERVER_PORT", "7777")
	t.Setenv("GYMDESK_LOG_LEVEL", "error")

	cfg := writeAndLoad(t, `
server:
  port: 8080
logging:
  level: "info"
database:
  dsn: "file.db"
`)

	// Env should override file
	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want 7777 (env override)", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Logging.Level = %s, want error (env override)", cfg.Logging.Level)
	}
	// File value should still be used for non-overridden
	if cfg.Database.DSN != "file.db" {
		t.Errorf("Database.DSN = %s, want file.db", cfg.Database.DSN)
	}
}

func TestEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("GYMDESK_SERVER_PORT", "not-a-port")
	t.Setenv("GYMDESK_AUTH_SESSION_TTL", "forever")
	t.Setenv("GYMDESK_AUTH_MAX_ATTEMPTS", "many")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Auth.SessionTTL != 8*time.Hour || cfg.Auth.MaxAttempts != 5 {
		t.Errorf("invalid env values should fall back to defaults, got %+v %+v", cfg.Server, cfg.Auth)
	}
}

func TestLoadWithFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gymdesk.yaml")
	if err := os.WriteFile(path, []byte("database:\n  dsn: from-file.db\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Database.DSN != "from-file.db" {
		t.Errorf("Database.DSN = %s, want from-file.db", cfg.Database.DSN)
	}

	t.Setenv("GYMDESK_DATABASE_DSN", "from-env.db")
	cfg, err = config.LoadWithFallback(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Database.DSN != "from-env.db" {
		t.Errorf("Database.DSN = %s, want from-env.db", cfg.Database.DSN)
	}

	cfg, err = config.LoadWithFallback("")
	if err != nil || cfg == nil {
		t.Fatalf("LoadWithFallback(\"\") = %v, %v", cfg, err)
	}
}

func TestHasEnvConfig(t *testing.T) {
	t.Setenv("GYMDESK_DATABASE_DSN", "")
	if config.HasEnvConfig() {
		t.Error("HasEnvConfig() = true, want false")
	}

	t.Setenv("GYMDESK_DATABASE_DSN", "/data/gymdesk.db")
	if !config.HasEnvConfig() {
		t.Error("HasEnvConfig() = false, want true")
	}
}

// Helpers

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := writeAndLoadErr(t, content)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func writeAndLoadErr(t *testing.T, content string) (*config.Config, error) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return config.Load(path)
}
