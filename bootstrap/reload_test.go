package bootstrap

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/artpar/gymdesk/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func testApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("GYMDESK_DATABASE_DSN", filepath.Join(t.TempDir(), "gym.db"))
	t.Setenv("GYMDESK_AUTH_BCRYPT_COST", "4")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		t.Fatal(err)
	}
	a, err := NewWithConfig(cfg, Options{Registry: prometheus.NewRegistry(), LogOutput: io.Discard})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		a.Close()
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})
	return a
}

func TestApplyConfig(t *testing.T) {
	a := testApp(t)

	next := *a.Config
	next.Auth.MaxAttempts = 3
	next.Auth.LockMinutes = 30
	next.Billing.MaxMonthlyFee = "500.00"
	next.Server.LoginRatePerSecond = 2
	next.Server.LoginBurst = 7
	next.Logging.Level = "warn"

	a.applyConfig(&next)

	lockout := a.Auth.Config().Lockout
	if lockout.MaxAttempts != 3 || lockout.LockFor.Minutes() != 30 || lockout.Window.Minutes() != 30 {
		t.Errorf("lockout = %+v", lockout)
	}
	if !a.Members.Limits().MaxMonthlyFee.Equal(decimal.RequireFromString("500")) {
		t.Errorf("max fee = %s, want 500", a.Members.Limits().MaxMonthlyFee)
	}
	if a.limiter.Limit() != 2 || a.limiter.Burst() != 7 {
		t.Errorf("limiter = %v/%d, want 2/7", a.limiter.Limit(), a.limiter.Burst())
	}
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Errorf("global level = %s, want warn", zerolog.GlobalLevel())
	}
	if got := testutil.ToFloat64(a.Metrics.ConfigReloads); got != 1 {
		t.Errorf("config reloads = %v, want 1", got)
	}
}

func TestMaintenanceJobs(t *testing.T) {
	a := testApp(t)
	ctx := context.Background()

	if _, err := a.Seeder.Seed(ctx, 7); err != nil {
		t.Fatalf("seed: %v", err)
	}

	a.cleanup()
	a.refreshStats()

	if n := testutil.CollectAndCount(a.Metrics.MembersByStatus); n == 0 {
		t.Error("member gauges should be published after a refresh")
	}
	if len(a.cron.Entries()) != 2 {
		t.Errorf("scheduled jobs = %d, want 2", len(a.cron.Entries()))
	}
}
