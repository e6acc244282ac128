// Package bootstrap wires all dependencies and starts the application.
// Configuration comes from a YAML file when one exists, otherwise from
// GYMDESK_* environment variables only.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/artpar/gymdesk/adapters/clock"
	"github.com/artpar/gymdesk/adapters/hasher"
	apihttp "github.com/artpar/gymdesk/adapters/http"
	"github.com/artpar/gymdesk/adapters/idgen"
	"github.com/artpar/gymdesk/adapters/metrics"
	"github.com/artpar/gymdesk/adapters/random"
	"github.com/artpar/gymdesk/adapters/sqlite"
	"github.com/artpar/gymdesk/app"
	"github.com/artpar/gymdesk/config"
	"github.com/artpar/gymdesk/domain/member"
	"github.com/artpar/gymdesk/domain/ratelimit"
	"github.com/artpar/gymdesk/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultConfigPath is used when no --config flag is given.
const DefaultConfigPath = "gymdesk.yaml"

// Options controls how the application is built.
type Options struct {
	// ConfigPath is the YAML file to load. A missing file falls back to
	// environment variables; the file is then not watched.
	ConfigPath string

	// Version is reported by /version.
	Version string

	// Registry receives the Prometheus collectors. Defaults to the global
	// registry; tests pass their own to avoid duplicate registration.
	Registry *prometheus.Registry

	// LogOutput defaults to stderr so command output on stdout stays clean.
	LogOutput io.Writer
}

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config // configuration at startup
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	// Services
	Members   *app.MemberService
	Payments  *app.PaymentService
	Dashboard *app.DashboardService
	Auth      *app.AuthService
	Staff     *app.StaffService
	Seeder    *app.Seeder

	holder      *config.Holder
	limiter     *rate.Limiter
	authHandler *apihttp.AuthHandler
	cron        *cron.Cron
}

// New loads configuration and initializes the application.
func New(opts Options) (*App, error) {
	if opts.ConfigPath == "" {
		opts.ConfigPath = DefaultConfigPath
	}

	if _, err := os.Stat(opts.ConfigPath); err != nil {
		cfg, err := config.LoadFromEnv()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return NewWithConfig(cfg, opts)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	a, err := NewWithConfig(cfg, opts)
	if err != nil {
		return nil, err
	}

	holder, err := config.NewHolder(opts.ConfigPath, a.Logger.With().Str("config", opts.ConfigPath).Logger())
	if err != nil {
		a.Close()
		return nil, err
	}
	a.attachHolder(holder)
	return a, nil
}

// NewWithConfig initializes the application from an already loaded config.
func NewWithConfig(cfg *config.Config, opts Options) (*App, error) {
	logger := setupLogger(cfg.Logging, opts.LogOutput)
	logger.Debug().Str("dsn", cfg.Database.DSN).Msg("initializing gymdesk")

	a := &App{
		Logger: logger,
		Config: cfg,
	}

	if err := a.initDatabase(cfg.Database); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if cfg.Metrics.Enabled {
		if opts.Registry != nil {
			a.Metrics = metrics.NewWithRegistry(opts.Registry)
		} else {
			a.Metrics = metrics.New()
		}
	}

	if err := a.initServices(cfg); err != nil {
		a.DB.Close()
		return nil, err
	}

	a.initHTTPServer(cfg, opts)

	if err := a.initMaintenance(cfg.Maintenance); err != nil {
		a.DB.Close()
		return nil, err
	}

	return a, nil
}

func (a *App) initDatabase(cfg config.DatabaseConfig) error {
	db, err := sqlite.Open(cfg.DSN)
	if err != nil {
		return err
	}

	applied, err := db.Migrate()
	if err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	for _, name := range applied {
		a.Logger.Info().Str("migration", name).Msg("applied migration")
	}

	a.DB = db
	return nil
}

func (a *App) initServices(cfg *config.Config) error {
	loc, err := clock.LoadLocation(cfg.Billing.Timezone)
	if err != nil {
		return fmt.Errorf("billing timezone: %w", err)
	}
	limits, err := memberLimits(cfg)
	if err != nil {
		return err
	}

	clk := clock.NewReal(loc)
	members := sqlite.NewMemberStore(a.DB)
	payments := sqlite.NewPaymentStore(a.DB)
	staff := sqlite.NewStaffStore(a.DB)
	sessions := sqlite.NewSessionStore(a.DB)
	bcrypt := hasher.NewBcrypt(cfg.Auth.BcryptCost)

	var m ports.Metrics = app.NopMetrics{}
	if a.Metrics != nil {
		m = a.Metrics
	}

	a.Members = app.NewMemberService(app.MemberDeps{
		Members:  members,
		Payments: payments,
		IDGen:    idgen.NewUUID(idgen.PrefixMember),
		Clock:    clk,
		Logger:   a.Logger,
	}, limits)

	a.Payments = app.NewPaymentService(app.PaymentDeps{
		Members:  members,
		Payments: payments,
		IDGen:    idgen.NewUUID(idgen.PrefixPayment),
		Clock:    clk,
		Metrics:  m,
		Logger:   a.Logger,
	})

	a.Dashboard = app.NewDashboardService(app.DashboardDeps{
		Members:  members,
		Payments: payments,
		Clock:    clk,
		Metrics:  m,
		Logger:   a.Logger,
	})

	a.Auth = app.NewAuthService(app.AuthDeps{
		Staff:    staff,
		Sessions: sessions,
		Attempts: sqlite.NewAttemptStore(a.DB),
		Hasher:   bcrypt,
		Clock:    clk,
		Metrics:  m,
		Logger:   a.Logger,
	}, authConfig(cfg.Auth))

	a.Staff = app.NewStaffService(app.StaffDeps{
		Staff:    staff,
		Sessions: sessions,
		Hasher:   bcrypt,
		Random:   random.Real{},
		IDGen:    idgen.NewUUID(idgen.PrefixStaff),
		Clock:    clk,
		Logger:   a.Logger,
	})

	a.Seeder = app.NewSeeder(app.SeedDeps{
		Members:    members,
		Payments:   payments,
		MemberIDs:  idgen.NewUUID(idgen.PrefixMember),
		PaymentIDs: idgen.NewUUID(idgen.PrefixPayment),
		Clock:      clk,
		Logger:     a.Logger,
	})

	return nil
}

func (a *App) initHTTPServer(cfg *config.Config, opts Options) {
	a.limiter = apihttp.NewLoginLimiter(cfg.Server.LoginRatePerSecond, cfg.Server.LoginBurst)
	a.authHandler = apihttp.NewAuthHandler(apihttp.AuthHandlerDeps{
		Auth:         a.Auth,
		Limiter:      a.limiter,
		Metrics:      a.Metrics,
		Logger:       a.Logger,
		CookieSecure: cfg.Auth.CookieSecure,
	})

	routerCfg := apihttp.RouterConfig{
		Health:      apihttp.NewHealthHandler(a.DB),
		Auth:        a.authHandler,
		Members:     apihttp.NewMemberHandler(a.Members, a.Payments, a.Logger),
		Reports:     apihttp.NewReportHandler(a.Dashboard, a.Logger),
		Staff:       apihttp.NewStaffHandler(a.Staff, a.Logger),
		Metrics:     a.Metrics,
		MetricsPath: cfg.Metrics.Path,
		Version:     opts.Version,
		OpenAPI:     cfg.OpenAPI.Enabled,
		Logger:      a.Logger,
	}
	if a.Metrics != nil && opts.Registry != nil {
		routerCfg.MetricsHandler = promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})
	}

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      apihttp.NewRouter(routerCfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	a.Logger.Debug().Str("addr", a.HTTPServer.Addr).Msg("http server configured")
}

// initMaintenance schedules session cleanup and the standing gauge refresh.
// Jobs only run once Run starts the scheduler.
func (a *App) initMaintenance(cfg config.MaintenanceConfig) error {
	c := cron.New()

	if _, err := c.AddFunc(cfg.CleanupSchedule, a.cleanup); err != nil {
		return fmt.Errorf("schedule cleanup: %w", err)
	}
	if _, err := c.AddFunc(cfg.StatsSchedule, a.refreshStats); err != nil {
		return fmt.Errorf("schedule stats: %w", err)
	}

	a.cron = c
	return nil
}

func (a *App) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sessions, attempts, err := a.Auth.Cleanup(ctx)
	if err != nil {
		a.Logger.Error().Err(err).Msg("auth cleanup failed")
		return
	}
	if sessions > 0 || attempts > 0 {
		a.Logger.Info().
			Int64("sessions", sessions).
			Int64("attempts", attempts).
			Msg("expired auth records removed")
	}
}

func (a *App) refreshStats() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := a.Dashboard.Stats(ctx); err != nil {
		a.Logger.Error().Err(err).Msg("stats refresh failed")
	}
}

// attachHolder applies reloadable fields whenever the config file changes.
func (a *App) attachHolder(h *config.Holder) {
	a.holder = h
	h.OnChange(a.applyConfig)
	h.OnReloadError(func(error) {
		if a.Metrics != nil {
			a.Metrics.ConfigReloadErrors.Inc()
		}
	})
}

// applyConfig applies the hot-reloadable fields of cfg to running services.
func (a *App) applyConfig(cfg *config.Config) {
	a.Auth.UpdateConfig(authConfig(cfg.Auth))
	a.authHandler.SetCookieSecure(cfg.Auth.CookieSecure)

	if limits, err := memberLimits(cfg); err == nil {
		a.Members.UpdateLimits(limits)
	}

	a.limiter.SetLimit(apihttp.LoginLimit(cfg.Server.LoginRatePerSecond))
	a.limiter.SetBurst(cfg.Server.LoginBurst)

	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	if a.Metrics != nil {
		a.Metrics.ConfigReloads.Inc()
		a.Metrics.ConfigLastReload.SetToCurrentTime()
	}
	a.Logger.Info().Msg("runtime configuration updated")
}

// Run starts the HTTP server and maintenance jobs and blocks until ctx is
// cancelled or the server fails. Either way the application is shut down.
func (a *App) Run(ctx context.Context) error {
	if a.holder != nil {
		if err := a.holder.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("config file watch disabled")
		}
		a.holder.WatchSignals()
	}

	a.cron.Start()
	a.refreshStats()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.Logger.Info().Msg("shutting down")
		return a.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully stops the application.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.holder != nil {
		a.holder.Stop()
		a.holder = nil
	}

	if a.cron != nil {
		select {
		case <-a.cron.Stop().Done():
		case <-ctx.Done():
			a.Logger.Warn().Msg("maintenance jobs still running at shutdown")
		}
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	return a.Close()
}

// Close releases the database. Commands that never call Run use it
// instead of Shutdown.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	err := a.DB.Close()
	a.DB = nil
	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	a.Logger.Debug().Msg("database closed")
	return nil
}

func authConfig(cfg config.AuthConfig) app.AuthConfig {
	return app.AuthConfig{
		SessionTTL: cfg.SessionTTL,
		Lockout: ratelimit.Policy{
			MaxAttempts: cfg.MaxAttempts,
			Window:      cfg.LockDuration(),
			LockFor:     cfg.LockDuration(),
		},
	}
}

func memberLimits(cfg *config.Config) (member.Limits, error) {
	fee, err := cfg.Billing.MaxFee()
	if err != nil {
		return member.Limits{}, err
	}
	return member.Limits{MaxMonthlyFee: fee}, nil
}

func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(out).With().Timestamp().Logger()
}
