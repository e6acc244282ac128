// Package metrics provides Prometheus metrics collection for gymdesk.
package metrics

import (
	"strings"

	"github.com/artpar/gymdesk/domain/billing"
	"github.com/artpar/gymdesk/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

const namespace = "gymdesk"

// Collector holds all Prometheus metrics for gymdesk.
type Collector struct {
	// Request metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	// Auth metrics
	LoginFailures *prometheus.CounterVec
	Lockouts      prometheus.Counter
	RateLimitHits prometheus.Counter

	// Billing metrics
	PaymentsRecorded prometheus.Counter
	PaymentsAmount   prometheus.Counter
	MembersByStatus  *prometheus.GaugeVec
	ArrearsTotal     prometheus.Gauge

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a collector registered with the default Prometheus registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new metrics collector with a custom registry.
// Useful for testing to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Number of requests currently being processed",
			},
		),

		LoginFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_failures_total",
				Help:      "Failed staff logins by reason",
			},
			[]string{"reason"},
		),
		Lockouts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_lockouts_total",
				Help:      "Number of times a client was locked out of login",
			},
		),
		RateLimitHits: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "login_rate_limit_hits_total",
				Help:      "Login requests rejected by the request-rate limiter",
			},
		),

		PaymentsRecorded: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_recorded_total",
				Help:      "Number of membership payments recorded",
			},
		),
		PaymentsAmount: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "payments_amount_total",
				Help:      "Sum of recorded payment amounts",
			},
		),
		MembersByStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "members",
				Help:      "Members by standing at the last dashboard computation",
			},
			[]string{"status"},
		),
		ArrearsTotal: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "arrears_amount",
				Help:      "Total amount owed by active members at the last dashboard computation",
			},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
}

// LoginFailed counts a failed login.
func (c *Collector) LoginFailed(reason string) {
	c.LoginFailures.WithLabelValues(reason).Inc()
}

// LoginLocked counts a lockout.
func (c *Collector) LoginLocked() {
	c.Lockouts.Inc()
}

// PaymentRecorded counts a payment and its amount.
func (c *Collector) PaymentRecorded(amount decimal.Decimal) {
	c.PaymentsRecorded.Inc()
	f, _ := amount.Float64()
	if f > 0 {
		c.PaymentsAmount.Add(f)
	}
}

// StandingsComputed publishes the latest member counts and arrears.
func (c *Collector) StandingsComputed(counts map[billing.Status]int, arrears decimal.Decimal) {
	for _, s := range billing.Statuses {
		c.MembersByStatus.WithLabelValues(string(s)).Set(float64(counts[s]))
	}
	f, _ := arrears.Float64()
	c.ArrearsTotal.Set(f)
}

var _ ports.Metrics = (*Collector)(nil)

// NormalizePath reduces cardinality by replacing ID segments with ":id".
// e.g., /members/mem_0b6c.../payments -> /members/:id/payments
func NormalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if looksLikeID(p) {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

func looksLikeID(segment string) bool {
	for _, prefix := range []string{"mem_", "pay_", "usr_"} {
		if strings.HasPrefix(segment, prefix) {
			return true
		}
	}
	if segment == "" {
		return false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
