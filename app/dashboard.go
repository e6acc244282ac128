package app

import (
	"context"
	"fmt"
	"time"

	"github.com/artpar/gymdesk/domain/billing"
	"github.com/artpar/gymdesk/domain/dashboard"
	"github.com/artpar/gymdesk/ports"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DashboardDeps contains dependencies for DashboardService.
type DashboardDeps struct {
	Members  ports.MemberStore
	Payments ports.PaymentStore
	Clock    ports.Clock
	Metrics  ports.Metrics
	Logger   zerolog.Logger
}

// DashboardService computes staff-facing statistics and reports.
type DashboardService struct {
	members  ports.MemberStore
	payments ports.PaymentStore
	clock    ports.Clock
	metrics  ports.Metrics
	logger   zerolog.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(deps DashboardDeps) *DashboardService {
	if deps.Metrics == nil {
		deps.Metrics = NopMetrics{}
	}
	return &DashboardService{
		members:  deps.Members,
		payments: deps.Payments,
		clock:    deps.Clock,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
}

// Stats computes the dashboard for the current period.
func (s *DashboardService) Stats(ctx context.Context) (dashboard.Stats, error) {
	return s.StatsAt(ctx, s.Today())
}

// StatsAt computes the dashboard as of ref.
func (s *DashboardService) StatsAt(ctx context.Context, ref time.Time) (dashboard.Stats, error) {
	ref = billing.Date(ref)
	snap, err := s.snapshotAt(ctx, ref)
	if err != nil {
		return dashboard.Stats{}, err
	}
	rows := snap.rows()

	var received decimal.Decimal
	if snap.historical {
		received = dashboard.Received(snap.payments, billing.PeriodOf(ref))
	} else {
		received, err = s.payments.SumForPeriod(ctx, billing.PeriodOf(ref))
		if err != nil {
			return dashboard.Stats{}, fmt.Errorf("sum payments: %w", err)
		}
	}

	stats := dashboard.Summarize(rows, received, ref)
	s.metrics.StandingsComputed(dashboard.CountByStatus(rows), stats.TotalArrears)

	s.logger.Debug().
		Stringer("period", stats.Period).
		Int("active", stats.ActiveMembers).
		Int("paid", len(stats.Paid)).
		Int("overdue", len(stats.Overdue)).
		Msg("dashboard computed")

	return stats, nil
}

// Delinquents lists active members with unpaid periods as of today.
func (s *DashboardService) Delinquents(ctx context.Context) ([]dashboard.Delinquent, error) {
	return s.DelinquentsAt(ctx, s.Today())
}

// DelinquentsAt lists active members with unpaid periods as of ref.
func (s *DashboardService) DelinquentsAt(ctx context.Context, ref time.Time) ([]dashboard.Delinquent, error) {
	ref = billing.Date(ref)
	snap, err := s.snapshotAt(ctx, ref)
	if err != nil {
		return nil, err
	}
	return dashboard.Delinquents(snap.rows(), ref), nil
}

// snapshot is the stored data as seen from ref.
type snapshot struct {
	ref        time.Time
	members    []billing.Member
	payments   map[string][]billing.Payment
	historical bool // ref is before today
}

func (s snapshot) rows() []dashboard.Row {
	return dashboard.BuildRows(s.members, s.payments, s.ref)
}

// snapshotAt loads members and payments. For a past ref, members enrolled
// and payments made after ref are left out.
func (s *DashboardService) snapshotAt(ctx context.Context, ref time.Time) (snapshot, error) {
	members, payments, err := loadSnapshot(ctx, s.members, s.payments)
	if err != nil {
		return snapshot{}, err
	}
	snap := snapshot{ref: ref, members: members, payments: payments}
	if ref.Before(s.Today()) {
		snap.members, snap.payments = dashboard.AsOf(members, payments, ref)
		snap.historical = true
	}
	return snap, nil
}

// Today returns the clock's current calendar date.
func (s *DashboardService) Today() time.Time {
	return billing.Date(s.clock.Now())
}
