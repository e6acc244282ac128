package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/artpar/gymdesk/adapters/clock"
	"github.com/artpar/gymdesk/adapters/hasher"
	"github.com/artpar/gymdesk/adapters/idgen"
	"github.com/artpar/gymdesk/adapters/memory"
	"github.com/artpar/gymdesk/adapters/random"
	"github.com/artpar/gymdesk/app"
	"github.com/artpar/gymdesk/domain/billing"
	"github.com/artpar/gymdesk/domain/member"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// recordingMetrics captures business events for assertions.
type recordingMetrics struct {
	mu       sync.Mutex
	failures map[string]int
	locks    int
	payments []decimal.Decimal
	counts   map[billing.Status]int
	arrears  decimal.Decimal
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{failures: make(map[string]int)}
}

func (m *recordingMetrics) LoginFailed(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[reason]++
}

func (m *recordingMetrics) LoginLocked() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks++
}

func (m *recordingMetrics) PaymentRecorded(amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments = append(m.payments, amount)
}

func (m *recordingMetrics) StandingsComputed(counts map[billing.Status]int, arrears decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts = counts
	m.arrears = arrears
}

type fixture struct {
	clock    *clock.Fake
	members  *memory.MemberStore
	payments *memory.PaymentStore
	staff    *memory.StaffStore
	sessions *memory.SessionStore
	attempts *memory.AttemptStore
	metrics  *recordingMetrics

	memberSvc    *app.MemberService
	paymentSvc   *app.PaymentService
	dashboardSvc *app.DashboardService
	authSvc      *app.AuthService
	staffSvc     *app.StaffService
}

func newFixture(t *testing.T, year int, month time.Month, day int) *fixture {
	t.Helper()

	f := &fixture{
		clock:    clock.NewFakeDate(year, month, day),
		members:  memory.NewMemberStore(),
		payments: memory.NewPaymentStore(),
		staff:    memory.NewStaffStore(),
		sessions: memory.NewSessionStore(),
		attempts: memory.NewAttemptStore(),
		metrics:  newRecordingMetrics(),
	}
	logger := zerolog.Nop()

	f.memberSvc = app.NewMemberService(app.MemberDeps{
		Members:  f.members,
		Payments: f.payments,
		IDGen:    idgen.NewSequential(idgen.PrefixMember),
		Clock:    f.clock,
		Logger:   logger,
	}, member.DefaultLimits())

	f.paymentSvc = app.NewPaymentService(app.PaymentDeps{
		Members:  f.members,
		Payments: f.payments,
		IDGen:    idgen.NewSequential(idgen.PrefixPayment),
		Clock:    f.clock,
		Metrics:  f.metrics,
		Logger:   logger,
	})

	f.dashboardSvc = app.NewDashboardService(app.DashboardDeps{
		Members:  f.members,
		Payments: f.payments,
		Clock:    f.clock,
		Metrics:  f.metrics,
		Logger:   logger,
	})

	f.authSvc = app.NewAuthService(app.AuthDeps{
		Staff:    f.staff,
		Sessions: f.sessions,
		Attempts: f.attempts,
		Hasher:   hasher.Fake{},
		Clock:    f.clock,
		Metrics:  f.metrics,
		Logger:   logger,
	}, app.DefaultAuthConfig())

	f.staffSvc = app.NewStaffService(app.StaffDeps{
		Staff:    f.staff,
		Sessions: f.sessions,
		Hasher:   hasher.Fake{},
		Random:   random.NewFake(),
		IDGen:    idgen.NewSequential(idgen.PrefixStaff),
		Clock:    f.clock,
		Logger:   logger,
	})

	return f
}

func (f *fixture) register(t *testing.T, name, phone, fee string, dueDay int) billing.Member {
	t.Helper()
	res, err := f.memberSvc.Register(context.Background(), member.Registration{
		Name:       name,
		Phone:      phone,
		MonthlyFee: decimal.RequireFromString(fee),
		DueDay:     dueDay,
	})
	require.NoError(t, err)
	return res.Member
}

func (f *fixture) pay(t *testing.T, memberID, amount string) billing.Payment {
	t.Helper()
	p, err := f.paymentSvc.Record(context.Background(), app.PaymentRequest{
		MemberID: memberID,
		Amount:   decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
	return p
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
