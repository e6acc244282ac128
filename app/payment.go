package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/gymdesk/domain/billing"
	"github.com/artpar/gymdesk/ports"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PaymentDeps contains dependencies for PaymentService.
type PaymentDeps struct {
	Members  ports.MemberStore
	Payments ports.PaymentStore
	IDGen    ports.IDGenerator
	Clock    ports.Clock
	Metrics  ports.Metrics
	Logger   zerolog.Logger
}

// PaymentService records membership payments.
type PaymentService struct {
	members  ports.MemberStore
	payments ports.PaymentStore
	idGen    ports.IDGenerator
	clock    ports.Clock
	metrics  ports.Metrics
	logger   zerolog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(deps PaymentDeps) *PaymentService {
	if deps.Metrics == nil {
		deps.Metrics = NopMetrics{}
	}
	return &PaymentService{
		members:  deps.Members,
		payments: deps.Payments,
		idGen:    deps.IDGen,
		clock:    deps.Clock,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
}

// PaymentRequest describes a payment to record.
// Zero PaidAt means today; nil Period means the payment date's month.
type PaymentRequest struct {
	MemberID string
	Amount   decimal.Decimal
	PaidAt   time.Time
	Period   *billing.Period
	Notes    string
}

// Record stores a payment for a member. Payments are never edited, and
// a second payment for an already paid period is kept as history.
func (s *PaymentService) Record(ctx context.Context, req PaymentRequest) (billing.Payment, error) {
	fields := make(map[string]string)
	if !req.Amount.IsPositive() {
		fields["amount"] = ErrInvalidAmount.Error()
	} else if !req.Amount.Equal(req.Amount.Round(2)) {
		fields["amount"] = "amount must have at most 2 decimal places"
	}
	if req.Period != nil && !req.Period.Valid() {
		fields["period"] = "invalid billing period"
	}
	if len(fields) > 0 {
		return billing.Payment{}, validationError(fields)
	}

	m, err := s.members.Get(ctx, req.MemberID)
	if err != nil {
		return billing.Payment{}, err
	}

	now := s.clock.Now()
	paidAt := billing.Date(now)
	if !req.PaidAt.IsZero() {
		paidAt = billing.Date(req.PaidAt)
	}
	period := billing.PeriodOf(paidAt)
	if req.Period != nil {
		period = *req.Period
	}

	p := billing.Payment{
		ID:        s.idGen.New(),
		MemberID:  m.ID,
		PaidAt:    paidAt,
		Amount:    req.Amount,
		Period:    period,
		Notes:     strings.TrimSpace(req.Notes),
		CreatedAt: now,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return billing.Payment{}, fmt.Errorf("create payment: %w", err)
	}

	s.metrics.PaymentRecorded(p.Amount)
	s.logger.Info().
		Str("payment_id", p.ID).
		Str("member_id", m.ID).
		Str("amount", p.Amount.StringFixed(2)).
		Stringer("period", p.Period).
		Msg("payment recorded")

	return p, nil
}
