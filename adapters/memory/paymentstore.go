package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/artpar/gymdesk/domain/billing"
	"github.com/artpar/gymdesk/ports"
	"github.com/shopspring/decimal"
)

// PaymentStore is an in-memory implementation of ports.PaymentStore.
type PaymentStore struct {
	mu       sync.RWMutex
	payments []billing.Payment // insertion order
	ids      map[string]struct{}
}

// NewPaymentStore creates a new in-memory payment store.
func NewPaymentStore() *PaymentStore {
	return &PaymentStore{ids: make(map[string]struct{})}
}

// Create stores a new payment.
func (s *PaymentStore) Create(ctx context.Context, p billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ids[p.ID]; exists {
		return ErrDuplicate
	}
	s.ids[p.ID] = struct{}{}
	s.payments = append(s.payments, p)
	return nil
}

// ListByMember returns a member's payments, latest payment date first.
func (s *PaymentStore) ListByMember(ctx context.Context, memberID string) ([]billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []billing.Payment
	for _, p := range s.payments {
		if p.MemberID == memberID {
			out = append(out, p)
		}
	}
	sortLatestFirst(out)
	return out, nil
}

// LatestByMember returns the payment with the latest payment date.
func (s *PaymentStore) LatestByMember(ctx context.Context, memberID string) (billing.Payment, error) {
	list, _ := s.ListByMember(ctx, memberID)
	if len(list) == 0 {
		return billing.Payment{}, ErrNotFound
	}
	return list[0], nil
}

// ListAll returns every payment grouped by member ID.
func (s *PaymentStore) ListAll(ctx context.Context) (map[string][]billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string][]billing.Payment)
	for _, p := range s.payments {
		out[p.MemberID] = append(out[p.MemberID], p)
	}
	for _, list := range out {
		sortLatestFirst(list)
	}
	return out, nil
}

// SumForPeriod totals payments keyed to a period across all members.
func (s *PaymentStore) SumForPeriod(ctx context.Context, period billing.Period) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, p := range s.payments {
		if p.Period == period {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

// Clear removes all payments (for testing).
func (s *PaymentStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = nil
	s.ids = make(map[string]struct{})
}

// sortLatestFirst orders by payment date desc, keeping insertion order on ties.
func sortLatestFirst(list []billing.Payment) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].PaidAt.After(list[j].PaidAt)
	})
}

// Ensure interface compliance.
var _ ports.PaymentStore = (*PaymentStore)(nil)
