package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/gymdesk/domain/billing"
	"github.com/artpar/gymdesk/ports"
	"github.com/shopspring/decimal"
)

const paymentColumns = `id, member_id, paid_at, amount, period_year, period_month, notes, created_at`

// PaymentStore implements ports.PaymentStore using SQLite.
type PaymentStore struct {
	db *DB
}

// NewPaymentStore creates a new SQLite payment store.
func NewPaymentStore(db *DB) *PaymentStore {
	return &PaymentStore{db: db}
}

// Create stores a new payment.
func (s *PaymentStore) Create(ctx context.Context, p billing.Payment) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.MemberID, formatDate(p.PaidAt), p.Amount.StringFixed(2),
		p.Period.Year, int(p.Period.Month), p.Notes, p.CreatedAt.UTC())

	if err != nil && isUniqueConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

// ListByMember returns a member's payments, latest payment date first.
func (s *PaymentStore) ListByMember(ctx context.Context, memberID string) ([]billing.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE member_id = ?
		ORDER BY paid_at DESC, created_at
	`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []billing.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// LatestByMember returns the payment with the latest payment date.
func (s *PaymentStore) LatestByMember(ctx context.Context, memberID string) (billing.Payment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE member_id = ?
		ORDER BY paid_at DESC, created_at
		LIMIT 1
	`, memberID)
	return scanPayment(row)
}

// ListAll returns every payment grouped by member ID.
func (s *PaymentStore) ListAll(ctx context.Context) (map[string][]billing.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		ORDER BY member_id, paid_at DESC, created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]billing.Payment)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out[p.MemberID] = append(out[p.MemberID], p)
	}
	return out, rows.Err()
}

// SumForPeriod totals payments keyed to a period across all members.
// Amounts are summed as decimals, not in SQL.
func (s *PaymentStore) SumForPeriod(ctx context.Context, period billing.Period) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT amount FROM payments WHERE period_year = ? AND period_month = ?
	`, period.Year, int(period.Month))
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, err
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("payment amount %q: %w", amount, err)
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

func scanPayment(row scanner) (billing.Payment, error) {
	var (
		p      billing.Payment
		paidAt string
		amount string
		month  int
	)

	err := row.Scan(&p.ID, &p.MemberID, &paidAt, &amount, &p.Period.Year, &month, &p.Notes, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Payment{}, ErrNotFound
	}
	if err != nil {
		return billing.Payment{}, err
	}

	p.Period.Month = time.Month(month)
	if p.PaidAt, err = parseDate(paidAt); err != nil {
		return billing.Payment{}, fmt.Errorf("payment %s: %w", p.ID, err)
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return billing.Payment{}, fmt.Errorf("payment %s amount: %w", p.ID, err)
	}
	return p, nil
}

// Ensure interface compliance.
var _ ports.PaymentStore = (*PaymentStore)(nil)
