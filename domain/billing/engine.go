// Package billing computes membership standing from a member's enrollment,
// due day and recorded payments.
// All functions are deterministic: the reference date is always passed in.
package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is a member's current standing.
type Status string

const (
	StatusInactive Status = "inactive"
	StatusAwaiting Status = "awaiting"
	StatusCurrent  Status = "current"
	StatusOverdue  Status = "overdue"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusCurrent, StatusAwaiting, StatusOverdue, StatusInactive}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusInactive, StatusAwaiting, StatusCurrent, StatusOverdue:
		return true
	}
	return false
}

// Member is a gym member as seen by the engine (value type).
type Member struct {
	ID         string
	Name       string
	Phone      string
	MonthlyFee decimal.Decimal
	DueDay     int // 1-31, clamped per month
	EnrolledAt time.Time
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Payment is one recorded membership payment (value type).
type Payment struct {
	ID        string
	MemberID  string
	PaidAt    time.Time
	Amount    decimal.Decimal
	Period    Period // which cycle this payment satisfies
	Notes     string
	CreatedAt time.Time
}

// Arrears is the accumulated unpaid periods and their total.
type Arrears struct {
	Months  int
	Amount  decimal.Decimal
	Periods []Period
}

// Standing bundles everything computed for a member at a reference date.
type Standing struct {
	Status      Status
	Arrears     Arrears
	DueDate     time.Time // adjusted due date of the reference period
	NextDueDate time.Time
	DaysPastDue int
	PaidCurrent bool
	LastPayment *Payment
}

// ComputeStatus classifies a member at ref.
// This is a PURE function.
//
// Inactive always wins. A member without payments is Awaiting. A payment keyed
// to ref's period makes the member Current. Otherwise the member is Overdue
// once the period's due date is on or before ref. Before the due date the
// member is Overdue only when earlier periods are still unpaid, else Awaiting.
func ComputeStatus(m Member, payments []Payment, ref time.Time) Status {
	if !m.Active {
		return StatusInactive
	}

	own := ownPayments(m, payments)
	if len(own) == 0 {
		return StatusAwaiting
	}

	day := Date(ref)
	current := PeriodOf(day)
	if paidFor(own, current) {
		return StatusCurrent
	}

	if !day.Before(current.DueDate(m.DueDay)) {
		return StatusOverdue
	}

	if ComputeArrears(m, own, ref).Months > 0 {
		return StatusOverdue
	}
	return StatusAwaiting
}

// ComputeArrears counts the unpaid periods between the last payment (or the
// enrollment date when nothing was paid) and ref, inclusive of ref's period
// once its due date has arrived.
// This is a PURE function.
func ComputeArrears(m Member, payments []Payment, ref time.Time) Arrears {
	own := ownPayments(m, payments)

	start := Date(m.EnrolledAt)
	if last, ok := latestPayment(own); ok {
		start = Date(last.PaidAt)
	}

	day := Date(ref)
	current := PeriodOf(day)
	paid := paidPeriods(own)

	var a Arrears
	for p := PeriodOf(start).Next(); !current.Before(p); p = p.Next() {
		if p == current && day.Before(p.DueDate(m.DueDay)) {
			break
		}
		if !paid[p] {
			a.Months++
			a.Periods = append(a.Periods, p)
		}
	}

	a.Amount = m.MonthlyFee.Mul(decimal.NewFromInt(int64(a.Months)))
	return a
}

// NextDueDate returns the next date a payment falls due on or after ref.
// The due day is clamped to the month length.
// This is a PURE function.
func NextDueDate(m Member, ref time.Time) time.Time {
	day := Date(ref)
	p := PeriodOf(day)
	if day.Day() <= m.DueDay {
		return p.DueDate(m.DueDay)
	}
	return p.Next().DueDate(m.DueDay)
}

// DaysPastDue returns how many days ref is past the due date of its own
// period, or zero when that date has not passed.
// This is a PURE function.
func DaysPastDue(m Member, ref time.Time) int {
	day := Date(ref)
	due := PeriodOf(day).DueDate(m.DueDay)
	if !day.After(due) {
		return 0
	}
	return int(day.Sub(due).Hours() / 24)
}

// Evaluate computes the full standing of a member at ref.
// This is a PURE function.
func Evaluate(m Member, payments []Payment, ref time.Time) Standing {
	own := ownPayments(m, payments)
	day := Date(ref)
	current := PeriodOf(day)

	s := Standing{
		Status:      ComputeStatus(m, own, ref),
		Arrears:     ComputeArrears(m, own, ref),
		DueDate:     current.DueDate(m.DueDay),
		NextDueDate: NextDueDate(m, ref),
		DaysPastDue: DaysPastDue(m, ref),
		PaidCurrent: paidFor(own, current),
	}
	if last, ok := latestPayment(own); ok {
		s.LastPayment = &last
	}
	return s
}

// FindPayment returns the first payment keyed to period p.
func FindPayment(payments []Payment, p Period) (Payment, bool) {
	for _, pay := range payments {
		if pay.Period == p {
			return pay, true
		}
	}
	return Payment{}, false
}

// ownPayments drops payments explicitly tagged with another member.
func ownPayments(m Member, payments []Payment) []Payment {
	for i, p := range payments {
		if p.MemberID != "" && p.MemberID != m.ID {
			out := make([]Payment, 0, len(payments))
			out = append(out, payments[:i]...)
			for _, q := range payments[i+1:] {
				if q.MemberID == "" || q.MemberID == m.ID {
					out = append(out, q)
				}
			}
			return out
		}
	}
	return payments
}

func paidFor(payments []Payment, p Period) bool {
	_, ok := FindPayment(payments, p)
	return ok
}

func paidPeriods(payments []Payment) map[Period]bool {
	paid := make(map[Period]bool, len(payments))
	for _, p := range payments {
		paid[p.Period] = true
	}
	return paid
}

// latestPayment returns the payment with the latest payment date.
// Ties keep the first one found.
func latestPayment(payments []Payment) (Payment, bool) {
	if len(payments) == 0 {
		return Payment{}, false
	}
	latest := payments[0]
	for _, p := range payments[1:] {
		if Date(p.PaidAt).After(Date(latest.PaidAt)) {
			latest = p
		}
	}
	return latest, true
}
