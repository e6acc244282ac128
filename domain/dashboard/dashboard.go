// Package dashboard aggregates member standings into staff-facing reports.
// All functions are pure: the shell loads members and payments and passes
// the reference date in.
package dashboard

import (
	"sort"
	"strings"
	"time"

	"github.com/artpar/gymdesk/domain/billing"
	"github.com/shopspring/decimal"
)

// Row is a member together with its standing at the reference date.
type Row struct {
	Member   billing.Member
	Standing billing.Standing
}

// Stats summarizes the active members for one period.
type Stats struct {
	Period        billing.Period
	ActiveMembers int
	Paid          []Row
	Overdue       []Row
	Awaiting      int
	Expected      decimal.Decimal // sum of active members' fees
	Received      decimal.Decimal // sum of payments keyed to the period
	Pending       decimal.Decimal
	PercentPaid   float64
	TotalArrears  decimal.Decimal
}

// Delinquent is one line of the delinquency report.
type Delinquent struct {
	Member        billing.Member
	MonthsOverdue int
	AmountDue     decimal.Decimal
	DaysPastDue   int
	LastPayment   *billing.Payment
}

// Filter selects members by standing.
type Filter string

const (
	FilterAll      Filter = "all"
	FilterCurrent  Filter = "current"
	FilterAwaiting Filter = "awaiting"
	FilterOverdue  Filter = "overdue"
	FilterInactive Filter = "inactive"
)

// ParseFilter maps a query value to a Filter. Unknown or empty values mean all.
func ParseFilter(s string) Filter {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterCurrent, FilterAwaiting, FilterOverdue, FilterInactive:
		return f
	}
	return FilterAll
}

// BuildRows evaluates every member against its payments.
// payments is keyed by member ID.
func BuildRows(members []billing.Member, payments map[string][]billing.Payment, ref time.Time) []Row {
	rows := make([]Row, 0, len(members))
	for _, m := range members {
		rows = append(rows, Row{
			Member:   m,
			Standing: billing.Evaluate(m, payments[m.ID], ref),
		})
	}
	return rows
}

// AsOf returns the members and payments that existed at ref: members
// enrolled after ref and payments made after ref are dropped.
func AsOf(members []billing.Member, payments map[string][]billing.Payment, ref time.Time) ([]billing.Member, map[string][]billing.Payment) {
	ref = billing.Date(ref)

	keptMembers := make([]billing.Member, 0, len(members))
	for _, m := range members {
		if billing.Date(m.EnrolledAt).After(ref) {
			continue
		}
		keptMembers = append(keptMembers, m)
	}

	keptPayments := make(map[string][]billing.Payment, len(payments))
	for id, list := range payments {
		for _, p := range list {
			if billing.Date(p.PaidAt).After(ref) {
				continue
			}
			keptPayments[id] = append(keptPayments[id], p)
		}
	}
	return keptMembers, keptPayments
}

// Received totals the payments keyed to period across all members.
func Received(payments map[string][]billing.Payment, period billing.Period) decimal.Decimal {
	total := decimal.Zero
	for _, list := range payments {
		for _, p := range list {
			if p.Period == period {
				total = total.Add(p.Amount)
			}
		}
	}
	return total
}

// Summarize computes the dashboard for the active rows.
// received is the total of payments keyed to ref's period across all members,
// including inactive ones.
func Summarize(rows []Row, received decimal.Decimal, ref time.Time) Stats {
	s := Stats{
		Period:       billing.PeriodOf(ref),
		Received:     received,
		Expected:     decimal.Zero,
		TotalArrears: decimal.Zero,
	}

	for _, r := range rows {
		if !r.Member.Active {
			continue
		}
		s.ActiveMembers++
		s.Expected = s.Expected.Add(r.Member.MonthlyFee)
		s.TotalArrears = s.TotalArrears.Add(r.Standing.Arrears.Amount)

		switch r.Standing.Status {
		case billing.StatusCurrent:
			s.Paid = append(s.Paid, r)
		case billing.StatusOverdue:
			s.Overdue = append(s.Overdue, r)
		case billing.StatusAwaiting:
			s.Awaiting++
		}
	}

	s.Pending = decimal.Max(decimal.Zero, s.Expected.Sub(received))
	s.PercentPaid = Percent(len(s.Paid), s.ActiveMembers)
	return s
}

// Percent returns part/total as a percentage rounded to one decimal place.
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct, _ := decimal.NewFromInt(int64(part)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 1).
		Float64()
	return pct
}

// Delinquents lists active members owing at least one period, most months first.
func Delinquents(rows []Row, ref time.Time) []Delinquent {
	var out []Delinquent
	for _, r := range rows {
		if !r.Member.Active || r.Standing.Arrears.Months == 0 {
			continue
		}
		out = append(out, Delinquent{
			Member:        r.Member,
			MonthsOverdue: r.Standing.Arrears.Months,
			AmountDue:     r.Standing.Arrears.Amount,
			DaysPastDue:   billing.DaysPastDue(r.Member, ref),
			LastPayment:   r.Standing.LastPayment,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MonthsOverdue != out[j].MonthsOverdue {
			return out[i].MonthsOverdue > out[j].MonthsOverdue
		}
		return strings.ToLower(out[i].Member.Name) < strings.ToLower(out[j].Member.Name)
	})
	return out
}

// FilterRows applies a case-insensitive name search and a status filter.
// FilterInactive selects inactive members; every other filter selects
// active members only.
func FilterRows(rows []Row, query string, filter Filter) []Row {
	query = strings.ToLower(strings.TrimSpace(query))

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if filter == FilterInactive {
			if r.Member.Active {
				continue
			}
		} else if !r.Member.Active {
			continue
		}

		if query != "" && !strings.Contains(strings.ToLower(r.Member.Name), query) {
			continue
		}

		switch filter {
		case FilterCurrent, FilterAwaiting, FilterOverdue:
			if string(r.Standing.Status) != string(filter) {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// CountByStatus tallies rows per status, inactive members included.
func CountByStatus(rows []Row) map[billing.Status]int {
	counts := make(map[billing.Status]int, len(billing.Statuses))
	for _, s := range billing.Statuses {
		counts[s] = 0
	}
	for _, r := range rows {
		counts[r.Standing.Status]++
	}
	return counts
}

// MonthName returns the English label of a period's month.
func MonthName(p billing.Period) string {
	return p.Month.String()
}
