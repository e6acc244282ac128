// Package member provides the validation boundary for gym members.
// Everything that reaches the billing engine passes through here first.
// This package has NO dependencies on I/O.
package member

import (
	"strings"
	"time"

	"github.com/artpar/gymdesk/domain/billing"
	"github.com/shopspring/decimal"
)

// DefaultMaxMonthlyFee is the largest fee a member can be charged.
var DefaultMaxMonthlyFee = decimal.RequireFromString("999.99")

// Phone numbers carry area code plus 8 or 9 digits.
const (
	MinPhoneDigits = 10
	MaxPhoneDigits = 11
)

// Limits bounds the accepted values of a registration.
type Limits struct {
	MaxMonthlyFee decimal.Decimal
}

// DefaultLimits returns the standard limits.
func DefaultLimits() Limits {
	return Limits{MaxMonthlyFee: DefaultMaxMonthlyFee}
}

// Registration is the data needed to register or update a member (value type).
type Registration struct {
	Name       string
	Phone      string
	MonthlyFee decimal.Decimal
	DueDay     int
}

// Result represents the outcome of validation.
type Result struct {
	Valid  bool
	Errors map[string]string // field -> error message
}

// ValidateRegistration validates a registration (pure function).
func ValidateRegistration(req Registration, limits Limits) Result {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "Name is required"
	} else if len(strings.TrimSpace(req.Name)) > 120 {
		errors["name"] = "Name must be at most 120 characters"
	}

	phone := NormalizePhone(req.Phone)
	if phone == "" {
		errors["phone"] = "Phone is required"
	} else if len(phone) < MinPhoneDigits || len(phone) > MaxPhoneDigits {
		errors["phone"] = "Phone must have 10 or 11 digits"
	}

	maxFee := limits.MaxMonthlyFee
	if maxFee.IsZero() {
		maxFee = DefaultMaxMonthlyFee
	}
	switch {
	case req.MonthlyFee.IsNegative():
		errors["monthly_fee"] = "Monthly fee cannot be negative"
	case req.MonthlyFee.GreaterThan(maxFee):
		errors["monthly_fee"] = "Monthly fee must be at most " + maxFee.StringFixed(2)
	case !req.MonthlyFee.Equal(req.MonthlyFee.Round(2)):
		errors["monthly_fee"] = "Monthly fee must have at most 2 decimal places"
	}

	if req.DueDay < 1 || req.DueDay > 31 {
		errors["due_day"] = "Due day must be between 1 and 31"
	}

	return Result{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

// NormalizePhone strips everything but digits.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SameName reports whether two names match ignoring case and surrounding spaces.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// New builds an active member from a registration that passed validation.
func New(id string, req Registration, enrolledAt, now time.Time) billing.Member {
	return billing.Member{
		ID:         id,
		Name:       strings.TrimSpace(req.Name),
		Phone:      NormalizePhone(req.Phone),
		MonthlyFee: req.MonthlyFee.Round(2),
		DueDay:     req.DueDay,
		EnrolledAt: billing.Date(enrolledAt),
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Apply returns a copy of m with the registration fields replaced.
// Enrollment date and active flag are kept.
func Apply(m billing.Member, req Registration, now time.Time) billing.Member {
	m.Name = strings.TrimSpace(req.Name)
	m.Phone = NormalizePhone(req.Phone)
	m.MonthlyFee = req.MonthlyFee.Round(2)
	m.DueDay = req.DueDay
	m.UpdatedAt = now
	return m
}

// FindByPhone returns the first active member with the given phone.
// excludeID skips the member being updated.
func FindByPhone(members []billing.Member, phone, excludeID string) (billing.Member, bool) {
	phone = NormalizePhone(phone)
	for _, m := range members {
		if m.Active && m.ID != excludeID && m.Phone == phone {
			return m, true
		}
	}
	return billing.Member{}, false
}

// FindByName returns every active member whose name matches name.
func FindByName(members []billing.Member, name, excludeID string) []billing.Member {
	var out []billing.Member
	for _, m := range members {
		if m.Active && m.ID != excludeID && SameName(m.Name, name) {
			out = append(out, m)
		}
	}
	return out
}
