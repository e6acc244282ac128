package dashboard_test

import (
	"testing"
	"time"

	"github.com/artpar/gymdesk/domain/billing"
	"github.com/artpar/gymdesk/domain/dashboard"
	"github.com/shopspring/decimal"
)

var ref = time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixture() ([]billing.Member, map[string][]billing.Payment) {
	enrolled := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	members := []billing.Member{
		{ID: "paid", Name: "Bruna Alves", MonthlyFee: d("100.00"), DueDay: 10, EnrolledAt: enrolled, Active: true},
		{ID: "late1", Name: "Diego Rocha", MonthlyFee: d("80.00"), DueDay: 10, EnrolledAt: enrolled, Active: true},
		{ID: "late3", Name: "Caio Nunes", MonthlyFee: d("120.00"), DueDay: 5, EnrolledAt: enrolled, Active: true},
		{ID: "new", Name: "Ana Dias", MonthlyFee: d("90.00"), DueDay: 20, EnrolledAt: ref, Active: true},
		{ID: "gone", Name: "Bruno Reis", MonthlyFee: d("70.00"), DueDay: 10, EnrolledAt: enrolled, Active: false},
	}
	payments := map[string][]billing.Payment{
		"paid": {
			{MemberID: "paid", PaidAt: time.Date(2024, 4, 8, 0, 0, 0, 0, time.UTC), Amount: d("100.00"), Period: billing.Period{Year: 2024, Month: time.April}},
		},
		"late1": {
			{MemberID: "late1", PaidAt: time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC), Amount: d("80.00"), Period: billing.Period{Year: 2024, Month: time.March}},
		},
		"late3": {
			{MemberID: "late3", PaidAt: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Amount: d("120.00"), Period: billing.Period{Year: 2024, Month: time.January}},
		},
		"gone": {
			{MemberID: "gone", PaidAt: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), Amount: d("70.00"), Period: billing.Period{Year: 2024, Month: time.April}},
		},
	}
	return members, payments
}

func TestSummarize(t *testing.T) {
	members, payments := fixture()
	rows := dashboard.BuildRows(members, payments, ref)

	stats := dashboard.Summarize(rows, d("170.00"), ref)

	if stats.ActiveMembers != 4 {
		t.Errorf("ActiveMembers = %d, want 4", stats.ActiveMembers)
	}
	if len(stats.Paid) != 1 || stats.Paid[0].Member.ID != "paid" {
		t.Errorf("Paid = %v, want [paid]", stats.Paid)
	}
	if len(stats.Overdue) != 2 {
		t.Errorf("len(Overdue) = %d, want 2", len(stats.Overdue))
	}
	if stats.Awaiting != 1 {
		t.Errorf("Awaiting = %d, want 1", stats.Awaiting)
	}
	if !stats.Expected.Equal(d("390.00")) {
		t.Errorf("Expected = %s, want 390.00", stats.Expected)
	}
	if !stats.Pending.Equal(d("220.00")) {
		t.Errorf("Pending = %s, want 220.00", stats.Pending)
	}
	if stats.PercentPaid != 25 {
		t.Errorf("PercentPaid = %v, want 25", stats.PercentPaid)
	}
	// late1 owes April (80), late3 owes Feb..Apr (360).
	if !stats.TotalArrears.Equal(d("440.00")) {
		t.Errorf("TotalArrears = %s, want 440.00", stats.TotalArrears)
	}
}

func TestSummarize_PendingNeverNegative(t *testing.T) {
	members, payments := fixture()
	rows := dashboard.BuildRows(members, payments, ref)

	stats := dashboard.Summarize(rows, d("1000.00"), ref)

	if !stats.Pending.IsZero() {
		t.Errorf("Pending = %s, want 0", stats.Pending)
	}
}

func TestSummarize_Empty(t *testing.T) {
	stats := dashboard.Summarize(nil, decimal.Zero, ref)
	if stats.ActiveMembers != 0 || stats.PercentPaid != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		part, total int
		want        float64
	}{
		{0, 0, 0},
		{1, 3, 33.3},
		{2, 3, 66.7},
		{3, 3, 100},
		{45, 48, 93.8},
	}
	for _, tt := range tests {
		if got := dashboard.Percent(tt.part, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %v, want %v", tt.part, tt.total, got, tt.want)
		}
	}
}

func TestDelinquents(t *testing.T) {
	members, payments := fixture()
	rows := dashboard.BuildRows(members, payments, ref)

	got := dashboard.Delinquents(rows, ref)

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Member.ID != "late3" || got[0].MonthsOverdue != 3 {
		t.Errorf("first = %s/%d, want late3/3", got[0].Member.ID, got[0].MonthsOverdue)
	}
	if got[0].DaysPastDue != 10 {
		t.Errorf("DaysPastDue = %d, want 10", got[0].DaysPastDue)
	}
	if !got[0].AmountDue.Equal(d("360.00")) {
		t.Errorf("AmountDue = %s, want 360.00", got[0].AmountDue)
	}
	if got[1].Member.ID != "late1" || got[1].DaysPastDue != 5 {
		t.Errorf("second = %s/%d days, want late1/5", got[1].Member.ID, got[1].DaysPastDue)
	}
}

func TestDelinquents_TiesSortedByName(t *testing.T) {
	enrolled := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	members := []billing.Member{
		{ID: "z", Name: "Zeca", MonthlyFee: d("50"), DueDay: 1, EnrolledAt: enrolled, Active: true},
		{ID: "a", Name: "amanda", MonthlyFee: d("50"), DueDay: 1, EnrolledAt: enrolled, Active: true},
	}
	rows := dashboard.BuildRows(members, nil, ref)

	got := dashboard.Delinquents(rows, ref)

	if len(got) != 2 || got[0].Member.ID != "a" {
		t.Errorf("order = %v, want amanda first", got)
	}
}

func TestFilterRows(t *testing.T) {
	members, payments := fixture()
	rows := dashboard.BuildRows(members, payments, ref)

	tests := []struct {
		query  string
		filter dashboard.Filter
		want   int
	}{
		{"", dashboard.FilterAll, 4},
		{"", dashboard.FilterCurrent, 1},
		{"", dashboard.FilterOverdue, 2},
		{"", dashboard.FilterAwaiting, 1},
		{"", dashboard.FilterInactive, 1},
		{"BR", dashboard.FilterAll, 1},
		{"br", dashboard.FilterInactive, 1},
		{"nobody", dashboard.FilterAll, 0},
	}
	for _, tt := range tests {
		got := dashboard.FilterRows(rows, tt.query, tt.filter)
		if len(got) != tt.want {
			t.Errorf("FilterRows(%q, %s) = %d rows, want %d", tt.query, tt.filter, len(got), tt.want)
		}
	}
}

func TestParseFilter(t *testing.T) {
	if dashboard.ParseFilter("Overdue") != dashboard.FilterOverdue {
		t.Error("expected overdue filter")
	}
	if dashboard.ParseFilter("bogus") != dashboard.FilterAll {
		t.Error("unknown filter should mean all")
	}
}

func TestCountByStatus(t *testing.T) {
	members, payments := fixture()
	counts := dashboard.CountByStatus(dashboard.BuildRows(members, payments, ref))

	if counts[billing.StatusOverdue] != 2 || counts[billing.StatusInactive] != 1 ||
		counts[billing.StatusCurrent] != 1 || counts[billing.StatusAwaiting] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestAsOf(t *testing.T) {
	members, payments := fixture()
	at := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	gotMembers, gotPayments := dashboard.AsOf(members, payments, at)

	if len(gotMembers) != 4 {
		t.Errorf("members = %d, want 4", len(gotMembers))
	}
	for _, m := range gotMembers {
		if m.ID == "new" {
			t.Error("member enrolled after the date should be dropped")
		}
	}
	if len(gotPayments["paid"]) != 0 || len(gotPayments["gone"]) != 0 {
		t.Errorf("later payments kept: %+v", gotPayments)
	}
	if len(gotPayments["late1"]) != 1 || len(gotPayments["late3"]) != 1 {
		t.Errorf("earlier payments dropped: %+v", gotPayments)
	}
	if len(payments["paid"]) != 1 {
		t.Error("input map was modified")
	}
}

func TestReceived(t *testing.T) {
	_, payments := fixture()

	if got := dashboard.Received(payments, billing.Period{Year: 2024, Month: time.April}); !got.Equal(d("170.00")) {
		t.Errorf("April = %s, want 170.00", got)
	}
	if got := dashboard.Received(payments, billing.Period{Year: 2023, Month: time.December}); !got.IsZero() {
		t.Errorf("December = %s, want 0", got)
	}
}
