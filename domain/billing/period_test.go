package billing_test

import (
	"testing"
	"time"

	"github.com/artpar/gymdesk/domain/billing"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.January, 31},
		{2024, time.February, 29},
		{2023, time.February, 28},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}

	for _, tt := range tests {
		if got := billing.DaysInMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysInMonth(%d, %s) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestAdjustedDueDate(t *testing.T) {
	tests := []struct {
		period billing.Period
		dueDay int
		want   time.Time
	}{
		{billing.Period{Year: 2024, Month: time.February}, 31, date(2024, 2, 29)},
		{billing.Period{Year: 2023, Month: time.February}, 31, date(2023, 2, 28)},
		{billing.Period{Year: 2024, Month: time.June}, 31, date(2024, 6, 30)},
		{billing.Period{Year: 2024, Month: time.June}, 15, date(2024, 6, 15)},
		{billing.Period{Year: 2024, Month: time.July}, 31, date(2024, 7, 31)},
	}

	for _, tt := range tests {
		got := billing.AdjustedDueDate(tt.period, tt.dueDay)
		if !got.Equal(tt.want) {
			t.Errorf("AdjustedDueDate(%s, %d) = %s, want %s", tt.period, tt.dueDay,
				got.Format(time.DateOnly), tt.want.Format(time.DateOnly))
		}
	}
}

func TestPeriod_NextPrev(t *testing.T) {
	dec := billing.Period{Year: 2023, Month: time.December}
	jan := billing.Period{Year: 2024, Month: time.January}

	if dec.Next() != jan {
		t.Errorf("Next() = %v, want %v", dec.Next(), jan)
	}
	if jan.Prev() != dec {
		t.Errorf("Prev() = %v, want %v", jan.Prev(), dec)
	}
	if !dec.Before(jan) || jan.Before(dec) || jan.Before(jan) {
		t.Error("Before() ordering wrong")
	}
}

func TestPeriodOf(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	got := billing.PeriodOf(time.Date(2024, 3, 31, 22, 0, 0, 0, loc))
	if got != (billing.Period{Year: 2024, Month: time.March}) {
		t.Errorf("PeriodOf() = %v, want 2024-03", got)
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := billing.ParsePeriod("2024-03")
	if err != nil {
		t.Fatalf("ParsePeriod() error = %v", err)
	}
	if p.String() != "2024-03" {
		t.Errorf("String() = %q, want 2024-03", p.String())
	}

	for _, bad := range []string{"", "2024", "2024-13", "2024-00", "abcd-01", "2024-xx"} {
		if _, err := billing.ParsePeriod(bad); err == nil {
			t.Errorf("ParsePeriod(%q) expected error", bad)
		}
	}
}

func TestDate_KeepsLocalCalendarDay(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	got := billing.Date(time.Date(2024, 3, 31, 23, 30, 0, 0, loc))
	if !got.Equal(date(2024, 3, 31)) {
		t.Errorf("Date() = %s, want 2024-03-31", got)
	}
}
