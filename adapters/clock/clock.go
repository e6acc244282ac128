// Package clock provides Clock implementations.
package clock

import (
	"sync"
	"time"

	"github.com/artpar/gymdesk/ports"
)

// Real returns the wall-clock time in a configured location.
// The location decides which calendar day "today" is for billing.
type Real struct {
	loc *time.Location
}

// NewReal creates a clock reporting time in loc (UTC when nil).
func NewReal(loc *time.Location) Real {
	if loc == nil {
		loc = time.UTC
	}
	return Real{loc: loc}
}

// Now returns the current time.
func (r Real) Now() time.Time {
	if r.loc == nil {
		return time.Now().UTC()
	}
	return time.Now().In(r.loc)
}

// Location returns the clock's location.
func (r Real) Location() *time.Location {
	if r.loc == nil {
		return time.UTC
	}
	return r.loc
}

// LoadLocation resolves a timezone name; empty means UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

var _ ports.Clock = Real{}

// Fake provides a controllable clock for testing.
type Fake struct {
	mu      sync.RWMutex
	current time.Time
}

// NewFake creates a fake clock set to the given time.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t}
}

// NewFakeDate creates a fake clock at noon UTC on the given date.
func NewFakeDate(year int, month time.Month, day int) *Fake {
	return NewFake(time.Date(year, month, day, 12, 0, 0, 0, time.UTC))
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// Set sets the fake current time.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = t
}

// Advance moves the fake time forward by duration d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.Add(d)
}

// AdvanceDays moves the fake time forward by whole calendar days.
func (f *Fake) AdvanceDays(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = f.current.AddDate(0, 0, n)
}

var _ ports.Clock = (*Fake)(nil)
