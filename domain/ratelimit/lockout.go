// Package ratelimit provides the pure login lockout algorithm.
// All functions are deterministic - same input always produces same output.
package ratelimit

import "time"

// AttemptState is the failed-login record for one key (value type).
type AttemptState struct {
	Count        int
	FirstAttempt time.Time
	LockedUntil  time.Time // zero = not locked
}

// Policy configures the lockout (value type).
type Policy struct {
	MaxAttempts int           // failures before locking
	Window      time.Duration // failures older than this start a new count
	LockFor     time.Duration
}

// DefaultPolicy locks for 15 minutes after 5 failures within 15 minutes.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		Window:      15 * time.Minute,
		LockFor:     15 * time.Minute,
	}
}

// Reasons for denial
const (
	ReasonLocked = "locked"
)

// CheckResult represents the outcome of a lock check (value type).
type CheckResult struct {
	Allowed bool
	Wait    time.Duration // remaining lock time when not allowed
	Reason  string
}

// Key builds the attempt key for a client address and username.
func Key(ip, username string) string {
	if ip == "" {
		ip = "unknown"
	}
	return ip + ":" + username
}

// CheckLock reports whether a login attempt may proceed.
// This is a PURE function.
func CheckLock(state AttemptState, now time.Time) CheckResult {
	if !state.LockedUntil.IsZero() && now.Before(state.LockedUntil) {
		return CheckResult{
			Allowed: false,
			Wait:    state.LockedUntil.Sub(now),
			Reason:  ReasonLocked,
		}
	}
	return CheckResult{Allowed: true}
}

// RecordFailure returns the state after one more failed attempt.
// This is a PURE function - the caller persists the returned state.
//
// The count restarts at 1 when the first failure is older than the window.
// Reaching MaxAttempts sets LockedUntil to now + LockFor.
func RecordFailure(state AttemptState, policy Policy, now time.Time) AttemptState {
	if state.Count == 0 || state.FirstAttempt.IsZero() || now.Sub(state.FirstAttempt) > policy.Window {
		state = AttemptState{Count: 1, FirstAttempt: now}
	} else {
		state.Count++
	}

	if policy.MaxAttempts > 0 && state.Count >= policy.MaxAttempts {
		state.LockedUntil = now.Add(policy.LockFor)
	}
	return state
}

// Locked reports whether the state has just been (or still is) locked at now.
func (s AttemptState) Locked(now time.Time) bool {
	return !s.LockedUntil.IsZero() && now.Before(s.LockedUntil)
}

// Expired reports whether the state no longer affects decisions at now and
// can be discarded.
func (s AttemptState) Expired(policy Policy, now time.Time) bool {
	if s.Locked(now) {
		return false
	}
	return now.Sub(s.FirstAttempt) > policy.Window
}

// WaitMinutes rounds a lock wait to whole minutes for display: floor + 1.
func WaitMinutes(wait time.Duration) int {
	if wait < 0 {
		wait = 0
	}
	return int(wait/time.Minute) + 1
}
