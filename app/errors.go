// Package app contains the application services that orchestrate the pure
// domain packages over the storage ports.
package app

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/artpar/gymdesk/domain/ratelimit"
)

// Application errors.
var (
	ErrDuplicatePhone     = errors.New("an active member already uses this phone")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrLocked             = errors.New("too many failed attempts")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrSelfDeactivation   = errors.New("cannot deactivate your own account")
	ErrValidation         = errors.New("validation failed")
	ErrSessionInvalid     = errors.New("session is invalid or expired")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
)

// ValidationError carries per-field messages from a domain validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is lets errors.Is match ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}

// LockedError reports how long a client must wait before trying again.
type LockedError struct {
	Wait time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("too many failed attempts, try again in %d minutes", e.Minutes())
}

// Is lets errors.Is match ErrLocked.
func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}

// Minutes returns the wait rounded up for display.
func (e *LockedError) Minutes() int {
	return ratelimit.WaitMinutes(e.Wait)
}
