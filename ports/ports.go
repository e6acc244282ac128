// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/artpar/gymdesk/domain/auth"
	"github.com/artpar/gymdesk/domain/billing"
	"github.com/artpar/gymdesk/domain/ratelimit"
	"github.com/shopspring/decimal"
)

// Errors shared by every store implementation.
var (
	// ErrNotFound is returned when an entity is not found.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = errors.New("already exists")
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// Random abstracts randomness for testability.
type Random interface {
	// Bytes generates n random bytes.
	Bytes(n int) ([]byte, error)
	// String generates a random string of n characters.
	String(n int) (string, error)
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Hasher provides password hashing.
type Hasher interface {
	// Hash generates a hash from a plaintext value.
	Hash(plaintext string) ([]byte, error)

	// Compare checks if plaintext matches hash.
	Compare(hash []byte, plaintext string) bool
}

// -----------------------------------------------------------------------------
// Membership Ports
// -----------------------------------------------------------------------------

// MemberStore persists gym members. Members are never deleted.
type MemberStore interface {
	// Get retrieves a member by ID.
	Get(ctx context.Context, id string) (billing.Member, error)

	// List returns all members ordered by name.
	List(ctx context.Context) ([]billing.Member, error)

	// ListActive returns active members ordered by name.
	ListActive(ctx context.Context) ([]billing.Member, error)

	// Create stores a new member.
	Create(ctx context.Context, m billing.Member) error

	// Update replaces a member's editable fields.
	Update(ctx context.Context, m billing.Member) error

	// SetActive flips the active flag.
	SetActive(ctx context.Context, id string, active bool, at time.Time) error

	// Count returns the number of members.
	Count(ctx context.Context) (int, error)
}

// PaymentStore persists payments. Payments are append-only.
type PaymentStore interface {
	// Create stores a new payment.
	Create(ctx context.Context, p billing.Payment) error

	// ListByMember returns a member's payments, latest payment date first.
	ListByMember(ctx context.Context, memberID string) ([]billing.Payment, error)

	// LatestByMember returns the payment with the latest payment date.
	LatestByMember(ctx context.Context, memberID string) (billing.Payment, error)

	// ListAll returns every payment grouped by member ID.
	ListAll(ctx context.Context) (map[string][]billing.Payment, error)

	// SumForPeriod totals the amounts of payments keyed to a period,
	// across all members.
	SumForPeriod(ctx context.Context, period billing.Period) (decimal.Decimal, error)
}

// -----------------------------------------------------------------------------
// Authentication Ports
// -----------------------------------------------------------------------------

// StaffStore persists staff accounts.
type StaffStore interface {
	// Get retrieves a staff user by ID.
	Get(ctx context.Context, id string) (auth.User, error)

	// GetByUsername retrieves a staff user by username.
	GetByUsername(ctx context.Context, username string) (auth.User, error)

	// GetByEmail retrieves a staff user by email.
	GetByEmail(ctx context.Context, email string) (auth.User, error)

	// List returns all staff users ordered by username.
	List(ctx context.Context) ([]auth.User, error)

	// Create stores a new staff user.
	Create(ctx context.Context, u auth.User) error

	// Update replaces a staff user.
	Update(ctx context.Context, u auth.User) error

	// Count returns the number of staff users.
	Count(ctx context.Context) (int, error)
}

// SessionStore persists staff sessions.
type SessionStore interface {
	// Create stores a new session.
	Create(ctx context.Context, session auth.Session) error

	// GetByHash retrieves a session by the hash of its token.
	GetByHash(ctx context.Context, hash []byte) (auth.Session, error)

	// Delete removes a session (logout).
	Delete(ctx context.Context, id string) error

	// DeleteByUser removes all sessions for a user.
	DeleteByUser(ctx context.Context, userID string) error

	// DeleteExpired removes sessions expired at now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AttemptStore persists failed login attempts keyed by ip:username.
type AttemptStore interface {
	// Get returns the state for a key, or the zero state when none exists.
	Get(ctx context.Context, key string) (ratelimit.AttemptState, error)

	// Set stores the state for a key.
	Set(ctx context.Context, key string, state ratelimit.AttemptState) error

	// Delete clears a key after a successful login.
	Delete(ctx context.Context, key string) error

	// DeleteBefore removes entries whose first attempt and lock both
	// precede cutoff.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// -----------------------------------------------------------------------------
// Observability Ports
// -----------------------------------------------------------------------------

// Metrics receives business events worth counting.
type Metrics interface {
	LoginFailed(reason string)
	LoginLocked()
	PaymentRecorded(amount decimal.Decimal)
	StandingsComputed(counts map[billing.Status]int, arrears decimal.Decimal)
}
