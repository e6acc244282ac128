// Package idgen provides ID generation implementations.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/artpar/gymdesk/ports"
	"github.com/google/uuid"
)

// Prefixes used for the entities of this service.
const (
	PrefixMember  = "mem_"
	PrefixPayment = "pay_"
	PrefixStaff   = "usr_"
)

// UUID generates prefixed UUIDs, e.g. "mem_0b6c...".
type UUID struct {
	Prefix string
}

// NewUUID creates a UUID generator with the given prefix.
func NewUUID(prefix string) UUID {
	return UUID{Prefix: prefix}
}

// New generates a new UUID v4.
func (u UUID) New() string {
	return u.Prefix + uuid.New().String()
}

var _ ports.IDGenerator = UUID{}

// Sequential generates sequential IDs (for testing).
type Sequential struct {
	prefix  string
	counter atomic.Uint64
}

// NewSequential creates a sequential ID generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New generates the next sequential ID.
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.counter.Add(1), 10)
}

// Reset resets the counter (for testing).
func (s *Sequential) Reset() {
	s.counter.Store(0)
}

var _ ports.IDGenerator = (*Sequential)(nil)
