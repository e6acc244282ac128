// Package hasher provides password hashing implementations.
package hasher

import (
	"crypto/subtle"

	"github.com/artpar/gymdesk/ports"
	"golang.org/x/crypto/bcrypt"
)

// Bcrypt uses bcrypt for hashing.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher with the given cost.
// Out-of-range costs fall back to bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Cost returns the configured work factor.
func (h *Bcrypt) Cost() int {
	return h.cost
}

// Hash generates a bcrypt hash from plaintext.
func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
}

// Compare checks if plaintext matches hash.
func (h *Bcrypt) Compare(hash []byte, plaintext string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(plaintext)) == nil
}

// NeedsRehash reports whether hash was produced with a different cost.
func (h *Bcrypt) NeedsRehash(hash []byte) bool {
	cost, err := bcrypt.Cost(hash)
	return err != nil || cost != h.cost
}

var _ ports.Hasher = (*Bcrypt)(nil)

// Fake provides a reversible hasher for testing (NOT FOR PRODUCTION).
type Fake struct{}

// Hash returns the plaintext with a marker prefix.
func (Fake) Hash(plaintext string) ([]byte, error) {
	return []byte("fake$" + plaintext), nil
}

// Compare checks the marker-prefixed plaintext.
func (Fake) Compare(hash []byte, plaintext string) bool {
	return subtle.ConstantTimeCompare(hash, []byte("fake$"+plaintext)) == 1
}

var _ ports.Hasher = Fake{}
