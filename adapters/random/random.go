// Package random provides Random implementations.
package random

import (
	"crypto/rand"
	"encoding/base64"
	"sync"

	"github.com/artpar/gymdesk/ports"
)

// Real uses crypto/rand for secure randomness.
type Real struct{}

// Bytes generates n cryptographically secure random bytes.
func (Real) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// String generates a URL-safe random string of n characters.
// Used for generated passwords, so the alphabet is base64url.
func (r Real) String(n int) (string, error) {
	b, err := r.Bytes(base64.RawURLEncoding.DecodedLen(n) + 1)
	if err != nil {
		return "", err
	}
	return encode(b, n), nil
}

var _ ports.Random = Real{}

// Fake provides deterministic randomness for testing.
type Fake struct {
	mu      sync.Mutex
	counter int
	values  [][]byte // preset values, returned in order
	index   int
}

// NewFake creates a fake random source.
func NewFake() *Fake {
	return &Fake{}
}

// WithValues sets preset byte values to return.
func (f *Fake) WithValues(values ...[]byte) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = values
	f.index = 0
	return f
}

// Bytes returns preset bytes or deterministic bytes based on a counter.
func (f *Fake) Bytes(n int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b := make([]byte, n)
	if f.index < len(f.values) {
		copy(b, f.values[f.index])
		f.index++
		return b, nil
	}

	f.counter++
	for i := range b {
		b[i] = byte((f.counter + i) % 256)
	}
	return b, nil
}

// String returns a deterministic URL-safe string.
func (f *Fake) String(n int) (string, error) {
	b, err := f.Bytes(base64.RawURLEncoding.DecodedLen(n) + 1)
	if err != nil {
		return "", err
	}
	return encode(b, n), nil
}

// Reset resets the fake to its initial state.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counter = 0
	f.index = 0
}

var _ ports.Random = (*Fake)(nil)

func encode(b []byte, n int) string {
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) > n {
		s = s[:n]
	}
	return s
}
