package memory

import (
	"context"
	"sync"
	"time"

	"github.com/artpar/gymdesk/domain/ratelimit"
	"github.com/artpar/gymdesk/ports"
)

// AttemptStore is an in-memory implementation of ports.AttemptStore.
type AttemptStore struct {
	mu    sync.RWMutex
	state map[string]ratelimit.AttemptState
}

// NewAttemptStore creates a new in-memory attempt store.
func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		state: make(map[string]ratelimit.AttemptState),
	}
}

// Get retrieves the state for a key; missing keys yield the zero state.
func (s *AttemptStore) Get(ctx context.Context, key string) (ratelimit.AttemptState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state[key], nil
}

// Set updates the state for a key.
func (s *AttemptStore) Set(ctx context.Context, key string, state ratelimit.AttemptState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[key] = state
	return nil
}

// Delete clears a key.
func (s *AttemptStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state, key)
	return nil
}

// DeleteBefore removes entries whose first attempt and lock both precede cutoff.
func (s *AttemptStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for key, st := range s.state {
		if st.FirstAttempt.Before(cutoff) && st.LockedUntil.Before(cutoff) {
			delete(s.state, key)
			n++
		}
	}
	return n, nil
}

// Clear removes all state (for testing).
func (s *AttemptStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = make(map[string]ratelimit.AttemptState)
}

// Ensure interface compliance.
var _ ports.AttemptStore = (*AttemptStore)(nil)
