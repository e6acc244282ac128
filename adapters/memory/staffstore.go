package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/artpar/gymdesk/domain/auth"
	"github.com/artpar/gymdesk/ports"
)

// StaffStore is an in-memory implementation of ports.StaffStore.
type StaffStore struct {
	mu         sync.RWMutex
	users      map[string]auth.User // by ID
	byUsername map[string]string    // username -> ID
	byEmail    map[string]string    // lowercased email -> ID
}

// NewStaffStore creates a new in-memory staff store.
func NewStaffStore() *StaffStore {
	return &StaffStore{
		users:      make(map[string]auth.User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

// Get retrieves a staff user by ID.
func (s *StaffStore) Get(ctx context.Context, id string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return auth.User{}, ErrNotFound
	}
	return u, nil
}

// GetByUsername retrieves a staff user by username.
func (s *StaffStore) GetByUsername(ctx context.Context, username string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return auth.User{}, ErrNotFound
	}
	return s.users[id], nil
}

// GetByEmail retrieves a staff user by email.
func (s *StaffStore) GetByEmail(ctx context.Context, email string) (auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return auth.User{}, ErrNotFound
	}
	return s.users[id], nil
}

// List returns all staff users ordered by username.
func (s *StaffStore) List(ctx context.Context) ([]auth.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]auth.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// Create stores a new staff user.
func (s *StaffStore) Create(ctx context.Context, u auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := s.users[u.ID]; exists {
		return ErrDuplicate
	}
	if _, exists := s.byUsername[u.Username]; exists {
		return ErrDuplicate
	}
	if _, exists := s.byEmail[email]; exists {
		return ErrDuplicate
	}

	s.users[u.ID] = u
	s.byUsername[u.Username] = u.ID
	s.byEmail[email] = u.ID
	return nil
}

// Update replaces a staff user.
func (s *StaffStore) Update(ctx context.Context, u auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.users[u.ID]
	if !ok {
		return ErrNotFound
	}

	if old.Username != u.Username {
		if _, taken := s.byUsername[u.Username]; taken {
			return ErrDuplicate
		}
		delete(s.byUsername, old.Username)
		s.byUsername[u.Username] = u.ID
	}
	oldEmail, newEmail := strings.ToLower(old.Email), strings.ToLower(u.Email)
	if oldEmail != newEmail {
		if _, taken := s.byEmail[newEmail]; taken {
			return ErrDuplicate
		}
		delete(s.byEmail, oldEmail)
		s.byEmail[newEmail] = u.ID
	}

	s.users[u.ID] = u
	return nil
}

// Count returns the number of staff users.
func (s *StaffStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

// Clear removes all users (for testing).
func (s *StaffStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]auth.User)
	s.byUsername = make(map[string]string)
	s.byEmail = make(map[string]string)
}

// Ensure interface compliance.
var _ ports.StaffStore = (*StaffStore)(nil)
