package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/artpar/gymdesk/domain/billing"
	"github.com/artpar/gymdesk/ports"
)

// MemberStore is an in-memory implementation of ports.MemberStore.
type MemberStore struct {
	mu      sync.RWMutex
	members map[string]billing.Member
}

// NewMemberStore creates a new in-memory member store.
func NewMemberStore() *MemberStore {
	return &MemberStore{members: make(map[string]billing.Member)}
}

// Get retrieves a member by ID.
func (s *MemberStore) Get(ctx context.Context, id string) (billing.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[id]
	if !ok {
		return billing.Member{}, ErrNotFound
	}
	return m, nil
}

// List returns all members ordered by name.
func (s *MemberStore) List(ctx context.Context) ([]billing.Member, error) {
	return s.list(func(billing.Member) bool { return true }), nil
}

// ListActive returns active members ordered by name.
func (s *MemberStore) ListActive(ctx context.Context) ([]billing.Member, error) {
	return s.list(func(m billing.Member) bool { return m.Active }), nil
}

func (s *MemberStore) list(keep func(billing.Member) bool) []billing.Member {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]billing.Member, 0, len(s.members))
	for _, m := range s.members {
		if keep(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Create stores a new member.
func (s *MemberStore) Create(ctx context.Context, m billing.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.members[m.ID]; exists {
		return ErrDuplicate
	}
	s.members[m.ID] = m
	return nil
}

// Update replaces a member's editable fields.
func (s *MemberStore) Update(ctx context.Context, m billing.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.members[m.ID]
	if !ok {
		return ErrNotFound
	}
	old.Name = m.Name
	old.Phone = m.Phone
	old.MonthlyFee = m.MonthlyFee
	old.DueDay = m.DueDay
	old.UpdatedAt = m.UpdatedAt
	s.members[m.ID] = old
	return nil
}

// SetActive flips the active flag.
func (s *MemberStore) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[id]
	if !ok {
		return ErrNotFound
	}
	m.Active = active
	m.UpdatedAt = at
	s.members[id] = m
	return nil
}

// Count returns the number of members.
func (s *MemberStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members), nil
}

// Clear removes all members (for testing).
func (s *MemberStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = make(map[string]billing.Member)
}

// Ensure interface compliance.
var _ ports.MemberStore = (*MemberStore)(nil)
