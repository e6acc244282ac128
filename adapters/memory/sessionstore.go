package memory

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/artpar/gymdesk/domain/auth"
	"github.com/artpar/gymdesk/ports"
)

// SessionStore is an in-memory implementation of ports.SessionStore.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]auth.Session // by ID
	byHash   map[string]string       // hex(token hash) -> ID
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]auth.Session),
		byHash:   make(map[string]string),
	}
}

// Create stores a new session.
func (s *SessionStore) Create(ctx context.Context, session auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[session.ID] = session
	s.byHash[hex.EncodeToString(session.TokenHash)] = session.ID
	return nil
}

// GetByHash retrieves a session by the hash of its token.
func (s *SessionStore) GetByHash(ctx context.Context, hash []byte) (auth.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHash[hex.EncodeToString(hash)]
	if !ok {
		return auth.Session{}, ErrNotFound
	}
	return s.sessions[id], nil
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(id)
	return nil
}

// DeleteByUser removes all sessions for a user.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		if sess.UserID == userID {
			s.deleteLocked(id)
		}
	}
	return nil
}

// DeleteExpired removes sessions expired at now.
func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, sess := range s.sessions {
		if sess.IsExpired(now) {
			s.deleteLocked(id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions (for testing).
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) deleteLocked(id string) {
	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	delete(s.byHash, hex.EncodeToString(sess.TokenHash))
	delete(s.sessions, id)
}

// Ensure interface compliance.
var _ ports.SessionStore = (*SessionStore)(nil)
