package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/artpar/gymdesk/domain/auth"
	"github.com/artpar/gymdesk/ports"
)

// SessionStore implements ports.SessionStore using SQLite.
type SessionStore struct {
	db *DB
}

// NewSessionStore creates a new SQLite session store.
func NewSessionStore(db *DB) *SessionStore {
	return &SessionStore{db: db}
}

// Create stores a new session.
func (s *SessionStore) Create(ctx context.Context, session auth.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staff_sessions (id, user_id, token_hash, ip_address, user_agent, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, session.ID, session.UserID, session.TokenHash, nullString(session.IPAddress),
		nullString(session.UserAgent), session.ExpiresAt.UTC(), session.CreatedAt.UTC())

	if err != nil && isUniqueConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

// GetByHash retrieves a session by the hash of its token.
func (s *SessionStore) GetByHash(ctx context.Context, hash []byte) (auth.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, ip_address, user_agent, expires_at, created_at
		FROM staff_sessions
		WHERE token_hash = ?
	`, hash)

	return scanSession(row)
}

// Delete removes a session.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM staff_sessions WHERE id = ?
	`, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// DeleteByUser removes all sessions for a user.
func (s *SessionStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM staff_sessions WHERE user_id = ?
	`, userID)
	return err
}

// DeleteExpired removes sessions expired at now.
func (s *SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM staff_sessions WHERE expires_at <= ?
	`, now.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanSession(row *sql.Row) (auth.Session, error) {
	var sess auth.Session
	var ipAddress, userAgent sql.NullString

	err := row.Scan(
		&sess.ID, &sess.UserID, &sess.TokenHash, &ipAddress, &userAgent,
		&sess.ExpiresAt, &sess.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Session{}, ErrNotFound
	}
	if err != nil {
		return auth.Session{}, err
	}

	sess.IPAddress = ipAddress.String
	sess.UserAgent = userAgent.String
	return sess, nil
}

// Ensure interface compliance.
var _ ports.SessionStore = (*SessionStore)(nil)
