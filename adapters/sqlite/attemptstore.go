package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/artpar/gymdesk/domain/ratelimit"
	"github.com/artpar/gymdesk/ports"
)

// AttemptStore implements ports.AttemptStore using SQLite, so lockouts
// survive restarts.
type AttemptStore struct {
	db *DB
}

// NewAttemptStore creates a new SQLite attempt store.
func NewAttemptStore(db *DB) *AttemptStore {
	return &AttemptStore{db: db}
}

// Get returns the state for a key, or the zero state when none exists.
func (s *AttemptStore) Get(ctx context.Context, key string) (ratelimit.AttemptState, error) {
	var (
		st     ratelimit.AttemptState
		locked sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT count, first_attempt, locked_until FROM login_attempts WHERE key = ?
	`, key).Scan(&st.Count, &st.FirstAttempt, &locked)
	if errors.Is(err, sql.ErrNoRows) {
		return ratelimit.AttemptState{}, nil
	}
	if err != nil {
		return ratelimit.AttemptState{}, err
	}
	if locked.Valid {
		st.LockedUntil = locked.Time
	}
	return st, nil
}

// Set stores the state for a key.
func (s *AttemptStore) Set(ctx context.Context, key string, state ratelimit.AttemptState) error {
	var locked *time.Time
	if !state.LockedUntil.IsZero() {
		locked = &state.LockedUntil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO login_attempts (key, count, first_attempt, locked_until)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			count = excluded.count,
			first_attempt = excluded.first_attempt,
			locked_until = excluded.locked_until
	`, key, state.Count, state.FirstAttempt.UTC(), nullTime(locked))
	return err
}

// Delete clears a key.
func (s *AttemptStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM login_attempts WHERE key = ?`, key)
	return err
}

// DeleteBefore removes entries whose first attempt and lock both precede cutoff.
func (s *AttemptStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM login_attempts
		WHERE first_attempt < ? AND (locked_until IS NULL OR locked_until < ?)
	`, cutoff.UTC(), cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Ensure interface compliance.
var _ ports.AttemptStore = (*AttemptStore)(nil)
