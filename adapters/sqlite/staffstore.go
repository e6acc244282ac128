package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/artpar/gymdesk/domain/auth"
	"github.com/artpar/gymdesk/ports"
)

const staffColumns = `id, username, full_name, email, role, password_hash, active, must_reset_password, created_at, last_login_at`

// StaffStore implements ports.StaffStore using SQLite.
type StaffStore struct {
	db *DB
}

// NewStaffStore creates a new SQLite staff store.
func NewStaffStore(db *DB) *StaffStore {
	return &StaffStore{db: db}
}

// Get retrieves a staff user by ID.
func (s *StaffStore) Get(ctx context.Context, id string) (auth.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+staffColumns+` FROM staff_users WHERE id = ?`, id)
	return scanStaff(row)
}

// GetByUsername retrieves a staff user by username.
func (s *StaffStore) GetByUsername(ctx context.Context, username string) (auth.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+staffColumns+` FROM staff_users WHERE username = ?`, username)
	return scanStaff(row)
}

// GetByEmail retrieves a staff user by email (case-insensitive).
func (s *StaffStore) GetByEmail(ctx context.Context, email string) (auth.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+staffColumns+` FROM staff_users WHERE email = ?`, strings.TrimSpace(email))
	return scanStaff(row)
}

// List returns all staff users ordered by username.
func (s *StaffStore) List(ctx context.Context) ([]auth.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+staffColumns+` FROM staff_users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		u, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Create stores a new staff user.
func (s *StaffStore) Create(ctx context.Context, u auth.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staff_users (`+staffColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Username, u.FullName, u.Email, string(u.Role), u.PasswordHash,
		u.Active, u.MustResetPassword, u.CreatedAt.UTC(), nullTime(u.LastLoginAt))

	if err != nil && isUniqueConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

// Update replaces a staff user.
func (s *StaffStore) Update(ctx context.Context, u auth.User) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE staff_users
		SET username = ?, full_name = ?, email = ?, role = ?, password_hash = ?,
		    active = ?, must_reset_password = ?, last_login_at = ?
		WHERE id = ?
	`, u.Username, u.FullName, u.Email, string(u.Role), u.PasswordHash,
		u.Active, u.MustResetPassword, nullTime(u.LastLoginAt), u.ID)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDuplicate
		}
		return err
	}
	return expectOne(result)
}

// Count returns the number of staff users.
func (s *StaffStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM staff_users`).Scan(&n)
	return n, err
}

func scanStaff(row scanner) (auth.User, error) {
	var (
		u         auth.User
		role      string
		lastLogin sql.NullTime
	)

	err := row.Scan(
		&u.ID, &u.Username, &u.FullName, &u.Email, &role, &u.PasswordHash,
		&u.Active, &u.MustResetPassword, &u.CreatedAt, &lastLogin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, ErrNotFound
	}
	if err != nil {
		return auth.User{}, err
	}

	u.Role = auth.Role(role)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return u, nil
}

// Ensure interface compliance.
var _ ports.StaffStore = (*StaffStore)(nil)
