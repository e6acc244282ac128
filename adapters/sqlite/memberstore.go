package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/artpar/gymdesk/domain/billing"
	"github.com/artpar/gymdesk/ports"
	"github.com/shopspring/decimal"
)

const memberColumns = `id, name, phone, monthly_fee, due_day, enrolled_at, active, created_at, updated_at`

// MemberStore implements ports.MemberStore using SQLite.
type MemberStore struct {
	db *DB
}

// NewMemberStore creates a new SQLite member store.
func NewMemberStore(db *DB) *MemberStore {
	return &MemberStore{db: db}
}

// Get retrieves a member by ID.
func (s *MemberStore) Get(ctx context.Context, id string) (billing.Member, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+memberColumns+`
		FROM members
		WHERE id = ?
	`, id)
	return scanMember(row)
}

// List returns all members ordered by name.
func (s *MemberStore) List(ctx context.Context) ([]billing.Member, error) {
	return s.query(ctx, `
		SELECT `+memberColumns+`
		FROM members
		ORDER BY name COLLATE NOCASE, id
	`)
}

// ListActive returns active members ordered by name.
func (s *MemberStore) ListActive(ctx context.Context) ([]billing.Member, error) {
	return s.query(ctx, `
		SELECT `+memberColumns+`
		FROM members
		WHERE active = 1
		ORDER BY name COLLATE NOCASE, id
	`)
}

func (s *MemberStore) query(ctx context.Context, query string, args ...any) ([]billing.Member, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []billing.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// Create stores a new member.
func (s *MemberStore) Create(ctx context.Context, m billing.Member) error {
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (`+memberColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.Name, m.Phone, m.MonthlyFee.StringFixed(2), m.DueDay,
		formatDate(m.EnrolledAt), m.Active, m.CreatedAt.UTC(), m.UpdatedAt.UTC())

	if err != nil && isUniqueConstraintError(err) {
		return ErrDuplicate
	}
	return err
}

// Update replaces a member's editable fields.
func (s *MemberStore) Update(ctx context.Context, m billing.Member) error {
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE members
		SET name = ?, phone = ?, monthly_fee = ?, due_day = ?, updated_at = ?
		WHERE id = ?
	`, m.Name, m.Phone, m.MonthlyFee.StringFixed(2), m.DueDay, m.UpdatedAt.UTC(), m.ID)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// SetActive flips the active flag.
func (s *MemberStore) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE members SET active = ?, updated_at = ? WHERE id = ?
	`, active, at.UTC(), id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// Count returns the number of members.
func (s *MemberStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members`).Scan(&n)
	return n, err
}

func scanMember(row scanner) (billing.Member, error) {
	var (
		m        billing.Member
		fee      string
		enrolled string
	)

	err := row.Scan(
		&m.ID, &m.Name, &m.Phone, &fee, &m.DueDay, &enrolled, &m.Active, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Member{}, ErrNotFound
	}
	if err != nil {
		return billing.Member{}, err
	}

	if m.MonthlyFee, err = decimal.NewFromString(fee); err != nil {
		return billing.Member{}, fmt.Errorf("member %s fee: %w", m.ID, err)
	}
	if m.EnrolledAt, err = parseDate(enrolled); err != nil {
		return billing.Member{}, fmt.Errorf("member %s: %w", m.ID, err)
	}
	return m, nil
}

func expectOne(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Ensure interface compliance.
var _ ports.MemberStore = (*MemberStore)(nil)
