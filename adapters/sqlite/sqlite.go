// Package sqlite provides SQLite implementations of storage ports.
package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/artpar/gymdesk/ports"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	// ErrNotFound is returned when an entity is not found.
	ErrNotFound = ports.ErrNotFound

	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = ports.ErrDuplicate
)

// DB wraps a SQLite database connection.
type DB struct {
	*sql.DB
}

// Open creates a new SQLite database connection.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -16000", // 16MB
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	return &DB{DB: db}, nil
}

// Migrate runs all pending migrations and returns the versions it applied.
func (db *DB) Migrate() ([]string, error) {
	_, pending, err := db.MigrationStatus()
	if err != nil {
		return nil, err
	}

	var done []string
	for _, version := range pending {
		content, err := migrationsFS.ReadFile("migrations/" + version + ".sql")
		if err != nil {
			return done, fmt.Errorf("read migration %s: %w", version, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return done, fmt.Errorf("begin transaction: %w", err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return done, fmt.Errorf("execute migration %s: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return done, fmt.Errorf("record migration %s: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return done, fmt.Errorf("commit migration %s: %w", version, err)
		}
		done = append(done, version)
	}

	return done, nil
}

// MigrationStatus lists applied and pending migration versions in order.
func (db *DB) MigrationStatus() (applied, pending []string, err error) {
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return nil, nil, fmt.Errorf("create migrations table: %w", err)
	}

	seen := make(map[string]bool)
	rows, err := db.Query("SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, nil, fmt.Errorf("query migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, nil, fmt.Errorf("scan migration: %w", err)
		}
		seen[version] = true
		applied = append(applied, version)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var versions []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			versions = append(versions, strings.TrimSuffix(entry.Name(), ".sql"))
		}
	}
	sort.Strings(versions)

	for _, v := range versions {
		if !seen[v] {
			pending = append(pending, v)
		}
	}
	return applied, pending, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.DB.Close()
}

// Calendar dates are stored as YYYY-MM-DD text.

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
