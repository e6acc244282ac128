// Package memory provides in-memory store implementations for tests and
// single-process demos. Semantics match the SQLite stores.
package memory

import "github.com/artpar/gymdesk/ports"

var (
	// ErrNotFound is returned when an entity is not found.
	ErrNotFound = ports.ErrNotFound

	// ErrDuplicate is returned when a unique field is already taken.
	ErrDuplicate = ports.ErrDuplicate
)
