// Package storage defines the Storage interface, the contract any
// database backend must satisfy to serve the /mysql routes.
//
// Handlers depend only on this interface, so the MySQL and SQLite
// backends are interchangeable and tests can pass an in-memory fake.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-webserver/internal/types"
)

// ErrNotFound is returned by GetStudentByID when no row has the id.
var ErrNotFound = errors.New("student not found")

// ─────────────────────────────────────────────────────────────────────────────
// Storage is the database contract.
// ─────────────────────────────────────────────────────────────────────────────
type Storage interface {
	// GetStudents returns every row in the storage engine's natural
	// order. Returns an empty slice (not nil) if the table is empty.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// GetStudentByID fetches a single row by primary key.
	// Returns ErrNotFound (wrapped) when nothing matches.
	GetStudentByID(ctx context.Context, id int64) (types.Student, error)

	// CreateStudent inserts a row. The id column is bound to the
	// backend's sentinel so the engine assigns the key.
	CreateStudent(ctx context.Context, firstName, lastName, dept string) error

	// UpdateStudentByID overwrites the three text columns of the row
	// with the given id. Updating an id that does not exist is not an error.
	UpdateStudentByID(ctx context.Context, id int64, firstName, lastName, dept string) error

	// Close releases the underlying connection pool.
	Close() error
}
