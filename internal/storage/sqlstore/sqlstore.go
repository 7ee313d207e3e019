// Package sqlstore implements storage.Storage on top of database/sql.
//
// The four statements are the same for every backend except for the
// value bound to the id column on insert: MySQL assigns the next
// AUTO_INCREMENT key for 0, SQLite only for NULL. Backends pass their
// sentinel to New and otherwise share this code.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aanand-mishra/student-webserver/internal/storage"
	"github.com/aanand-mishra/student-webserver/internal/types"
	"github.com/cenkalti/backoff/v4"
)

const (
	selectAll  = "SELECT id, firstname, lastname, dept FROM student"
	selectByID = "SELECT id, firstname, lastname, dept FROM student WHERE id = ?"
	updateByID = "UPDATE student SET firstname = ?, lastname = ?, dept = ? WHERE id = ?"
)

// ─────────────────────────────────────────────────────────────────────────────
// Store is the database/sql implementation of storage.Storage.
// A single *sql.DB is a connection pool and is safe for concurrent use.
// ─────────────────────────────────────────────────────────────────────────────
type Store struct {
	DB     *sql.DB
	insert string
}

var _ storage.Storage = (*Store)(nil)

// New wraps db. idSentinel is the SQL literal written into the id
// column on insert ("0" for MySQL, "NULL" for SQLite).
func New(db *sql.DB, idSentinel string) *Store {
	return &Store{
		DB: db,
		insert: fmt.Sprintf(
			"INSERT INTO student (id, firstname, lastname, dept) VALUES (%s, ?, ?, ?)", idSentinel),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Ping checks connectivity, retrying with exponential backoff up to
// retries extra attempts. Used once at start-up so that a database that
// is still booting does not abort the server.
//
// HOW THE RETRY STOPS:
// ────────────────────
// Each attempt gets its own 2s timeout. Retrying ends when:
//   - a ping succeeds
//   - retries extra attempts have failed; the last ping error is returned
//   - ctx is done; ctx.Err() is returned
// ─────────────────────────────────────────────────────────────────────────────
func Ping(ctx context.Context, db *sql.DB, retries uint) error {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(retries)), ctx)

	return backoff.Retry(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	}, b)
}

// ─────────────────────────────────────────────────────────────────────────────
// GetStudents runs the full-table scan.
// ─────────────────────────────────────────────────────────────────────────────
func (s *Store) GetStudents(ctx context.Context) ([]types.Student, error) {
	stmt, err := s.DB.PrepareContext(ctx, selectAll)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		var student types.Student
		if err := rows.Scan(
			&student.ID,
			&student.FirstName,
			&student.LastName,
			&student.Dept,
		); err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetStudentByID runs the parameterised lookup.
// ─────────────────────────────────────────────────────────────────────────────
func (s *Store) GetStudentByID(ctx context.Context, id int64) (types.Student, error) {
	stmt, err := s.DB.PrepareContext(ctx, selectByID)
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	var student types.Student
	err = stmt.QueryRowContext(ctx, id).Scan(
		&student.ID,
		&student.FirstName,
		&student.LastName,
		&student.Dept,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, fmt.Errorf("GetStudentByID: id %d: %w", id, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	return student, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateStudent inserts a row and lets the engine assign the key.
// ─────────────────────────────────────────────────────────────────────────────
func (s *Store) CreateStudent(ctx context.Context, firstName, lastName, dept string) error {
	stmt, err := s.DB.PrepareContext(ctx, s.insert)
	if err != nil {
		return fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, firstName, lastName, dept); err != nil {
		return fmt.Errorf("CreateStudent: exec: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// UpdateStudentByID is unconditional: zero affected rows is success.
// ─────────────────────────────────────────────────────────────────────────────
func (s *Store) UpdateStudentByID(ctx context.Context, id int64, firstName, lastName, dept string) error {
	stmt, err := s.DB.PrepareContext(ctx, updateByID)
	if err != nil {
		return fmt.Errorf("UpdateStudentByID: prepare: %w", err)
	}
	defer stmt.Close()

	// argument order matches the placeholders: firstname, lastname, dept, id
	if _, err := stmt.ExecContext(ctx, firstName, lastName, dept, id); err != nil {
		return fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() error {
	return s.DB.Close()
}
