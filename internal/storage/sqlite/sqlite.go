// Package sqlite provides a SQLite-backed storage.Storage.
//
// SQLite stores everything in a single file on disk, which makes it the
// zero-setup backend for local development and for the test suite.
//
// The blank import below registers the "sqlite3" driver with database/sql.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/student-webserver/internal/config"
	"github.com/aanand-mishra/student-webserver/internal/storage/sqlstore"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLite is the SQLite implementation of storage.Storage.
type SQLite struct {
	*sqlstore.Store
}

// New opens the database file at cfg.Storage.Path, creating its parent
// directory if needed, and verifies the connection.
//
// The schema is not created here: run migrations.Up with driver "sqlite".
func New(ctx context.Context, cfg *config.Config) (*SQLite, error) {
	path := cfg.Storage.Path

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// Every connection to ":memory:" is a different database, and SQLite
	// serialises writers anyway.
	db.SetMaxOpenConns(1)

	if err := sqlstore.Ping(ctx, db, cfg.Storage.ConnectRetries); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: ping: %w", err)
	}

	// INTEGER PRIMARY KEY only auto-assigns for NULL; 0 would be stored verbatim.
	return &SQLite{Store: sqlstore.New(db, "NULL")}, nil
}
