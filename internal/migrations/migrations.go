// Package migrations owns the student table schema. One goose
// migration set is embedded per storage driver.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed mysql/*.sql sqlite/*.sql
var files embed.FS

// goose keeps dialect and filesystem in package globals.
var mu sync.Mutex

func setup(driver string, log *slog.Logger) (string, error) {
	var dialect string
	switch driver {
	case "mysql":
		dialect = "mysql"
	case "sqlite":
		dialect = "sqlite3"
	default:
		return "", fmt.Errorf("migrations: unsupported driver %q", driver)
	}

	if err := goose.SetDialect(dialect); err != nil {
		return "", fmt.Errorf("migrations: set dialect: %w", err)
	}
	goose.SetBaseFS(files)
	if log != nil {
		goose.SetLogger(gooseLogger{log: log})
	}
	return driver, nil
}

// Up migrates the schema to the latest version.
func Up(ctx context.Context, db *sql.DB, driver string, log *slog.Logger) error {
	mu.Lock()
	defer mu.Unlock()

	dir, err := setup(driver, log)
	if err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("migrations: up: %w", err)
	}
	return nil
}

// Down rolls back a single migration.
func Down(ctx context.Context, db *sql.DB, driver string, log *slog.Logger) error {
	mu.Lock()
	defer mu.Unlock()

	dir, err := setup(driver, log)
	if err != nil {
		return err
	}
	if err := goose.DownContext(ctx, db, dir); err != nil {
		return fmt.Errorf("migrations: down: %w", err)
	}
	return nil
}

// Status logs the applied state of every migration.
func Status(ctx context.Context, db *sql.DB, driver string, log *slog.Logger) error {
	mu.Lock()
	defer mu.Unlock()

	dir, err := setup(driver, log)
	if err != nil {
		return err
	}
	if err := goose.StatusContext(ctx, db, dir); err != nil {
		return fmt.Errorf("migrations: status: %w", err)
	}
	return nil
}

// gooseLogger routes goose output into slog.
type gooseLogger struct {
	log *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "migrations"))
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "migrations"))
}
