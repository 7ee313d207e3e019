// Package mysql provides the MySQL-backed storage.Storage, talking to the
// student table of the configured schema.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/aanand-mishra/student-webserver/internal/config"
	"github.com/aanand-mishra/student-webserver/internal/storage/sqlstore"
	"github.com/go-sql-driver/mysql"
)

// MySQL is the MySQL implementation of storage.Storage.
type MySQL struct {
	*sqlstore.Store
}

// DriverConfig translates the storage section of the application config
// into the driver's connection settings.
func DriverConfig(cfg config.Storage) *mysql.Config {
	dc := mysql.NewConfig()
	dc.User = cfg.User
	dc.Passwd = cfg.Password
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dc.DBName = cfg.Schema
	dc.Timeout = 5 * time.Second
	return dc
}

// New connects to the configured server and verifies the connection.
//
// The schema is not created here: run migrations.Up with driver "mysql".
func New(ctx context.Context, cfg *config.Config) (*MySQL, error) {
	connector, err := mysql.NewConnector(DriverConfig(cfg.Storage))
	if err != nil {
		return nil, fmt.Errorf("mysql.New: connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(cfg.Storage.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Storage.MaxOpenConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlstore.Ping(ctx, db, cfg.Storage.ConnectRetries); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql.New: ping %s: %w", cfg.Storage.Host, err)
	}

	// 0 in an AUTO_INCREMENT column means "assign the next key".
	return &MySQL{Store: sqlstore.New(db, "0")}, nil
}
