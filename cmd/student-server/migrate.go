package main

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/aanand-mishra/student-webserver/internal/logger"
	"github.com/aanand-mishra/student-webserver/internal/migrations"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the student table schema",
}

func init() {
	migrateCmd.AddCommand(
		migrateStep("up", "Apply all pending migrations", migrations.Up),
		migrateStep("down", "Roll back the most recent migration", migrations.Down),
		migrateStep("status", "Show applied and pending migrations", migrations.Status),
	)
}

type migrateFunc func(ctx context.Context, db *sql.DB, driver string, log *slog.Logger) error

func migrateStep(use, short string, run migrateFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, closer := logger.Setup(cfg)
			defer closer.Close()

			store, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			return run(cmd.Context(), store.DB, cfg.Storage.Driver, log)
		},
	}
}
