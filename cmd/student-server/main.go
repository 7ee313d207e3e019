// student-server serves the student table over HTTP, plus the files of
// a web root directory.
//
// RUNNING THE SERVER:
//
//	go run ./cmd/student-server serve --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/student-server serve
//
// Without either, every setting comes from the environment or its default.
//
// SCHEMA:
//
//	go run ./cmd/student-server migrate up|down|status
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aanand-mishra/student-webserver/internal/config"
	"github.com/aanand-mishra/student-webserver/internal/storage/mysql"
	"github.com/aanand-mishra/student-webserver/internal/storage/sqlite"
	"github.com/aanand-mishra/student-webserver/internal/storage/sqlstore"
	"github.com/spf13/cobra"
)

// Build info, injected via ldflags.
var Version = "dev"

var (
	configFlag string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:          "student-server",
	Short:        "Student records over HTTP",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(config.Path(configFlag))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to the configuration YAML file")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore connects to the configured backend.
func openStore(ctx context.Context, cfg *config.Config) (*sqlstore.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		s, err := sqlite.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s.Store, nil
	default:
		s, err := mysql.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s.Store, nil
	}
}
