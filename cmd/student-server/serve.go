package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aanand-mishra/student-webserver/internal/http/handlers/static"
	"github.com/aanand-mishra/student-webserver/internal/http/handlers/student"
	"github.com/aanand-mishra/student-webserver/internal/http/router"
	"github.com/aanand-mishra/student-webserver/internal/logger"
	"github.com/aanand-mishra/student-webserver/internal/migrations"
	"github.com/aanand-mishra/student-webserver/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// serveCmd runs the HTTP server.
//
// STARTUP SEQUENCE:
//  1. Initialise the logger
//  2. Connect to the database and apply pending migrations
//  3. Resolve the web root
//  4. Register all HTTP routes
//  5. Start the HTTP server in a separate goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, drain the worker
//     pool, close the database
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(ctx context.Context) error {
	// ── 1. Logger ─────────────────────────────────────────────────────────
	log, logCloser := logger.Setup(cfg)
	defer logCloser.Close()
	slog.SetDefault(log)

	log.Info("starting student-server",
		slog.String("env", cfg.Env),
		slog.String("version", Version),
		slog.String("driver", cfg.Storage.Driver),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── 2. Storage ────────────────────────────────────────────────────────
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		return err
	}
	defer store.Close()

	if !cfg.Storage.SkipMigrations {
		if err := migrations.Up(ctx, store.DB, cfg.Storage.Driver, log); err != nil {
			log.Error("failed to migrate storage", slog.String("error", err.Error()))
			return err
		}
	}
	log.Info("storage initialised")

	// ── 3. Web root ───────────────────────────────────────────────────────
	files, err := static.New(cfg.WebRoot)
	if err != nil {
		log.Error("failed to open web root", slog.String("error", err.Error()))
		return err
	}
	log.Info("serving files", slog.String("root", files.Root))

	// ── 4. Routes ─────────────────────────────────────────────────────────
	pool := worker.New(cfg.Workers.Size)
	log.Info("worker pool ready", slog.Int("size", pool.Size()))

	deps := router.Deps{
		Store:  store,
		Pool:   pool,
		Format: student.ParseFormat(cfg.Response.Format),
		Static: files,
		Logger: log,
	}
	if !cfg.Metrics.Disabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		deps.Registry = reg
		deps.MetricsPath = cfg.Metrics.Path
	}

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      router.New(deps),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ── 5. Start ──────────────────────────────────────────────────────────
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// ListenAndServe returns http.ErrServerClosed after Shutdown.
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// ── 6. Wait ───────────────────────────────────────────────────────────
	select {
	case err, ok := <-serveErr:
		if ok {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			return err
		}
	case <-ctx.Done():
		log.Info("shutdown signal received, stopping server...")
	}

	// ── 7. Shutdown ───────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := pool.Close(shutdownCtx); err != nil {
		log.Warn("worker pool did not drain", slog.String("error", err.Error()))
	}

	log.Info("server stopped gracefully")
	return nil
}
