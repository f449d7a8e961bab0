// Command students-api serves the Student Registry HTTP API.
//
// STARTUP SEQUENCE:
//  1. Load configuration from an optional YAML file and the environment
//  2. Initialise the logger
//  3. Open the configured storage backend (creating the table if needed)
//  4. Build the router and start the HTTP server
//  5. Block until SIGINT or SIGTERM, then shut down gracefully
//
// RUNNING THE SERVER:
//
//	go run ./cmd/students-api --config=config/local.yaml
//
// or, as in the container image, from the environment alone:
//
//	PORT=8000 DB_PATH=/data/students.db go run ./cmd/students-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"

	"github.com/aanand-mishra/students-api/internal/config"
	"github.com/aanand-mishra/students-api/internal/http/router"
	"github.com/aanand-mishra/students-api/internal/logger"
	"github.com/aanand-mishra/students-api/internal/storage/backend"
)

// overridden during build with ldflags
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "students-api",
		Usage:   "CRUD HTTP API over the students table",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the configuration YAML file (optional)",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the HTTP server (default)",
				Action: serveAction,
			},
			{
				Name:   "migrate",
				Usage:  "create the students table and exit",
				Action: migrateAction,
			},
		},
	}
}

func loadConfig(cmd *cli.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	log := logger.New(cfg.Env, os.Stdout)
	slog.SetDefault(log)
	return cfg, log, nil
}

func migrateAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Opening a backend creates the table if it does not exist yet.
	store, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		return errors.Annotate(err, "failed to initialise storage")
	}
	log.Info("storage migrated", slog.String("driver", cfg.Storage.Driver))
	return store.Close()
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	// ── 1. Load Config and Logger ────────────────────────────────────────────
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log.Info("starting students-api",
		slog.String("env", cfg.Env),
		slog.String("version", version),
	)

	// ── 2. Open Storage ──────────────────────────────────────────────────────
	// The table is created on open if it does not exist yet.
	store, err := backend.Open(ctx, cfg.Storage)
	if err != nil {
		return errors.Annotate(err, "failed to initialise storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	log.Info("storage initialised",
		slog.String("driver", cfg.Storage.Driver),
		slog.String("path", cfg.Storage.Path))

	// ── 3. Metrics Registry ──────────────────────────────────────────────────
	// A private registry, so tests can build routers without clashing on
	// the global default one.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// ── 4. Create the HTTP Server ────────────────────────────────────────────
	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr(),
		Handler:      router.New(store, log, reg, reg),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	return run(ctx, server, cfg.HTTPServer, log)
}

// run serves until ctx is cancelled, then gives in-flight requests up to
// the shutdown timeout to finish.
func run(ctx context.Context, server *http.Server, cfg config.HTTPServer, log *slog.Logger) error {
	// ── Start Server in a Goroutine ──────────────────────────────────────────
	// ListenAndServe blocks, so it runs on its own goroutine and reports
	// a startup failure (port in use, bad address) through errCh.
	errCh := make(chan error, 1)
	go func() {
		log.Info("server started", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// ── Wait for Shutdown Signal or Server Error ─────────────────────────────
	select {
	case err := <-errCh:
		if err != nil {
			return errors.Annotate(err, "server encountered an error")
		}
		return nil
	case <-ctx.Done():
	}

	// ── Graceful Shutdown ────────────────────────────────────────────────────
	// Shutdown stops accepting connections and waits for in-flight
	// requests, but never longer than ShutdownTimeout.
	log.Info("shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Annotate(err, "failed to shutdown server gracefully")
	}

	log.Info("server stopped gracefully")
	return nil
}
