// Package main is the entrypoint for the netdisk link aggregator service.
// It uses cobra for subcommand dispatch: serve (the long-running process),
// migrate (run database migrations and exit), and dedup-once (a single
// deduplication pass, for cron-driven invocation outside the in-process
// scheduler).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lueurxax/netdisk-aggregator/internal/app"
	"github.com/lueurxax/netdisk-aggregator/internal/platform/config"
	db "github.com/lueurxax/netdisk-aggregator/internal/storage"
)

func main() {
	root := newRootCmd()

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "netdisk-aggregator",
		Short: "Telegram netdisk link aggregator",
	}

	root.AddCommand(newServeCmd(), newMigrateCmd(), newDedupOnceCmd())

	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run ingestion, the REST API, and scheduled maintenance until terminated",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				return a.RunServe(ctx)
			})
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run pending database migrations and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withDatabase(func(ctx context.Context, _ *config.Config, database *db.DB, _ *zerolog.Logger) error {
				return database.Migrate(ctx)
			})
		},
	}
}

func newDedupOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dedup-once",
		Short: "Run a single strict deduplication pass and exit",
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				return a.RunDedupOnce(ctx)
			})
		},
	}
}

// withApp loads config, connects and migrates the database, and runs fn
// against a constructed App, tearing both down on return.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	return withDatabase(func(ctx context.Context, cfg *config.Config, database *db.DB, logger *zerolog.Logger) error {
		if err := database.Migrate(ctx); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}

		return fn(ctx, app.New(cfg, database, logger))
	})
}

func withDatabase(fn func(ctx context.Context, cfg *config.Config, database *db.DB, logger *zerolog.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.DatabaseURL, &logger)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer database.Close()

	return fn(ctx, cfg, database, &logger)
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger().Level(lvl)
}
