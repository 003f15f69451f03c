// Package app wires every collaborator together and exposes the process's
// operational modes: serve (ingest + REST API + scheduled maintenance),
// dedup-once (a single deduplication pass), and the migration bootstrap
// cmd/netdisk-aggregator drives through *storage.DB.Migrate directly.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/lueurxax/netdisk-aggregator/internal/api"
	"github.com/lueurxax/netdisk-aggregator/internal/auth"
	"github.com/lueurxax/netdisk-aggregator/internal/dedup"
	"github.com/lueurxax/netdisk-aggregator/internal/ingest"
	"github.com/lueurxax/netdisk-aggregator/internal/platform/config"
	"github.com/lueurxax/netdisk-aggregator/internal/platform/observability"
	"github.com/lueurxax/netdisk-aggregator/internal/platform/worker"
	"github.com/lueurxax/netdisk-aggregator/internal/query"
	db "github.com/lueurxax/netdisk-aggregator/internal/storage"
	"github.com/lueurxax/netdisk-aggregator/internal/userstore"
	"github.com/lueurxax/netdisk-aggregator/internal/validate"
)

const (
	httpReadHeaderTimeout = 10 * time.Second
	httpShutdownTimeout   = 10 * time.Second
	validatorHTTPTimeout  = 20 * time.Second

	// linkCheckRetentionDays bounds how long link_check_stats/details rows
	// are kept by the automated housekeeping pass; the admin
	// clear-old-link-check-data endpoint accepts its own value for ad hoc
	// cleanups.
	linkCheckRetentionDays = 30
	maintenanceInterval    = 24 * time.Hour
)

// App holds every long-lived collaborator the process needs and exposes one
// method per operational mode.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger

	channels    *db.ChannelRepo
	credentials *db.CredentialRepo
	linkChecks  *db.LinkCheckRepo
	messages    *db.MessageRepo
	dedupStats  *db.DedupStatsRepo
	stats       *db.StatsRepo

	users   *userstore.Store
	authSvc *auth.Service

	dedupEngine *dedup.Engine
	validator   *validate.Runner
	maint       *query.MaintenanceService
	failLog     *ingest.FailLog
}

// New constructs an App and every repository/service it wires, but starts
// nothing: callers pick a Run* method for the operational mode they want.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	channels := db.NewChannelRepo(database)
	credentials := db.NewCredentialRepo(database)
	linkChecks := db.NewLinkCheckRepo(database)
	messages := db.NewMessageRepo(database)
	dedupStats := db.NewDedupStatsRepo(database)
	stats := db.NewStatsRepo(database)

	users := userstore.New(cfg.UserFilePath)
	signer := auth.NewSigner(cfg.SecretSalt)
	authSvc := auth.NewService(users, signer)

	dedupEngine := dedup.New(messages, dedupStats, *logger)

	validator := validate.NewRunner(
		validate.NewValidator(&http.Client{Timeout: validatorHTTPTimeout}),
		messages,
		linkChecks,
		*logger,
	)

	return &App{
		cfg:         cfg,
		database:    database,
		logger:      logger,
		channels:    channels,
		credentials: credentials,
		linkChecks:  linkChecks,
		messages:    messages,
		dedupStats:  dedupStats,
		stats:       stats,
		users:       users,
		authSvc:     authSvc,
		dedupEngine: dedupEngine,
		validator:   validator,
		maint:       query.NewMaintenanceService(linkChecks),
		failLog:     ingest.NewFailLog(cfg.FailLogDir),
	}
}

// RunServe runs the full long-lived process: MTProto ingestion, the REST
// API, the health/metrics server, the cron-scheduled dedup pass, and the
// daily link-check retention sweep. It blocks until ctx is canceled and
// returns the first fatal error from any of the five, canceling the others
// via errCh's owning context.
func (a *App) RunServe(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 5)

	go func() { errCh <- a.runIngest(ctx) }()
	go func() { errCh <- a.runHealthServer(ctx) }()
	go func() { errCh <- a.runAPIServer(ctx) }()
	go func() { errCh <- a.runDedupSchedule(ctx) }()
	go func() { errCh <- a.runMaintenanceTicker(ctx) }()

	err := <-errCh
	cancel()

	return err
}

func (a *App) runIngest(ctx context.Context) error {
	loop := ingest.NewLoop(a.cfg.TelegramMTProtoCfg(), a.cfg.DefaultChannels, a.messages, *a.logger, a.failLog)
	if err := loop.Run(ctx); err != nil {
		return fmt.Errorf("ingest loop: %w", err)
	}

	return nil
}

func (a *App) runHealthServer(ctx context.Context) error {
	srv := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("health server: %w", err)
	}

	return nil
}

func (a *App) runAPIServer(ctx context.Context) error {
	server := api.NewServer(api.Deps{
		Config:       a.cfg,
		Auth:         a.authSvc,
		Users:        a.users,
		Messages:     query.NewService(a.messages, a.stats, a.dedupStats),
		Maintenance:  a.maint,
		Channels:     a.channels,
		Credentials:  a.credentials,
		LinkChecks:   a.linkChecks,
		MessagesRepo: a.messages,
		Dedup:        a.dedupEngine,
		Validator:    a.validator,
		DB:           a.database,
	})

	httpSrv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: httpReadHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()

		//nolint:errcheck // shutdown in signal handler is best-effort
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("REST API server starting")

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api server: %w", err)
	}

	return nil
}

// runDedupSchedule runs the strict dedup pass on the cron expression
// DEDUP_SCHEDULE_CRON names, blocking until ctx is canceled.
func (a *App) runDedupSchedule(ctx context.Context) error {
	c := cron.New()

	if _, err := c.AddFunc(a.cfg.DedupScheduleCron, func() {
		if _, err := a.dedupEngine.RunStrict(ctx); err != nil {
			a.logger.Error().Err(err).Msg("scheduled dedup run failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule dedup cron %q: %w", a.cfg.DedupScheduleCron, err)
	}

	c.Start()

	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()

	return ctx.Err()
}

// runMaintenanceTicker runs the daily link-check retention sweep via
// internal/platform/worker's generic ticker loop, the same abstraction the
// teacher used for its periodic background tasks.
func (a *App) runMaintenanceTicker(ctx context.Context) error {
	err := worker.TickerLoop(ctx, worker.TickerConfig{
		Name: "link-check-retention",
		Tasks: []worker.TickerTask{
			{
				Name:     "clear-old-link-check-data",
				Interval: maintenanceInterval,
				Run: func(taskCtx context.Context) {
					if err := a.maint.ClearOldLinkCheckData(taskCtx, linkCheckRetentionDays); err != nil {
						a.logger.Error().Err(err).Msg("link check retention sweep failed")
					}
				},
			},
		},
		Logger: a.logger,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("maintenance ticker: %w", err)
	}

	return nil
}

// RunDedupOnce runs a single strict dedup pass and returns.
func (a *App) RunDedupOnce(ctx context.Context) error {
	res, err := a.dedupEngine.RunStrict(ctx)
	if err != nil {
		return fmt.Errorf("dedup run: %w", err)
	}

	a.logger.Info().Int("inserted", res.Inserted).Int("deleted", res.Deleted).Msg("dedup-once complete")

	return nil
}
