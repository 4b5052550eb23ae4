package app

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"feewatch/internal/clock"
	"feewatch/internal/config"
	"feewatch/internal/fetcher"
	"feewatch/internal/metrics"
	"feewatch/internal/scheduler"
	"feewatch/internal/service"
	"feewatch/internal/storage"
	"feewatch/internal/trace"
	"feewatch/internal/version"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	// Stdout receives the console trace and command output.
	Stdout io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger(), Stdout: os.Stdout}
}

func (a *App) newFetcher() fetcher.Source {
	return fetcher.NewMempool(fetcher.MempoolOptions{
		FeesURL:    a.Config.Endpoints.FeesURL,
		MempoolURL: a.Config.Endpoints.MempoolURL,
		Timeout:    a.Config.Endpoints.RequestTimeout,
		UserAgent:  a.Config.Endpoints.UserAgent,
	}, a.Logger)
}

func (a *App) newTabular() *storage.Tabular {
	return storage.NewTabular(a.Config.Output.CSVPath, a.Config.Output.Fsync)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}

	mirrored, err := store.CountSnapshots(ctx)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	a.Logger.Info().Int64("mirrored_snapshots", mirrored).Msg("snapshot mirror ready")

	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running collector until SIGINT or SIGTERM.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Debug().Msg("database.dsn not configured; mirror disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	sysClock := clock.System()
	tracer := trace.New(a.Stdout, sysClock)

	tabular := a.newTabular()
	records := storage.NewRecordLog(a.Config.Output.JSONLPath, a.Config.Output.Fsync)
	errorLog := storage.NewErrorLog(a.Config.Output.ErrorsPath, a.Config.Output.Fsync, sysClock)

	deps := service.Deps{
		Name:    a.Config.App.Name,
		Source:  a.newFetcher(),
		Tabular: tabular,
		Records: records,
		Errors:  errorLog,
		Tracer:  tracer,
		Clock:   sysClock,
	}
	if store != nil {
		deps.Mirror = store
	}

	if a.Config.Metrics.Enabled {
		deps.Metrics = metrics.New(prometheus.DefaultRegisterer)
		stopMetrics := a.serveMetrics()
		defer stopMetrics()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Collector.Interval,
		StartupDelay: a.Config.Collector.StartupDelay,
		OnSleep:      tracer.Sleeping,
	}, a.Logger)

	svc := service.New(deps, sched, a.Logger)

	a.Logger.Info().
		Str("build", version.String()).
		Dur("interval", a.Config.Collector.Interval).
		Str("csv", tabular.Path()).
		Str("jsonl", records.Path()).
		Str("errors", errorLog.Path()).
		Msg("starting collector")

	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("collector terminated with error")
		return err
	}

	a.Logger.Info().Msg("collector stopped")
	return nil
}

// ExportOptions hold parameters for charting stored snapshots.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
