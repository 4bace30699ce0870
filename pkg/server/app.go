package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	models "CrossImpact/internal/domain/models"
	drepo "CrossImpact/internal/domain/repository"
	"CrossImpact/internal/usecase"
	"CrossImpact/pkg/config"
	xhttp "CrossImpact/pkg/http"
	applogger "CrossImpact/pkg/logger"
)

// App encapsulates the entire application lifecycle: one batch run of the
// cross-impact pipeline, result publishing, and the optional results API.
type App struct {
	cfg      *config.Config
	l        *applogger.Logger
	pipeline *usecase.Pipeline
	sink     drepo.ResultSink
	store    *usecase.ReportStore
	handler  xhttp.Handler

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	pipeline *usecase.Pipeline,
	sink drepo.ResultSink,
	store *usecase.ReportStore,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:      cfg,
		l:        l,
		pipeline: pipeline,
		sink:     sink,
		store:    store,
		handler:  handler,
	}
}

// Run executes the batch pipeline, publishes results to the configured
// backend and, when the server is enabled, serves the results API until
// interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	report, err := a.pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	a.store.Set(report)

	a.l.Info("batch run complete",
		applogger.Int("symbols", len(report.Symbols)),
		applogger.Int("units", len(report.Regressions)),
		applogger.Int("units_failed", len(report.FailedUnits())),
	)

	if err := a.publish(ctx, report); err != nil {
		a.l.Error("result publishing failed", applogger.Error(err))
	}

	if !a.cfg.Server.Enabled {
		return a.shutdown(ctx)
	}

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(a.l),
	)
	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// publish stores all report series through the result sink.
func (a *App) publish(ctx context.Context, report *models.BatchReport) error {
	var composite []models.CompositeOFIRecord
	for _, records := range report.Composite {
		composite = append(composite, records...)
	}
	if err := a.sink.StoreComposite(ctx, composite); err != nil {
		return fmt.Errorf("store composite: %w", err)
	}

	var changes []models.PriceChangeRecord
	for _, records := range report.Returns {
		changes = append(changes, records...)
	}
	if err := a.sink.StorePriceChanges(ctx, changes); err != nil {
		return fmt.Errorf("store price changes: %w", err)
	}

	if err := a.sink.StoreRegressions(ctx, report.Regressions); err != nil {
		return fmt.Errorf("store regressions: %w", err)
	}
	return nil
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}

	if err := a.sink.Close(); err != nil {
		a.l.Warn("sink close error", applogger.Error(err))
	}

	a.l.Info("shutdown complete")
	return nil
}
