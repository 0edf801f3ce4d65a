package server

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"MineWatch/internal/handler/api"
	"MineWatch/internal/usecase"
	"MineWatch/pkg/config"
	xhttp "MineWatch/pkg/http"
	applogger "MineWatch/pkg/logger"
	"MineWatch/pkg/metrics"
)

type namedCloser struct {
	name string
	c    io.Closer
}

// App encapsulates the application lifecycle. Batch commands use the use
// cases directly; Serve exposes the stored results over HTTP.
type App struct {
	Config    *config.Config
	Logger    *applogger.Logger
	Recorder  *metrics.Recorder
	Analysis  *usecase.AnalysisUseCase
	Mines     *usecase.MinesUseCase
	Reports   *usecase.ReportQueryUseCase
	PriceSync *usecase.PriceSyncUseCase

	handler xhttp.Handler
	closers []namedCloser
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	rec *metrics.Recorder,
	analysis *usecase.AnalysisUseCase,
	mines *usecase.MinesUseCase,
	reports *usecase.ReportQueryUseCase,
	sync *usecase.PriceSyncUseCase,
	handler *api.ResultsEchoHandler,
) *App {
	if log == nil {
		log = applogger.Nop()
	}
	app := &App{
		Config:    cfg,
		Logger:    log,
		Recorder:  rec,
		Analysis:  analysis,
		Mines:     mines,
		Reports:   reports,
		PriceSync: sync,
	}
	if handler != nil {
		app.handler = handler
	}
	return app
}

// AddCloser registers a resource released by Close, in reverse order.
func (a *App) AddCloser(name string, c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, namedCloser{name: name, c: c})
	}
}

// Serve runs the HTTP API until ctx is done, a signal arrives or the
// listener fails.
func (a *App) Serve(ctx context.Context) error {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(a.Config.Server.Host),
		xhttp.WithPort(a.Config.Server.Port),
		xhttp.WithTimeouts(a.Config.Server.ReadTimeout, a.Config.Server.WriteTimeout, a.Config.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(a.Config.Server.SlowThreshold),
		xhttp.WithLogger(a.Logger),
	}
	if a.Recorder != nil {
		opts = append(opts, xhttp.WithGatherer(a.Recorder.Registry()))
	}
	srv := xhttp.NewServer(a.handler, opts...)
	errCh := srv.Start()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			serveErr = err
		}
	}

	if err := srv.Stop(context.Background()); err != nil {
		a.Logger.Error("http shutdown error", applogger.Error(err))
	}
	return serveErr
}

// PushMetrics sends the recorder's metrics to the configured Pushgateway.
func (a *App) PushMetrics(ctx context.Context) error {
	if a.Recorder == nil {
		return nil
	}
	return a.Recorder.Push(ctx, a.Config.Metrics)
}

// Close flushes the log collector and releases infrastructure clients.
func (a *App) Close() error {
	a.Logger.RemoveCollector()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		nc := a.closers[i]
		if err := nc.c.Close(); err != nil {
			a.Logger.Warn("close error", applogger.String("resource", nc.name), applogger.Error(err))
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
