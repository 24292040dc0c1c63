package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CourtEdge/internal/domain/repository"
	"CourtEdge/pkg/cache"
	pkgch "CourtEdge/pkg/clickhouse"
	"CourtEdge/pkg/config"
	xhttp "CourtEdge/pkg/http"
	applogger "CourtEdge/pkg/logger"
	"CourtEdge/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	http      *xhttp.Server
	digest    *applogger.Digest
	archive   *queue.WorkerQueue
	publisher repository.EventPublisher
	chClient  *pkgch.Client
	cache     cache.Service
}

type Option func(*App)

func WithDigest(d *applogger.Digest) Option {
	return func(a *App) { a.digest = d }
}

// WithArchiveQueue drains pending archive writes before ClickHouse is closed.
func WithArchiveQueue(q *queue.WorkerQueue) Option {
	return func(a *App) { a.archive = q }
}

func WithPublisher(p repository.EventPublisher) Option {
	return func(a *App) { a.publisher = p }
}

func WithClickHouse(c *pkgch.Client) Option {
	return func(a *App) { a.chClient = c }
}

func WithCache(c cache.Service) Option {
	return func(a *App) { a.cache = c }
}

// New creates an App around a configured HTTP server. Optional resources are closed on shutdown.
func New(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, opts ...Option) *App {
	a := &App{cfg: cfg, log: l, http: srv}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts serving and blocks until SIGINT/SIGTERM, ctx cancellation or a listener failure.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.http.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("courtedge started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("addr", a.http.Addr()),
		applogger.String("provider", a.cfg.Provider.Backend),
		applogger.Bool("cache", a.cache != nil),
		applogger.Bool("clickhouse", a.chClient != nil),
		applogger.Bool("kafka", a.cfg.Kafka.Enabled),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case runErr = <-a.http.Errors():
		a.log.Error("http server failed", applogger.Error(runErr))
	}

	a.shutdown()
	return runErr
}

// shutdown stops intake first, then flushes and closes downstream resources.
func (a *App) shutdown() {
	a.log.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()
	if err := a.http.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.archive != nil {
		if err := a.archive.Stop(ctx); err != nil {
			a.log.Warn("archive queue stop error", applogger.Error(err))
		}
	}
	if a.digest != nil {
		a.log.DetachDigest()
		a.digest.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}
	a.log.Info("shutdown complete")
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg.Server.ShutdownTimeout > 0 {
		return a.cfg.Server.ShutdownTimeout
	}
	return 10 * time.Second
}
