// Package app wires all paniwala subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run serves HTTP until the context is cancelled, and
// Shutdown tears everything down in order.
//
// For testing, inject mock implementations via functional options
// (WithStore, WithMetrics). When an option is not provided, New creates
// real implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hbashir/paniwala/internal/config"
	"github.com/hbashir/paniwala/internal/dates"
	"github.com/hbashir/paniwala/internal/ledger"
	"github.com/hbashir/paniwala/internal/ledger/postgres"
	"github.com/hbashir/paniwala/internal/match"
	"github.com/hbashir/paniwala/internal/observe"
	"github.com/hbashir/paniwala/internal/schedule"
)

// shutdownGrace is how long in-flight HTTP requests get to finish.
const shutdownGrace = 10 * time.Second

// App owns all subsystem lifetimes.
type App struct {
	cfg *config.Config

	store     ledger.Store
	pg        *postgres.Store
	svc       *ledger.Service
	engine    *dates.Engine
	planner   *schedule.Planner
	suggester *match.Suggester
	metrics   *observe.Metrics

	handler http.Handler

	// closers are called in reverse order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithStore injects a ledger store instead of creating one from config.
func WithStore(s ledger.Store) Option {
	return func(a *App) { a.store = s }
}

// WithMetrics injects a metrics instance instead of using the global
// default.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// New creates an App by wiring all subsystems together. With an empty
// postgres DSN the ledger runs in memory and loses data on restart.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}

	engine, err := dates.New(cfg.Business.Timezone, cfg.Business.DayCutoffHour)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.engine = engine

	if a.store == nil {
		if dsn := cfg.Storage.PostgresDSN; dsn != "" {
			pg, err := postgres.New(ctx, dsn)
			if err != nil {
				return nil, fmt.Errorf("app: open ledger store: %w", err)
			}
			a.pg = pg
			a.store = pg
			a.closers = append(a.closers, func() error {
				pg.Close()
				return nil
			})
			slog.Info("ledger store ready", "backend", "postgres")
		} else {
			a.store = ledger.NewMemStore()
			slog.Warn("no postgres_dsn configured, ledger is in-memory only")
		}
	}

	a.svc = ledger.NewService(a.store)
	a.planner = schedule.New(a.svc, a.engine)
	a.suggester = match.NewSuggester()

	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	return a, nil
}

// Service exposes the ledger service for the HTTP layer.
func (a *App) Service() *ledger.Service { return a.svc }

// Dates exposes the business date engine.
func (a *App) Dates() *dates.Engine { return a.engine }

// Planner exposes the delivery schedule planner.
func (a *App) Planner() *schedule.Planner { return a.planner }

// Metrics exposes the metric instruments.
func (a *App) Metrics() *observe.Metrics { return a.metrics }

// StorePing returns the ledger store's reachability probe, or nil when
// the store is in-memory.
func (a *App) StorePing() func(context.Context) error {
	if a.pg == nil {
		return nil
	}
	return a.pg.Ping
}

// SetHandler installs the HTTP handler served by Run. The HTTP layer is
// built on top of the App, so wiring happens in two steps.
func (a *App) SetHandler(h http.Handler) { a.handler = h }

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *App) Run(ctx context.Context) error {
	if a.handler == nil {
		return errors.New("app: no HTTP handler installed")
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Shutdown tears down all subsystems in reverse-init order. It respects
// the context deadline: if ctx expires before all closers finish,
// remaining closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i := len(a.closers) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", i+1)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := a.closers[i](); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
		slog.Info("shutdown complete")
	})
	return shutdownErr
}
