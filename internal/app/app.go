// Package app wires the market client's dependencies and runs the serve
// lifecycle: HTTP API, WebSocket hub and the startup network check.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sebikillmachin/SUI/internal/config"
	"github.com/sebikillmachin/SUI/internal/server"
	"github.com/sebikillmachin/SUI/internal/server/handler"
	"github.com/sebikillmachin/SUI/internal/server/ws"
	"github.com/sebikillmachin/SUI/internal/service"
)

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Wire builds the dependencies and registers their cleanup with the App.
func (a *App) Wire(ctx context.Context) (*Dependencies, error) {
	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)
	return deps, nil
}

// Serve wires all dependencies, checks the node's network, and serves the
// HTTP API and WebSocket hub until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("network", a.cfg.Network.Name),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, err := a.Wire(ctx)
	if err != nil {
		return err
	}

	var (
		executor handler.Executor
		network  handler.NetworkStatus
	)
	if deps.Actions != nil {
		if err := deps.Actions.VerifyNetwork(ctx, deps.Node); err != nil {
			// Reads keep working; submission stays disabled until restart.
			a.logger.WarnContext(ctx, "app: network check failed", slog.String("error", err.Error()))
		}
		executor, network = deps.Actions, deps.Actions
	}

	hub := ws.NewHub(deps.SignalBus, func() *service.Session {
		return service.NewSession(deps.Markets, deps.Portfolios)
	}, a.logger)

	srv := server.NewServer(server.Config{
		Port:          a.cfg.Server.Port,
		CORSOrigins:   a.cfg.Server.CORSOrigins,
		APIKey:        a.cfg.Server.APIKey,
		ExecuteLimit:  a.cfg.Server.ExecuteLimit,
		ExecuteWindow: a.cfg.Server.ExecuteWindow.Duration,
	}, server.Handlers{
		Health:     handler.NewHealthHandler(network, a.logger),
		Markets:    handler.NewMarketHandler(deps.Markets, deps.Registry, a.logger),
		Portfolios: handler.NewPortfolioHandler(deps.Portfolios, a.logger),
		Tokens:     handler.NewTokenHandler(deps.Registry),
		Tx:         handler.NewTxHandler(deps.Intents, executor, a.logger),
	}, hub, deps.RateLimiter, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := hub.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
	return g.Wait()
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
