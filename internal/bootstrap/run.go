package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/sit-hvlab/session-gateway/config"
)

// RunConfig contains dependencies for the gateway runtime.
type RunConfig struct {
	Config *config.AppConfig
	Logger *slog.Logger
}

// RunWithShutdown builds the session manager, resolves the boot-time session,
// starts the HTTP server, and blocks until a shutdown signal is received.
// The server only starts serving after boot resolution so /auth/status never
// reports a stale loading state to the first request.
func RunWithShutdown(ctx context.Context, cfg *RunConfig) error {
	if cfg == nil || cfg.Config == nil {
		return errors.New("run config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	manager, err := BuildSessionManager(ManagerDeps{
		Config: cfg.Config,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer manager.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager.Boot(ctx)

	server := StartHTTPServer(&HTTPServerConfig{
		Config:  cfg.Config,
		Manager: manager,
		Logger:  logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down services...")
		return ShutdownHTTPServer(context.Background(), server, logger)
	})

	return g.Wait()
}
