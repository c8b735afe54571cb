package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sit-hvlab/session-gateway/config"
	"github.com/sit-hvlab/session-gateway/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger()
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	logStartupInfo(ctx, logger, &cfg)

	return bootstrap.RunWithShutdown(ctx, &bootstrap.RunConfig{
		Config: &cfg,
		Logger: logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting session gateway",
		"backend_url", cfg.Backend.BaseURL,
		"sso_mode", cfg.Auth.Mode,
		"store_backend", cfg.Store.Backend,
		"addr", cfg.HTTP.Addr,
		"dev", cfg.IsDev)
}
