package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/careslot/internal/app"
	mcpinternal "github.com/felixgeelhaar/careslot/internal/mcp"
	"github.com/felixgeelhaar/careslot/pkg/config"
	"github.com/felixgeelhaar/careslot/pkg/observability"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat))

	client, err := app.NewClient(ctx, cfg, logger, nil)
	if err != nil {
		logger.Error("failed to initialize API client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	cliApp := mcpinternal.NewCLIApp(client)

	if err := mcpinternal.Serve(ctx, cfg, cliApp, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
