package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/careslot/adapter/cli"
	"github.com/felixgeelhaar/careslot/adapter/cli/blocks"
	"github.com/felixgeelhaar/careslot/adapter/cli/mcp"
	"github.com/felixgeelhaar/careslot/adapter/cli/serve"
	"github.com/felixgeelhaar/careslot/adapter/cli/watch"
	"github.com/felixgeelhaar/careslot/internal/app"
	mcpinternal "github.com/felixgeelhaar/careslot/internal/mcp"
	"github.com/felixgeelhaar/careslot/pkg/config"
	"github.com/felixgeelhaar/careslot/pkg/observability"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// In development without .env, use defaults
		slog.Warn("failed to load config, using development mode", "error", err)
		cfg = &config.Config{AppEnv: "development", ReleasePolicy: config.ReleasePolicyOptimistic}
	}

	logger := observability.NewLogger(observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat))
	cli.SetLogger(logger)

	// Client commands talk to the API; serve runs it.
	client, err := app.NewClient(ctx, cfg, logger, nil)
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("failed to initialize API client, running in limited mode", "error", err)
		} else {
			logger.Error("failed to initialize API client", "error", err)
			os.Exit(1)
		}
	} else {
		defer client.Close()
		cli.SetApp(mcpinternal.NewCLIApp(client))
	}

	// Register commands
	cli.AddCommand(serve.Cmd)
	cli.AddCommand(blocks.Cmd)
	cli.AddCommand(mcp.Cmd)
	cli.AddCommand(watch.Cmd)

	// Execute CLI
	cli.Execute(ctx)
}
