// Package serve implements "careslot serve", the HTTP API process.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/careslot/adapter/api"
	"github.com/felixgeelhaar/careslot/internal/app"
	"github.com/felixgeelhaar/careslot/pkg/config"
	"github.com/felixgeelhaar/careslot/pkg/observability"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var addr string

// Cmd starts the API server.
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the careslot HTTP API",
	Long: `Start the careslot HTTP API.

In local mode (CARESLOT_LOCAL_MODE=true) the outbox processor and block
expiry also run in this process, so no worker is needed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if addr != "" {
			cfg.HTTPAddr = addr
		}

		logger := observability.NewLogger(observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat))
		container, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize container: %w", err)
		}
		defer container.Close()

		return Run(ctx, container)
	},
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: HTTP_ADDR)")
}

// NewServer wires the container's services into an API server.
func NewServer(c *app.Container) (*api.Server, error) {
	auth, err := api.ParseTokens(c.Config.APITokens)
	if err != nil {
		return nil, err
	}
	if auth.Len() == 0 {
		c.Logger.Warn("no API tokens configured; every route but /health answers 401")
	}

	cfg := api.DefaultServerConfig()
	if c.Config.HTTPAddr != "" {
		cfg.Addr = c.Config.HTTPAddr
	}

	return api.NewServer(cfg, api.Deps{
		Auth:         auth,
		Reservations: api.NewReservationHandler(c.HoldService, c.Logger),
		Blocks: api.NewBlockHandler(api.BlockHandlerConfig{
			Request:       c.RequestBlockHandler,
			Update:        c.UpdateBlockHandler,
			Approve:       c.ApproveBlockHandler,
			Reject:        c.RejectBlockHandler,
			Delete:        c.DeleteBlockHandler,
			CheckConflict: c.CheckConflictHandler,
			List:          c.ListBlocksHandler,
			Get:           c.GetBlockHandler,
			Metrics:       c.Metrics,
			Logger:        c.Logger,
		}),
		Health:  c.Health,
		Metrics: c.Metrics,
	}, c.Logger), nil
}

// Run serves the API until ctx is canceled, then shuts down gracefully.
func Run(ctx context.Context, c *app.Container) error {
	server, err := NewServer(c)
	if err != nil {
		return err
	}

	if c.Config.LocalMode {
		startLocalJobs(ctx, c)
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		c.Logger.Warn("api shutdown error", "error", err)
		return err
	}
	return nil
}

func startLocalJobs(ctx context.Context, c *app.Container) {
	if c.Config.OutboxProcessorEnabled {
		if err := c.OutboxProcessor.Start(ctx); err != nil {
			c.Logger.Error("failed to start outbox processor", "error", err)
		}
	} else {
		c.Logger.Info("outbox processor disabled")
	}
	go c.RunBlockExpiry(ctx, c.Config.BlockExpiryInterval)
	c.Logger.LogAttrs(ctx, slog.LevelInfo, "local jobs started",
		slog.Bool("outbox", c.Config.OutboxProcessorEnabled),
		slog.Duration("block_expiry_interval", c.Config.BlockExpiryInterval),
	)
}
