package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/careslot/adapter/cli"
	mcpinternal "github.com/felixgeelhaar/careslot/internal/mcp"
	"github.com/felixgeelhaar/careslot/pkg/config"
	"github.com/felixgeelhaar/careslot/pkg/observability"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the MCP server. Tools act against the careslot API as
CARESLOT_USER_ID, and the server keeps one reservation session for its
whole lifetime.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		cliApp := cli.GetApp()
		if cliApp == nil {
			return errors.New("careslot API client not configured")
		}

		logger := observability.NewLogger(observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat))
		err = mcpinternal.Serve(ctx, cfg, cliApp, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
