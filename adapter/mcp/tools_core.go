package mcp

import (
	"context"

	"github.com/felixgeelhaar/careslot/adapter/cli"
	"github.com/felixgeelhaar/mcp-go"
)

func registerCoreTools(srv *mcp.Server, deps ToolDependencies) {
	app := deps.App

	srv.Tool("cli.health").
		Description("Check the careslot API health").
		Handler(func(ctx context.Context, input struct{}) (map[string]any, error) {
			if app.Health == nil {
				return map[string]any{"status": "unknown"}, nil
			}
			return app.Health(ctx)
		})

	srv.Tool("cli.version").
		Description("Get careslot build information").
		Handler(func(ctx context.Context, input struct{}) (cli.BuildInfo, error) {
			return cli.CurrentBuild(), nil
		})
}
