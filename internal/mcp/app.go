package mcp

import (
	"context"

	"github.com/felixgeelhaar/careslot/adapter/cli"
	"github.com/felixgeelhaar/careslot/internal/app"
)

// NewCLIApp exposes an API client to CLI commands and MCP tools. The
// client's coordinator is the session that holds at most one slot.
func NewCLIApp(client *app.Client) *cli.App {
	return &cli.App{
		Session: client.Coordinator,
		Slots:   client.Slots,
		Blocks:  client.Blocks,
		Health: func(ctx context.Context) (map[string]any, error) {
			return client.Health(ctx)
		},
		UserID: client.Config.UserID,
	}
}
