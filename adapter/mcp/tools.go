package mcp

import (
	"errors"

	"github.com/felixgeelhaar/careslot/adapter/cli"
	"github.com/felixgeelhaar/mcp-go"
)

// ToolDependencies provides the API clients and session behind MCP tools.
type ToolDependencies struct {
	App *cli.App
}

var errNotConfigured = errors.New("careslot API client not configured")

// RegisterCLITools registers MCP tools that mirror CLI functionality.
func RegisterCLITools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.App == nil {
		return errors.New("app is required")
	}

	registerCoreTools(srv, deps)
	registerSlotTools(srv, deps)
	registerBlockTools(srv, deps)
	return nil
}
