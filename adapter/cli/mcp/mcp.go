// Package mcp exposes the careslot MCP server as a CLI subcommand.
package mcp

import "github.com/spf13/cobra"

// Cmd groups the MCP subcommands.
var Cmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run careslot as a Model Context Protocol server",
	Long: `Serves the slot and schedule-block tools over MCP so an assistant can
hold appointments and manage time off on behalf of CARESLOT_USER_ID.`,
}

func init() {
	Cmd.AddCommand(serveCmd)
}
