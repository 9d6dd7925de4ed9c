package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the careslot API health",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Health == nil {
			return errors.New("app not initialized")
		}
		doc, err := app.Health(cmd.Context())
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "status: %v\n", doc["status"])
		checks, _ := doc["checks"].(map[string]any)
		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			check, _ := checks[name].(map[string]any)
			fmt.Fprintf(out, "  %-10s %v\n", name, check["status"])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
