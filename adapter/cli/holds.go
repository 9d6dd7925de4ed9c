package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var holdsCmd = &cobra.Command{
	Use:     "holds",
	Short:   "List the slots you currently hold",
	Aliases: []string{"list"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Slots == nil {
			return errors.New("reservations require a configured API client")
		}

		held, err := app.Slots.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list reservations: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(held) == 0 {
			fmt.Fprintln(out, "No held slots.")
			return nil
		}

		now := time.Now()
		fmt.Fprintf(out, "Held slots (%d)\n", len(held))
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, r := range held {
			fmt.Fprintf(out, "  %s  %s %s  %-12s %s left\n",
				r.ID, r.Date, r.Time, r.ProfessionalID, formatRemaining(r.RemainingSeconds(now)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(holdsCmd)
}
