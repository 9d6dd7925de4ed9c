package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var releaseAll bool

var releaseCmd = &cobra.Command{
	Use:   "release [reservation-id]",
	Short: "Release a held slot",
	Long: `Release one held slot by id, or every slot you hold with --all.

Examples:
  careslot release 3f2c9a1e-...
  careslot release --all`,
	Args: func(cmd *cobra.Command, args []string) error {
		if releaseAll && len(args) > 0 {
			return errors.New("pass either a reservation id or --all, not both")
		}
		if !releaseAll && len(args) != 1 {
			return errors.New("a reservation id is required unless --all is set")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Slots == nil {
			return errors.New("reservations require a configured API client")
		}

		out := cmd.OutOrStdout()
		if releaseAll {
			if err := app.Slots.ReleaseAll(cmd.Context()); err != nil {
				return fmt.Errorf("failed to release reservations: %w", err)
			}
			fmt.Fprintln(out, "Released all reservations")
			return nil
		}

		if err := app.Slots.Release(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("failed to release reservation: %w", err)
		}
		fmt.Fprintf(out, "Released reservation %s\n", args[0])
		return nil
	},
}

func init() {
	releaseCmd.Flags().BoolVar(&releaseAll, "all", false, "release every slot you hold")
	rootCmd.AddCommand(releaseCmd)
}
