package blocks

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	checkPeriod       periodFlags
	checkProfessional string
	checkExclude      string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a period collides with existing blocks",
	Long: `Check whether a period collides with a pending or approved block.

Examples:
  careslot blocks check --professional pro-1 --date 2024-06-10
  careslot blocks check --start 2024-07-01 --end 2024-07-14 --exclude <block-id>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := blockClient()
		if err != nil {
			return err
		}
		period, err := checkPeriod.parse()
		if err != nil {
			return err
		}
		exclude := uuid.Nil
		if checkExclude != "" {
			if exclude, err = parseBlockID(checkExclude); err != nil {
				return err
			}
		}

		conflict, err := client.CheckConflict(cmd.Context(), professionalOr(checkProfessional), period, exclude)
		if err != nil {
			return fmt.Errorf("failed to check conflict: %w", err)
		}
		if conflict {
			fmt.Fprintln(cmd.OutOrStdout(), "Conflict: the period overlaps an existing block.")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No conflict.")
		}
		return nil
	},
}

func init() {
	checkPeriod.register(checkCmd)
	checkCmd.Flags().StringVarP(&checkProfessional, "professional", "p", "", "professional id (default: CARESLOT_USER_ID)")
	checkCmd.Flags().StringVar(&checkExclude, "exclude", "", "block id to ignore, e.g. the one being edited")
}
