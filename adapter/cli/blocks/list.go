package blocks

import (
	"fmt"

	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/spf13/cobra"
)

var (
	listProfessional string
	listStatus       string
)

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List a professional's blocks",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := blockClient()
		if err != nil {
			return err
		}
		var status domain.BlockStatus
		if listStatus != "" {
			if status, err = domain.ParseBlockStatus(listStatus); err != nil {
				return err
			}
		}

		professionalID := professionalOr(listProfessional)
		blocks, err := client.List(cmd.Context(), professionalID, status)
		if err != nil {
			return fmt.Errorf("failed to list blocks: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(blocks) == 0 {
			fmt.Fprintln(out, "No schedule blocks.")
			return nil
		}
		fmt.Fprintf(out, "Schedule blocks for %s (%d)\n", professionalID, len(blocks))
		for _, b := range blocks {
			printBlockRow(out, b)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listProfessional, "professional", "p", "", "professional id (default: CARESLOT_USER_ID)")
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "pending, approved, rejected or expired")
}
