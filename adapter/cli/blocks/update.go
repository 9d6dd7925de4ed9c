package blocks

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	updatePeriod periodFlags
	updateReason string
)

var updateCmd = &cobra.Command{
	Use:   "update <block-id>",
	Short: "Change the period or reason of a pending block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := blockClient()
		if err != nil {
			return err
		}
		id, err := parseBlockID(args[0])
		if err != nil {
			return err
		}
		period, err := updatePeriod.parse()
		if err != nil {
			return err
		}

		block, err := client.Update(cmd.Context(), id, period, updateReason)
		if err != nil {
			return fmt.Errorf("failed to update block: %w", err)
		}
		printBlock(cmd.OutOrStdout(), *block)
		return nil
	},
}

func init() {
	updatePeriod.register(updateCmd)
	updateCmd.Flags().StringVarP(&updateReason, "reason", "r", "", "new reason")
}
