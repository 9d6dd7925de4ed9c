package blocks

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	approveName  string
	rejectName   string
	rejectReason string
)

var approveCmd = &cobra.Command{
	Use:   "approve <block-id>",
	Short: "Approve a pending block",
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

		block, err := client.Approve(cmd.Context(), id, approveName)
		if err != nil {
			return fmt.Errorf("failed to approve block: %w", err)
		}
		printBlock(cmd.OutOrStdout(), *block)
		return nil
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <block-id>",
	Short: "Reject a pending block",
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

		block, err := client.Reject(cmd.Context(), id, rejectName, rejectReason)
		if err != nil {
			return fmt.Errorf("failed to reject block: %w", err)
		}
		printBlock(cmd.OutOrStdout(), *block)
		return nil
	},
}

func init() {
	approveCmd.Flags().StringVar(&approveName, "name", "", "approver display name")
	rejectCmd.Flags().StringVar(&rejectName, "name", "", "approver display name")
	rejectCmd.Flags().StringVarP(&rejectReason, "reason", "r", "", "why the block was rejected")
}
