package blocks

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <block-id>",
	Short: "Show one block",
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

		block, err := client.Get(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get block: %w", err)
		}
		printBlock(cmd.OutOrStdout(), *block)
		return nil
	},
}
