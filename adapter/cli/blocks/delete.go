package blocks

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <block-id>",
	Short:   "Delete a block",
	Long:    "Delete a block. Professionals may delete their pending blocks; administrators any block.",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := blockClient()
		if err != nil {
			return err
		}
		id, err := parseBlockID(args[0])
		if err != nil {
			return err
		}

		if err := client.Delete(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete block: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted block %s\n", id)
		return nil
	},
}
