package blocks

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	requestPeriod       periodFlags
	requestProfessional string
	requestReason       string
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Request a schedule block",
	Long: `Request a schedule block. It stays pending until approved or rejected.

Examples:
  careslot blocks request --date 2024-06-10 --reason "conference"
  careslot blocks request --start 2024-07-01 --end 2024-07-14 --reason "vacation"
  careslot blocks request --professional pro-7 --date 2024-06-10`,
	Aliases: []string{"add", "new"},
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := blockClient()
		if err != nil {
			return err
		}
		period, err := requestPeriod.parse()
		if err != nil {
			return err
		}

		block, err := client.Request(cmd.Context(), professionalOr(requestProfessional), period, requestReason)
		if err != nil {
			return fmt.Errorf("failed to request block: %w", err)
		}
		printBlock(cmd.OutOrStdout(), *block)
		return nil
	},
}

func init() {
	requestPeriod.register(requestCmd)
	requestCmd.Flags().StringVarP(&requestProfessional, "professional", "p", "", "professional id (default: CARESLOT_USER_ID)")
	requestCmd.Flags().StringVarP(&requestReason, "reason", "r", "", "why the professional is unavailable")
}
