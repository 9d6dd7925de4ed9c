// Package blocks implements the "careslot blocks" command group.
package blocks

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/careslot/adapter/cli"
	"github.com/felixgeelhaar/careslot/internal/scheduling/application/queries"
	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Cmd is the blocks command group.
var Cmd = &cobra.Command{
	Use:     "blocks",
	Short:   "Manage professionals' schedule blocks",
	Aliases: []string{"block"},
	Long: `Request, review and decide schedule blocks.

A block marks one date (--date) or an inclusive range (--start/--end) as
unavailable for a professional once an administrator or assistant approves it.`,
}

func init() {
	Cmd.AddCommand(requestCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(checkCmd)
	Cmd.AddCommand(approveCmd)
	Cmd.AddCommand(rejectCmd)
	Cmd.AddCommand(deleteCmd)
}

var errNoClient = errors.New("schedule blocks require a configured API client")

func blockClient() (cli.BlockClient, error) {
	app := cli.GetApp()
	if app == nil || app.Blocks == nil {
		return nil, errNoClient
	}
	return app.Blocks, nil
}

// professionalOr falls back to the configured user.
func professionalOr(flag string) string {
	if flag != "" {
		return flag
	}
	if app := cli.GetApp(); app != nil {
		return app.UserID
	}
	return ""
}

func parseBlockID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid block id: %w", err)
	}
	return id, nil
}

// periodFlags are the shared --date/--start/--end flags.
type periodFlags struct {
	date  string
	start string
	end   string
}

func (p *periodFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.date, "date", "d", "", "single day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&p.start, "start", "", "first day of a range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&p.end, "end", "", "last day of a range (YYYY-MM-DD)")
}

func (p *periodFlags) parse() (domain.Period, error) {
	return domain.ParsePeriod(p.date, p.start, p.end)
}

func (p *periodFlags) reset() {
	*p = periodFlags{}
}

func describePeriod(b queries.BlockDTO) string {
	if b.Date != "" {
		return b.Date
	}
	return b.StartDate + " .. " + b.EndDate
}

func printBlock(out io.Writer, b queries.BlockDTO) {
	fmt.Fprintf(out, "Block %s\n", b.ID)
	fmt.Fprintln(out, strings.Repeat("-", 40))
	fmt.Fprintf(out, "  Professional: %s\n", b.ProfessionalID)
	fmt.Fprintf(out, "  Period:       %s\n", describePeriod(b))
	fmt.Fprintf(out, "  Status:       %s\n", b.Status)
	if b.Reason != "" {
		fmt.Fprintf(out, "  Reason:       %s\n", b.Reason)
	}
	if b.ApproverName != "" {
		fmt.Fprintf(out, "  Decided by:   %s\n", b.ApproverName)
	}
	if b.RejectionReason != "" {
		fmt.Fprintf(out, "  Rejected:     %s\n", b.RejectionReason)
	}
}

func printBlockRow(out io.Writer, b queries.BlockDTO) {
	fmt.Fprintf(out, "  %s  %-10s %-24s %s\n", b.ID, b.Status, describePeriod(b), b.Reason)
}
