package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/careslot/internal/reservation/domain"
)

// formatRemaining renders seconds as m:ss.
func formatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func printReservation(out io.Writer, r domain.Reservation, remaining int) {
	fmt.Fprintln(out, "Reserved slot")
	fmt.Fprintln(out, strings.Repeat("-", 40))
	fmt.Fprintf(out, "  ID:           %s\n", r.ID)
	fmt.Fprintf(out, "  Professional: %s\n", r.ProfessionalID)
	fmt.Fprintf(out, "  Specialty:    %s\n", r.SpecialtyID)
	fmt.Fprintf(out, "  When:         %s %s\n", r.Date, r.Time)
	fmt.Fprintf(out, "  Expires:      %s (%s left)\n",
		r.ExpiresAt.Local().Format("15:04:05"), formatRemaining(remaining))
}
