package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/felixgeelhaar/careslot/internal/reservation/application"
	"github.com/felixgeelhaar/careslot/internal/reservation/domain"
	"github.com/spf13/cobra"
)

var (
	reserveProfessional string
	reserveSpecialty    string
	reserveDate         string
	reserveTime         string
	reserveHold         bool
)

// releaseTimeout bounds the release sent after Ctrl-C.
const releaseTimeout = 10 * time.Second

var reserveCmd = &cobra.Command{
	Use:   "reserve",
	Short: "Hold an appointment slot",
	Long: `Hold an appointment slot for a short time.

With --hold the command stays attached, counts down the remaining time and
releases the slot when interrupted with Ctrl-C.

Examples:
  careslot reserve --professional pro-1 --specialty cardio --date 2024-06-10 --time 09:00
  careslot reserve --professional pro-1 --specialty cardio --date 2024-06-10 --time 09:00 --hold`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Session == nil {
			return errors.New("reservations require a configured API client")
		}

		req := domain.ReservationRequest{
			ProfessionalID: reserveProfessional,
			SpecialtyID:    reserveSpecialty,
			Date:           reserveDate,
			Time:           reserveTime,
		}
		if !reserveHold {
			r, err := app.Session.Reserve(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to reserve slot: %w", err)
			}
			printReservation(cmd.OutOrStdout(), r, app.Session.RemainingSeconds())
			return nil
		}

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		return reserveAndHold(cmd.Context(), cmd.OutOrStdout(), app.Session, req, ticker.C)
	},
}

// reserveAndHold reserves and then blocks until the hold expires or ctx is
// canceled, in which case the hold is released.
func reserveAndHold(ctx context.Context, out io.Writer, session Session, req domain.ReservationRequest, tick <-chan time.Time) error {
	expired := make(chan application.ExpiredNotice, 1)
	unsubscribe := session.Subscribe(func(n application.ExpiredNotice) {
		select {
		case expired <- n:
		default:
		}
	})
	defer unsubscribe()

	r, err := session.Reserve(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to reserve slot: %w", err)
	}
	printReservation(out, r, session.RemainingSeconds())
	fmt.Fprintln(out, "Holding. Press Ctrl-C to release.")

	for {
		select {
		case <-ctx.Done():
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
			err := session.Release(releaseCtx, r.ID)
			cancel()
			if err != nil {
				return fmt.Errorf("failed to release reservation %s: %w", r.ID, err)
			}
			fmt.Fprintf(out, "\nReleased reservation %s\n", r.ID)
			return nil

		case n := <-expired:
			if n.Reservation.ID != r.ID {
				continue
			}
			fmt.Fprintf(out, "\nReservation %s expired at %s\n", r.ID, n.ExpiredAt.Local().Format("15:04:05"))
			return nil

		case <-tick:
			fmt.Fprintf(out, "\r%s remaining ", formatRemaining(session.RemainingSeconds()))
		}
	}
}

func init() {
	reserveCmd.Flags().StringVarP(&reserveProfessional, "professional", "p", "", "professional id (required)")
	reserveCmd.Flags().StringVarP(&reserveSpecialty, "specialty", "s", "", "specialty id (required)")
	reserveCmd.Flags().StringVarP(&reserveDate, "date", "d", "", "appointment date (YYYY-MM-DD, required)")
	reserveCmd.Flags().StringVarP(&reserveTime, "time", "t", "", "appointment time (HH:MM, required)")
	reserveCmd.Flags().BoolVar(&reserveHold, "hold", false, "stay attached and count down until expiry")

	reserveCmd.MarkFlagRequired("professional")
	reserveCmd.MarkFlagRequired("specialty")
	reserveCmd.MarkFlagRequired("date")
	reserveCmd.MarkFlagRequired("time")

	rootCmd.AddCommand(reserveCmd)
}
