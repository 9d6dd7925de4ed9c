package mcp

import (
	"context"
	"time"

	"github.com/felixgeelhaar/careslot/adapter/cli"
	"github.com/felixgeelhaar/careslot/internal/reservation/domain"
	"github.com/felixgeelhaar/mcp-go"
)

type slotReserveInput struct {
	ProfessionalID string `json:"professional_id" jsonschema:"required"`
	SpecialtyID    string `json:"specialty_id" jsonschema:"required"`
	Date           string `json:"date" jsonschema:"required"`
	Time           string `json:"time" jsonschema:"required"`
}

type slotReleaseInput struct {
	ReservationID string `json:"reservation_id,omitempty"`
}

// heldSlot is a reservation as MCP clients see it.
type heldSlot struct {
	ID               string    `json:"id"`
	ProfessionalID   string    `json:"professional_id"`
	SpecialtyID      string    `json:"specialty_id"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds int       `json:"remaining_seconds"`
}

func toHeldSlot(r domain.Reservation, now time.Time) heldSlot {
	return heldSlot{
		ID:               r.ID,
		ProfessionalID:   r.ProfessionalID,
		SpecialtyID:      r.SpecialtyID,
		Date:             r.Date,
		Time:             r.Time,
		ExpiresAt:        r.ExpiresAt,
		RemainingSeconds: r.RemainingSeconds(now),
	}
}

type slotCurrentOutput struct {
	Held        bool      `json:"held"`
	Reservation *heldSlot `json:"reservation,omitempty"`
}

type releaseOutput struct {
	Released string `json:"released"`
}

func registerSlotTools(srv *mcp.Server, deps ToolDependencies) {
	app := deps.App

	srv.Tool("slot.reserve").
		Description("Hold an appointment slot. The hold lapses unless the booking completes in time; reserving again replaces it.").
		Handler(func(ctx context.Context, input slotReserveInput) (heldSlot, error) {
			return reserveSlot(ctx, app, input)
		})

	srv.Tool("slot.current").
		Description("Show the slot held by this session and the seconds left on it").
		Handler(func(ctx context.Context, input struct{}) (slotCurrentOutput, error) {
			return currentSlot(app)
		})

	srv.Tool("slot.release").
		Description("Release a held slot. Without reservation_id the session's current hold is released.").
		Handler(func(ctx context.Context, input slotReleaseInput) (releaseOutput, error) {
			return releaseSlot(ctx, app, input)
		})

	srv.Tool("slot.release_all").
		Description("Release every slot the user holds").
		Handler(func(ctx context.Context, input struct{}) (releaseOutput, error) {
			if app.Session == nil {
				return releaseOutput{}, errNotConfigured
			}
			if err := app.Session.ReleaseAll(ctx); err != nil {
				return releaseOutput{}, err
			}
			return releaseOutput{Released: "all"}, nil
		})

	srv.Tool("slot.list").
		Description("List the user's live holds on the server").
		Handler(func(ctx context.Context, input struct{}) ([]heldSlot, error) {
			return listSlots(ctx, app)
		})
}

func reserveSlot(ctx context.Context, app *cli.App, input slotReserveInput) (heldSlot, error) {
	if app.Session == nil {
		return heldSlot{}, errNotConfigured
	}
	r, err := app.Session.Reserve(ctx, domain.ReservationRequest{
		ProfessionalID: input.ProfessionalID,
		SpecialtyID:    input.SpecialtyID,
		Date:           input.Date,
		Time:           input.Time,
	})
	if err != nil {
		return heldSlot{}, err
	}
	out := toHeldSlot(r, time.Now())
	out.RemainingSeconds = app.Session.RemainingSeconds()
	return out, nil
}

func currentSlot(app *cli.App) (slotCurrentOutput, error) {
	if app.Session == nil {
		return slotCurrentOutput{}, errNotConfigured
	}
	r, ok := app.Session.Current()
	if !ok {
		return slotCurrentOutput{}, nil
	}
	held := toHeldSlot(r, time.Now())
	held.RemainingSeconds = app.Session.RemainingSeconds()
	return slotCurrentOutput{Held: true, Reservation: &held}, nil
}

func releaseSlot(ctx context.Context, app *cli.App, input slotReleaseInput) (releaseOutput, error) {
	if app.Session == nil {
		return releaseOutput{}, errNotConfigured
	}
	cur, held := app.Session.Current()
	id := input.ReservationID
	if id == "" {
		if !held {
			return releaseOutput{}, nil
		}
		id = cur.ID
	}

	// Holds this session does not track are only known to the server.
	if (!held || cur.ID != id) && app.Slots != nil {
		if err := app.Slots.Release(ctx, id); err != nil {
			return releaseOutput{}, err
		}
		return releaseOutput{Released: id}, nil
	}
	if err := app.Session.Release(ctx, id); err != nil {
		return releaseOutput{}, err
	}
	return releaseOutput{Released: id}, nil
}

func listSlots(ctx context.Context, app *cli.App) ([]heldSlot, error) {
	if app.Slots == nil {
		return nil, errNotConfigured
	}
	held, err := app.Slots.List(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]heldSlot, 0, len(held))
	for _, r := range held {
		out = append(out, toHeldSlot(r, now))
	}
	return out, nil
}
