package cli

import (
	"context"

	"github.com/felixgeelhaar/careslot/internal/reservation/application"
	"github.com/felixgeelhaar/careslot/internal/reservation/domain"
	"github.com/felixgeelhaar/careslot/internal/scheduling/application/queries"
	schedulingDomain "github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/google/uuid"
)

// Session is the reservation coordinator of one CLI run.
type Session interface {
	Reserve(ctx context.Context, req domain.ReservationRequest) (domain.Reservation, error)
	Release(ctx context.Context, id string) error
	ReleaseAll(ctx context.Context) error
	Current() (domain.Reservation, bool)
	RemainingSeconds() int
	Subscribe(fn func(application.ExpiredNotice)) (unsubscribe func())
}

// SlotClient talks to /slot-reservations directly, without local state.
type SlotClient interface {
	application.Gateway
	List(ctx context.Context) ([]domain.Reservation, error)
}

// BlockClient talks to /scheduleblocks.
type BlockClient interface {
	CheckConflict(ctx context.Context, professionalID string, period schedulingDomain.Period, exclude uuid.UUID) (bool, error)
	List(ctx context.Context, professionalID string, status schedulingDomain.BlockStatus) ([]queries.BlockDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*queries.BlockDTO, error)
	Request(ctx context.Context, professionalID string, period schedulingDomain.Period, reason string) (*queries.BlockDTO, error)
	Update(ctx context.Context, id uuid.UUID, period schedulingDomain.Period, reason string) (*queries.BlockDTO, error)
	Approve(ctx context.Context, id uuid.UUID, approverName string) (*queries.BlockDTO, error)
	Reject(ctx context.Context, id uuid.UUID, approverName, reason string) (*queries.BlockDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// App holds the CLI application dependencies.
type App struct {
	Session Session
	Slots   SlotClient
	Blocks  BlockClient

	// Health fetches the server's /health document.
	Health func(ctx context.Context) (map[string]any, error)

	// UserID is the caller as configured by CARESLOT_USER_ID.
	UserID string
}

var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
