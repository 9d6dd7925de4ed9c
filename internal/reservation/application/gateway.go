package application

import (
	"context"

	"github.com/felixgeelhaar/careslot/internal/reservation/domain"
)

// Gateway is the remote slot-reservation service. Failures come back as
// *restclient.RemoteError and are handed to callers unchanged.
type Gateway interface {
	Reserve(ctx context.Context, req domain.ReservationRequest) (domain.Reservation, error)
	Release(ctx context.Context, id string) error
	ReleaseAll(ctx context.Context) error
}
