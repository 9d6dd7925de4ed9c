package domain

import (
	"context"
	"time"
)

// HoldRepository stores server-side holds. Expired holds are invisible.
type HoldRepository interface {
	// Create stores r for ttl. It fails with ErrSlotUnavailable when another
	// live hold already owns the slot.
	Create(ctx context.Context, r Reservation, ttl time.Duration) error

	// FindByID returns ErrReservationNotFound when missing or expired.
	FindByID(ctx context.Context, id string) (Reservation, error)

	// FindByUser lists the user's live holds ordered by creation.
	FindByUser(ctx context.Context, userID string) ([]Reservation, error)

	// Delete removes a hold and frees its slot.
	Delete(ctx context.Context, id string) error

	// DeleteByUser removes every hold of the user and reports how many went.
	DeleteByUser(ctx context.Context, userID string) (int, error)
}
