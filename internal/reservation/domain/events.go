package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/careslot/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Reservation"

	RoutingKeySlotReserved = "reservation.slot.reserved"
	RoutingKeySlotReleased = "reservation.slot.released"
	RoutingKeySlotExpired  = "reservation.slot.expired"
)

var reservationNamespace = uuid.MustParse("6f1c7c6e-7a7e-4d0e-9a53-1c2f3b8d5e41")

// AggregateID maps a reservation id onto a UUID. Non-UUID ids from other
// backends get a stable name-based UUID.
func AggregateID(id string) uuid.UUID {
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed
	}
	return uuid.NewSHA1(reservationNamespace, []byte(id))
}

// SlotReserved is published when a hold is taken.
type SlotReserved struct {
	sharedDomain.BaseEvent
	Reservation Reservation `json:"reservation"`
}

// NewSlotReserved creates a SlotReserved event.
func NewSlotReserved(r Reservation, at time.Time) *SlotReserved {
	return &SlotReserved{
		BaseEvent:   sharedDomain.NewBaseEvent(AggregateID(r.ID), AggregateType, RoutingKeySlotReserved, at),
		Reservation: r,
	}
}

// SlotReleased is published when a hold is given up before expiry.
type SlotReleased struct {
	sharedDomain.BaseEvent
	ReservationID string `json:"reservationId"`
	UserID        string `json:"userId,omitempty"`
	SlotKey       string `json:"slotKey,omitempty"`
}

// NewSlotReleased creates a SlotReleased event.
func NewSlotReleased(r Reservation, at time.Time) *SlotReleased {
	return &SlotReleased{
		BaseEvent:     sharedDomain.NewBaseEvent(AggregateID(r.ID), AggregateType, RoutingKeySlotReleased, at),
		ReservationID: r.ID,
		UserID:        r.UserID,
		SlotKey:       r.SlotKey(),
	}
}

// SlotExpired is published when a hold reaches its expiry instant.
type SlotExpired struct {
	sharedDomain.BaseEvent
	Reservation Reservation `json:"reservation"`
}

// NewSlotExpired creates a SlotExpired event.
func NewSlotExpired(r Reservation, at time.Time) *SlotExpired {
	return &SlotExpired{
		BaseEvent:   sharedDomain.NewBaseEvent(AggregateID(r.ID), AggregateType, RoutingKeySlotExpired, at),
		Reservation: r,
	}
}
