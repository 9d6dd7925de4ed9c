package domain

import "errors"

var (
	ErrInvalidRequest          = errors.New("invalid reservation request")
	ErrExpiryNotInFuture       = errors.New("reservation expiry must be in the future")
	ErrSlotUnavailable         = errors.New("slot is already held by another user")
	ErrReservationNotFound     = errors.New("reservation not found")
	ErrProfessionalUnavailable = errors.New("professional is unavailable on that date")

	// ErrNoActiveReservation describes an empty coordinator. Release and
	// RemainingSeconds treat it as a no-op and never return it.
	ErrNoActiveReservation = errors.New("no active reservation")
)
