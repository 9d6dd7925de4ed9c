package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Reservation is a temporary hold on one slot. It is a value: a new
// reservation replaces an old one, it is never edited in place.
type Reservation struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	ProfessionalID string    `json:"professionalId"`
	SpecialtyID    string    `json:"specialtyId"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	ExpiresAt      time.Time `json:"expiresAt"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewReservation builds a reservation for req and checks that it expires
// strictly after now.
func NewReservation(id, userID string, req ReservationRequest, expiresAt, now time.Time) (Reservation, error) {
	if strings.TrimSpace(id) == "" {
		return Reservation{}, fmt.Errorf("%w: id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(userID) == "" {
		return Reservation{}, fmt.Errorf("%w: userId is required", ErrInvalidRequest)
	}
	if err := req.Validate(); err != nil {
		return Reservation{}, err
	}
	if !expiresAt.After(now) {
		return Reservation{}, ErrExpiryNotInFuture
	}
	return Reservation{
		ID:             id,
		UserID:         userID,
		ProfessionalID: req.ProfessionalID,
		SpecialtyID:    req.SpecialtyID,
		Date:           req.Date,
		Time:           req.Time,
		ExpiresAt:      expiresAt.UTC(),
		CreatedAt:      now.UTC(),
	}, nil
}

// Request returns the slot request this reservation answers.
func (r Reservation) Request() ReservationRequest {
	return ReservationRequest{
		ProfessionalID: r.ProfessionalID,
		SpecialtyID:    r.SpecialtyID,
		Date:           r.Date,
		Time:           r.Time,
	}
}

// SlotKey identifies the held slot.
func (r Reservation) SlotKey() string {
	return slotKey(r.ProfessionalID, r.Date, r.Time)
}

// Remaining returns the time left before expiry, never negative.
func (r Reservation) Remaining(now time.Time) time.Duration {
	if d := r.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// RemainingSeconds rounds the remaining time up to whole seconds.
func (r Reservation) RemainingSeconds(now time.Time) int {
	return int(math.Ceil(r.Remaining(now).Seconds()))
}

// IsExpired reports whether now has reached the expiry instant.
func (r Reservation) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
