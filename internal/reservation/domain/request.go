package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the wire format of a slot's time of day.
const TimeLayout = "15:04"

// DateLayout is the wire format of a slot's calendar date.
const DateLayout = "2006-01-02"

// ReservationRequest asks the backend to hold one appointment slot.
type ReservationRequest struct {
	ProfessionalID string `json:"professionalId"`
	SpecialtyID    string `json:"specialtyId"`
	Date           string `json:"date"`
	Time           string `json:"time"`
}

// Validate checks that every field is present and well formed.
func (r ReservationRequest) Validate() error {
	if strings.TrimSpace(r.ProfessionalID) == "" {
		return fmt.Errorf("%w: professionalId is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.SpecialtyID) == "" {
		return fmt.Errorf("%w: specialtyId is required", ErrInvalidRequest)
	}
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidRequest, r.Date)
	}
	if _, err := time.Parse(TimeLayout, r.Time); err != nil {
		return fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidRequest, r.Time)
	}
	return nil
}

// Day returns the requested date at UTC midnight.
func (r ReservationRequest) Day() (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, r.Date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidRequest, r.Date)
	}
	return d, nil
}

// SlotKey identifies the slot independent of who holds it.
func (r ReservationRequest) SlotKey() string {
	return slotKey(r.ProfessionalID, r.Date, r.Time)
}

func slotKey(professionalID, date, tod string) string {
	return professionalID + "/" + date + "/" + tod
}
