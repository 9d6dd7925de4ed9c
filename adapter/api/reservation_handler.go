package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/careslot/internal/reservation/domain"
)

// HoldService is the part of the hold service the API calls.
type HoldService interface {
	Reserve(ctx context.Context, userID string, req domain.ReservationRequest) (domain.Reservation, error)
	Release(ctx context.Context, userID, id string) error
	ReleaseAll(ctx context.Context, userID string) (int, error)
	List(ctx context.Context, userID string) ([]domain.Reservation, error)
}

// ReservationHandler serves /slot-reservations.
type ReservationHandler struct {
	holds  HoldService
	logger *slog.Logger
}

// NewReservationHandler creates a reservation handler.
func NewReservationHandler(holds HoldService, logger *slog.Logger) *ReservationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReservationHandler{holds: holds, logger: logger}
}

// Reserve handles POST /slot-reservations
func (h *ReservationHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	var req domain.ReservationRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, r, h.logger, "reserve", err)
		return
	}

	res, err := h.holds.Reserve(r.Context(), p.UserID, req)
	if err != nil {
		writeFailure(w, r, h.logger, "reserve", err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListCurrent handles GET /slot-reservations/user/current
func (h *ReservationHandler) ListCurrent(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	held, err := h.holds.List(r.Context(), p.UserID)
	if err != nil {
		writeFailure(w, r, h.logger, "list reservations", err)
		return
	}
	writeJSON(w, http.StatusOK, held)
}

// ReleaseAll handles DELETE /slot-reservations/user/current
func (h *ReservationHandler) ReleaseAll(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	if _, err := h.holds.ReleaseAll(r.Context(), p.UserID); err != nil {
		writeFailure(w, r, h.logger, "release all reservations", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Release handles DELETE /slot-reservations/{id}
func (h *ReservationHandler) Release(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())

	if err := h.holds.Release(r.Context(), p.UserID, r.PathValue("id")); err != nil {
		writeFailure(w, r, h.logger, "release reservation", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
