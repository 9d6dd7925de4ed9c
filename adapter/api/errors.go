package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	reservationDomain "github.com/felixgeelhaar/careslot/internal/reservation/domain"
	schedulingDomain "github.com/felixgeelhaar/careslot/internal/scheduling/domain"
)

// APIError is the JSON error body every endpoint returns.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{schedulingDomain.ErrInvalidInterval, http.StatusBadRequest, "invalid_interval"},
	{schedulingDomain.ErrInvalidDate, http.StatusBadRequest, "invalid_date"},
	{schedulingDomain.ErrInvalidPeriod, http.StatusBadRequest, "invalid_period"},
	{schedulingDomain.ErrInvalidStatus, http.StatusBadRequest, "invalid_status"},
	{schedulingDomain.ErrProfessionalRequired, http.StatusBadRequest, "invalid_request"},
	{schedulingDomain.ErrApproverRequired, http.StatusBadRequest, "invalid_request"},
	{schedulingDomain.ErrReasonTooLong, http.StatusBadRequest, "invalid_request"},
	{reservationDomain.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"},
	{reservationDomain.ErrExpiryNotInFuture, http.StatusBadRequest, "invalid_request"},

	{schedulingDomain.ErrNotBlockOwner, http.StatusForbidden, "forbidden"},

	{schedulingDomain.ErrBlockNotFound, http.StatusNotFound, "not_found"},
	{reservationDomain.ErrReservationNotFound, http.StatusNotFound, "not_found"},

	{reservationDomain.ErrSlotUnavailable, http.StatusConflict, "slot_unavailable"},
	{reservationDomain.ErrProfessionalUnavailable, http.StatusConflict, "professional_unavailable"},
	{schedulingDomain.ErrBlockConflict, http.StatusConflict, "block_conflict"},
	{schedulingDomain.ErrBlockNotPending, http.StatusConflict, "invalid_transition"},
	{schedulingDomain.ErrInvalidStatusTransition, http.StatusConflict, "invalid_transition"},
	{schedulingDomain.ErrBlockNotDeletable, http.StatusConflict, "not_deletable"},
	{schedulingDomain.ErrStaleBlock, http.StatusConflict, "concurrent_modification"},
}

// toAPIError maps domain sentinels to HTTP statuses. Anything unknown is a
// 500 whose message does not leak internals.
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return &APIError{Status: m.status, Code: m.code, Message: err.Error()}
		}
	}
	return &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal server error"}
}

func badRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "invalid_request", Message: message}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, &APIError{Status: status, Code: code, Message: message})
}

// writeFailure logs unexpected failures and writes the mapped error.
func writeFailure(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), op+" failed", "error", err)
	}
	writeJSON(w, apiErr.Status, apiErr)
}

const maxBodyBytes = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body: " + err.Error())
	}
	return nil
}
