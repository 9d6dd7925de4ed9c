package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func validRequest() ReservationRequest {
	return ReservationRequest{ProfessionalID: "pro-1", SpecialtyID: "cardio", Date: "2024-06-10", Time: "09:30"}
}

func TestReservationRequest_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ReservationRequest)
	}{
		{"missing professional", func(r *ReservationRequest) { r.ProfessionalID = " " }},
		{"missing specialty", func(r *ReservationRequest) { r.SpecialtyID = "" }},
		{"bad date", func(r *ReservationRequest) { r.Date = "10/06/2024" }},
		{"bad time", func(r *ReservationRequest) { r.Time = "9.30am" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			assert.ErrorIs(t, req.Validate(), ErrInvalidRequest)
		})
	}
	assert.NoError(t, validRequest().Validate())
}

func TestNewReservation(t *testing.T) {
	r, err := NewReservation("res-1", "user-1", validRequest(), now.Add(10*time.Minute), now)
	require.NoError(t, err)
	assert.Equal(t, "pro-1/2024-06-10/09:30", r.SlotKey())
	assert.Equal(t, validRequest(), r.Request())
	assert.Equal(t, now, r.CreatedAt)

	_, err = NewReservation("res-1", "user-1", validRequest(), now, now)
	assert.ErrorIs(t, err, ErrExpiryNotInFuture)

	_, err = NewReservation("", "user-1", validRequest(), now.Add(time.Minute), now)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestReservation_RemainingSeconds(t *testing.T) {
	r, err := NewReservation("res-1", "user-1", validRequest(), now.Add(30*time.Second), now)
	require.NoError(t, err)

	assert.Equal(t, 30, r.RemainingSeconds(now))
	assert.Equal(t, 30, r.RemainingSeconds(now.Add(1)), "partial seconds round up")
	assert.Equal(t, 1, r.RemainingSeconds(now.Add(29*time.Second+500*time.Millisecond)))
	assert.Equal(t, 0, r.RemainingSeconds(now.Add(30*time.Second)))
	assert.Equal(t, 0, r.RemainingSeconds(now.Add(time.Hour)))

	assert.False(t, r.IsExpired(now.Add(29*time.Second)))
	assert.True(t, r.IsExpired(now.Add(30*time.Second)))
}

func TestReservation_JSON(t *testing.T) {
	r, err := NewReservation("res-1", "user-1", validRequest(), now.Add(time.Minute), now)
	require.NoError(t, err)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id":"res-1","userId":"user-1","professionalId":"pro-1","specialtyId":"cardio",
		"date":"2024-06-10","time":"09:30",
		"expiresAt":"2024-06-01T09:01:00Z","createdAt":"2024-06-01T09:00:00Z"
	}`, string(data))
}

func TestAggregateID(t *testing.T) {
	id := uuid.New()
	assert.Equal(t, id, AggregateID(id.String()))
	assert.Equal(t, AggregateID("legacy-42"), AggregateID("legacy-42"))
	assert.NotEqual(t, uuid.Nil, AggregateID("legacy-42"))
}

func TestEvents(t *testing.T) {
	r, err := NewReservation("res-1", "user-1", validRequest(), now.Add(time.Minute), now)
	require.NoError(t, err)

	assert.Equal(t, RoutingKeySlotReserved, NewSlotReserved(r, now).RoutingKey())
	released := NewSlotReleased(r, now)
	assert.Equal(t, RoutingKeySlotReleased, released.RoutingKey())
	assert.Equal(t, r.SlotKey(), released.SlotKey)
	assert.Equal(t, AggregateType, NewSlotExpired(r, now).AggregateType())
}
