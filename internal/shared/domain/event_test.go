package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/careslot/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewBaseEvent(t *testing.T) {
	aggregateID := uuid.New()
	at := time.Date(2024, 6, 10, 9, 0, 0, 0, time.FixedZone("BRT", -3*3600))

	event := domain.NewBaseEvent(aggregateID, "ScheduleBlock", "scheduling.block.requested", at)

	assert.NotEqual(t, uuid.Nil, event.EventID())
	assert.Equal(t, aggregateID, event.AggregateID())
	assert.Equal(t, "ScheduleBlock", event.AggregateType())
	assert.Equal(t, "scheduling.block.requested", event.RoutingKey())
	assert.Equal(t, time.UTC, event.OccurredAt().Location())
	assert.True(t, event.OccurredAt().Equal(at))
}

func TestBaseEvent_WithMetadata(t *testing.T) {
	correlationID := uuid.New()
	causationID := uuid.New()

	event := domain.NewBaseEvent(uuid.New(), "Reservation", "reservation.slot.reserved", time.Now())
	event.SetMetadata(domain.EventMetadata{
		CorrelationID: correlationID,
		CausationID:   causationID,
		UserID:        "patient-1",
	})

	metadata := event.Metadata()
	assert.Equal(t, correlationID, metadata.CorrelationID)
	assert.Equal(t, causationID, metadata.CausationID)
	assert.Equal(t, "patient-1", metadata.UserID)
}
