package eventbus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/felixgeelhaar/careslot/internal/shared/domain"
	"github.com/google/uuid"
)

// ConsumedEvent is the envelope every careslot event travels in, on the
// broker and in the outbox alike.
type ConsumedEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
	Metadata      EventMetadata   `json:"metadata,omitempty"`
}

// EventMetadata carries who caused the event and which request it belongs to.
type EventMetadata struct {
	UserID        string `json:"user_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	CausationID   string `json:"causation_id,omitempty"`
}

// DecodePayload unmarshals the event payload into v.
func (e *ConsumedEvent) DecodePayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// Envelope encodes a domain event. The event's exported fields become the
// payload.
func Envelope(event domain.DomainEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event.RoutingKey(), err)
	}
	meta := event.Metadata()
	return json.Marshal(ConsumedEvent{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Payload:       payload,
		Metadata: EventMetadata{
			UserID:        meta.UserID,
			CorrelationID: meta.CorrelationID.String(),
			CausationID:   meta.CausationID.String(),
		},
	})
}

// DecodeEnvelope parses body. routingKey fills in an envelope that left its
// own key empty.
func DecodeEnvelope(body []byte, routingKey string) (*ConsumedEvent, error) {
	event := &ConsumedEvent{}
	if err := json.Unmarshal(body, event); err != nil {
		return nil, fmt.Errorf("decode event envelope: %w", err)
	}
	if event.RoutingKey == "" {
		event.RoutingKey = routingKey
	}
	return event, nil
}
