package eventbus

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/careslot/internal/shared/domain"
)

// Publisher defines the interface for publishing events to a message broker.
type Publisher interface {
	// Publish sends a message to the event bus.
	Publish(ctx context.Context, routingKey string, payload []byte) error

	// Close closes the publisher connection.
	Close() error
}

// PublishDomainEvent wraps event in its envelope and publishes it directly,
// bypassing the outbox. Used where no transactional store exists.
func PublishDomainEvent(ctx context.Context, publisher Publisher, event domain.DomainEvent) error {
	body, err := Envelope(event)
	if err != nil {
		return err
	}
	return publisher.Publish(ctx, event.RoutingKey(), body)
}

// NoopPublisher drops every message. Used when no broker is configured.
type NoopPublisher struct {
	logger *slog.Logger
}

// NewNoopPublisher creates a publisher that discards messages.
func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger}
}

// Publish logs the routing key at debug level and returns nil.
func (p *NoopPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.logger.DebugContext(ctx, "noop publish", "routing_key", routingKey, "size", len(payload))
	return nil
}

func (p *NoopPublisher) Close() error { return nil }
