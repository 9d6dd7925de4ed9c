package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the topic exchange carrying careslot domain events.
const ExchangeName = "careslot.domain.events"

var (
	// ErrPublisherClosed is returned when publishing on a closed connection.
	ErrPublisherClosed = errors.New("rabbitmq publisher closed")
	// ErrPublishNacked is returned when the broker refuses a message.
	ErrPublishNacked = errors.New("rabbitmq nacked the message")
)

// RabbitMQPublisher publishes event envelopes to a topic exchange in
// confirm mode. Publish returns only once the broker has taken
// responsibility for the message, so the outbox never marks a message
// published that the broker dropped.
type RabbitMQPublisher struct {
	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
}

// NewRabbitMQPublisher dials url, declares the exchange and enables
// publisher confirms.
func NewRabbitMQPublisher(url string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, ch, err := openChannel(url, ExchangeName)
	if err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	logger.Info("RabbitMQ publisher connected", "exchange", ExchangeName)
	return &RabbitMQPublisher{conn: conn, channel: ch, logger: logger}, nil
}

// openChannel dials, opens a channel and declares the durable topic
// exchange. Both the publisher and the consumer start here.
func openChannel(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return conn, ch, nil
}

// publishing builds a persistent message, lifting ids out of the envelope.
func publishing(payload []byte, now time.Time) amqp.Publishing {
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Body:         payload,
	}
	var envelope ConsumedEvent
	if json.Unmarshal(payload, &envelope) == nil {
		msg.MessageId = envelope.EventID.String()
		msg.CorrelationId = envelope.Metadata.CorrelationID
		msg.Type = envelope.RoutingKey
		msg.AppId = "careslot"
	}
	return msg
}

// Publish sends payload and waits for the broker's confirm.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil || p.conn.IsClosed() {
		return ErrPublisherClosed
	}

	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(ctx, ExchangeName, routingKey, false, false, publishing(payload, time.Now()))
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to publish message", "routing_key", routingKey, "error", err)
		return err
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("waiting for publish confirm: %w", err)
	}
	if !acked {
		return fmt.Errorf("%w: %s", ErrPublishNacked, routingKey)
	}

	p.logger.DebugContext(ctx, "message published", "routing_key", routingKey, "size", len(payload))
	return nil
}

// Ping reports whether the connection is still open. Used by health checks.
func (p *RabbitMQPublisher) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || p.conn.IsClosed() {
		return ErrPublisherClosed
	}
	return nil
}

// Close closes the channel and the connection.
func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return closeAMQP(p.channel, p.conn, p.logger, "RabbitMQ publisher closed")
}

func closeAMQP(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger, msg string) error {
	if ch != nil {
		if err := ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			logger.Warn("error closing channel", "error", err)
		}
	}
	if conn != nil && !conn.IsClosed() {
		if err := conn.Close(); err != nil {
			return err
		}
	}
	logger.Info(msg)
	return nil
}
