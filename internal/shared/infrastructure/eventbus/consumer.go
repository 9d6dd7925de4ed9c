package eventbus

import "context"

// EventConsumer reacts to events whose routing key matches one of its
// patterns. AMQP topic wildcards are allowed, e.g. "scheduling.block.*".
type EventConsumer interface {
	EventTypes() []string
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// Consumer pulls events off a broker and hands them to registered
// EventConsumers.
type Consumer interface {
	// Start blocks until ctx ends or Close is called.
	Start(ctx context.Context) error
	RegisterConsumer(consumer EventConsumer)
	Close() error
}

var _ Consumer = (*RabbitMQConsumer)(nil)
