// Package watch implements "careslot watch", a live tail of domain events.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/careslot/pkg/config"
	"github.com/felixgeelhaar/careslot/pkg/observability"
	"github.com/spf13/cobra"
)

var pattern string

// Cmd tails events from RabbitMQ.
var Cmd = &cobra.Command{
	Use:   "watch",
	Short: "Print reservation and schedule block events as they happen",
	Long: `Print events from the careslot exchange until interrupted.

Examples:
  careslot watch
  careslot watch --pattern "scheduling.block.*"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := observability.NewLogger(observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat))

		printer := newPrinter(cmd.OutOrStdout(), pattern)
		registry := eventbus.NewConsumerRegistry(logger)
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:       cfg.RabbitMQURL,
			Exclusive: true,
			Logger:    logger,
		}, registry)
		if err != nil {
			return err
		}
		defer consumer.Close()
		consumer.RegisterConsumer(printer)

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl-C to stop)\n", pattern)
		if err := consumer.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	Cmd.Flags().StringVar(&pattern, "pattern", "#", "routing key pattern to bind")
}

// printer writes one line per event.
type printer struct {
	mu      sync.Mutex
	out     io.Writer
	pattern string
}

func newPrinter(out io.Writer, pattern string) *printer {
	if pattern == "" {
		pattern = "#"
	}
	return &printer{out: out, pattern: pattern}
}

func (p *printer) EventTypes() []string {
	return []string{p.pattern}
}

func (p *printer) Handle(_ context.Context, event *eventbus.ConsumedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := fmt.Fprintf(p.out, "%s  %-32s %s %s\n",
		event.OccurredAt.Format("2006-01-02 15:04:05"),
		event.RoutingKey,
		event.AggregateType,
		event.AggregateID,
	)
	if err != nil {
		return err
	}
	if len(event.Payload) > 0 {
		_, err = fmt.Fprintf(p.out, "    %s\n", event.Payload)
	}
	return err
}
