package application

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/careslot/internal/shared/clock"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/careslot/pkg/observability"
	"github.com/google/uuid"
)

// ReleasePolicy decides when release clears local state.
type ReleasePolicy int

const (
	// ReleaseOptimistic clears local state before the remote call and keeps
	// it cleared when the call fails.
	ReleaseOptimistic ReleasePolicy = iota
	// ReleaseStrict clears local state only once the remote call succeeds.
	ReleaseStrict
)

func (p ReleasePolicy) String() string {
	if p == ReleaseStrict {
		return "strict"
	}
	return "optimistic"
}

// ParseReleasePolicy accepts "optimistic" (or empty) and "strict".
func ParseReleasePolicy(s string) (ReleasePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "optimistic":
		return ReleaseOptimistic, nil
	case "strict":
		return ReleaseStrict, nil
	default:
		return ReleaseOptimistic, fmt.Errorf("unknown release policy %q", s)
	}
}

type options struct {
	clock     clock.Clock
	store     ReservationStore
	policy    ReleasePolicy
	publisher eventbus.Publisher
	metrics   observability.Metrics
	logger    *slog.Logger
	newID     func() string
}

// Option configures a Coordinator or HoldService.
type Option func(*options)

// WithClock sets the time source.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithStore replaces the coordinator's MemoryStore.
func WithStore(s ReservationStore) Option {
	return func(o *options) { o.store = s }
}

// WithReleasePolicy sets the coordinator's release policy.
func WithReleasePolicy(p ReleasePolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithPublisher publishes reservation events as they happen.
func WithPublisher(p eventbus.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithMetrics records reservation counters.
func WithMetrics(m observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithIDGenerator sets how the hold service names new holds.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

func buildOptions(opts []Option) options {
	o := options{
		clock:   clock.System{},
		metrics: observability.NoopMetrics{},
		logger:  slog.Default(),
		newID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = NewMemoryStore()
	}
	return o
}
