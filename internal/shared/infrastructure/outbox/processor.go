package outbox

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/careslot/internal/shared/clock"
	"github.com/felixgeelhaar/careslot/internal/shared/domain"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/careslot/pkg/observability"
)

const (
	metricOutboxPublished = "outbox.published"
	metricOutboxFailed    = "outbox.failed"
	metricOutboxDead      = "outbox.dead_lettered"
	metricOutboxLag       = "outbox.lag_seconds"
	metricOutboxDeleted   = "outbox.deleted"
)

// ProcessorConfig tunes polling, retries and retention.
type ProcessorConfig struct {
	PollInterval time.Duration
	BatchSize    int

	// A message is dead-lettered on its MaxRetries-th failed attempt.
	// Retries back off exponentially from RetryBackoffBase up to
	// RetryBackoffMax.
	MaxRetries       int
	RetryBackoffBase time.Duration
	RetryBackoffMax  time.Duration

	// RetentionDays and CleanupInterval drive the background purge of
	// published messages. A zero interval disables it.
	RetentionDays   int
	CleanupInterval time.Duration
}

// DefaultProcessorConfig returns the settings used when none are configured.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		PollInterval:     100 * time.Millisecond,
		BatchSize:        100,
		MaxRetries:       5,
		RetryBackoffBase: time.Second,
		RetryBackoffMax:  time.Minute,
		RetentionDays:    14,
		CleanupInterval:  24 * time.Hour,
	}
}

// Stats is a snapshot of what the processor has done since it was built.
type Stats struct {
	IsRunning       bool
	PublishedCount  uint64
	FailedCount     uint64
	DeadCount       uint64
	LagSeconds      float64
	LastError       string
	LastErrorAt     *time.Time
	LastProcessedAt *time.Time
	OldestMessageAt *time.Time
}

type outcome int

const (
	published outcome = iota
	retried
	deadLettered
)

// Processor relays committed outbox messages to the broker. Delivery is at
// least once: a crash between Publish and MarkPublished resends.
type Processor struct {
	repo      Queue
	publisher eventbus.Publisher
	config    ProcessorConfig
	logger    *slog.Logger
	metrics   observability.Metrics
	clock     clock.Clock

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	wg      sync.WaitGroup

	statsMu sync.Mutex
	stats   Stats
}

// Option customizes a Processor.
type Option func(*Processor)

// WithMetrics reports publish outcomes and lag to m.
func WithMetrics(m observability.Metrics) Option {
	return func(p *Processor) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithClock replaces the wall clock used for retry scheduling.
func WithClock(c clock.Clock) Option {
	return func(p *Processor) {
		if c != nil {
			p.clock = c
		}
	}
}

// NewProcessor creates a stopped processor reading from repo.
func NewProcessor(repo Queue, publisher eventbus.Publisher, config ProcessorConfig, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		repo:      repo,
		publisher: publisher,
		config:    config,
		logger:    logger.With("component", "outbox_processor"),
		metrics:   observability.NoopMetrics{},
		clock:     clock.System{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the relay loop and, when configured, the retention purge.
// Starting a running processor does nothing.
func (p *Processor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}
	p.running = true
	p.stop = make(chan struct{})

	p.every(ctx, p.config.PollInterval, func(ctx context.Context) {
		if err := p.ProcessOnce(ctx); err != nil {
			p.logger.ErrorContext(ctx, "failed to process outbox batch", "error", err)
		}
	})
	if p.config.CleanupInterval > 0 && p.config.RetentionDays > 0 {
		p.every(ctx, p.config.CleanupInterval, func(ctx context.Context) {
			if _, err := p.Cleanup(ctx); err != nil {
				p.logger.ErrorContext(ctx, "failed to clean up outbox", "error", err)
			}
		})
	}

	p.logger.InfoContext(ctx, "outbox processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
		"retention_days", p.config.RetentionDays,
	)
	return nil
}

// every runs fn on each tick until Stop or ctx ends. Callers hold p.mu.
func (p *Processor) every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	stop := p.stop
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}

// Stop ends both loops and waits for an in-flight batch to finish.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stop)
	p.mu.Unlock()

	p.wg.Wait()
	p.logger.Info("outbox processor stopped")
}

// IsRunning reports whether Start has been called without a matching Stop.
func (p *Processor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// ProcessOnce relays one batch of due messages.
func (p *Processor) ProcessOnce(ctx context.Context) error {
	messages, err := p.repo.GetUnpublished(ctx, p.config.BatchSize)
	if err != nil {
		p.noteError(err)
		return err
	}
	p.observeLag(messages)

	for _, msg := range messages {
		p.deliver(ctx, msg)
	}
	return nil
}

func (p *Processor) deliver(ctx context.Context, msg *Message) {
	err := p.publisher.Publish(ctx, msg.RoutingKey, msg.Payload)
	if err == nil {
		if markErr := p.repo.MarkPublished(ctx, msg.ID); markErr != nil {
			p.logger.ErrorContext(ctx, "failed to mark message as published",
				"id", msg.ID,
				"event_id", msg.EventID,
				"error", markErr,
			)
			return
		}
		p.record(published, nil)
		return
	}

	attrs := append([]any{
		"id", msg.ID,
		"routing_key", msg.RoutingKey,
		"event_id", msg.EventID,
		"attempt", msg.RetryCount + 1,
		"error", err,
	}, metadataAttrs(msg)...)
	p.logger.WarnContext(ctx, "failed to publish message", attrs...)

	var markErr error
	if p.exhausted(msg) {
		p.record(deadLettered, err)
		markErr = p.repo.MarkDead(ctx, msg.ID, err.Error())
	} else {
		p.record(retried, err)
		next := p.clock.Now().Add(p.backoff(msg.RetryCount + 1))
		markErr = p.repo.MarkFailed(ctx, msg.ID, err.Error(), next)
	}
	if markErr != nil {
		p.logger.ErrorContext(ctx, "failed to record publish failure", "id", msg.ID, "error", markErr)
	}
}

func (p *Processor) exhausted(msg *Message) bool {
	return p.config.MaxRetries <= 0 || msg.RetryCount+1 >= p.config.MaxRetries
}

// backoff is base * 2^(attempt-1), capped at the configured maximum.
func (p *Processor) backoff(attempt int) time.Duration {
	base, ceiling := p.config.RetryBackoffBase, p.config.RetryBackoffMax
	if base <= 0 {
		base = time.Second
	}
	if ceiling <= 0 {
		ceiling = time.Minute
	}
	shift := convert.IntToUintClamped(max(attempt, 1) - 1)
	if shift > 30 {
		return ceiling
	}
	return min(base*time.Duration(1<<shift), ceiling)
}

// metadataAttrs pulls tracing ids out of the stored event metadata.
func metadataAttrs(msg *Message) []any {
	if len(msg.Metadata) == 0 {
		return nil
	}
	var meta domain.EventMetadata
	if err := json.Unmarshal(msg.Metadata, &meta); err != nil {
		return nil
	}
	return []any{
		"correlation_id", meta.CorrelationID.String(),
		"causation_id", meta.CausationID.String(),
		"user_id", meta.UserID,
	}
}

// Cleanup deletes published messages older than the retention period.
func (p *Processor) Cleanup(ctx context.Context) (int64, error) {
	deleted, err := p.repo.DeleteOld(ctx, p.config.RetentionDays)
	if err != nil {
		p.noteError(err)
		return 0, err
	}
	if deleted > 0 {
		p.metrics.Counter(metricOutboxDeleted, deleted)
		p.logger.InfoContext(ctx, "outbox cleanup completed", "deleted", deleted)
	}
	return deleted, nil
}

// GetStats returns a snapshot of the counters.
func (p *Processor) GetStats() Stats {
	running := p.IsRunning()
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	s := p.stats
	s.IsRunning = running
	return s
}

func (p *Processor) record(o outcome, err error) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	switch o {
	case published:
		p.metrics.Counter(metricOutboxPublished, 1)
		p.stats.PublishedCount++
		return
	case retried:
		p.metrics.Counter(metricOutboxFailed, 1)
		p.stats.FailedCount++
	case deadLettered:
		p.metrics.Counter(metricOutboxDead, 1)
		p.stats.DeadCount++
	}
	p.noteErrorLocked(err)
}

func (p *Processor) noteError(err error) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	p.noteErrorLocked(err)
}

func (p *Processor) noteErrorLocked(err error) {
	now := p.clock.Now()
	p.stats.LastError = err.Error()
	p.stats.LastErrorAt = &now
}

// observeLag records how long the oldest due message has waited.
func (p *Processor) observeLag(messages []*Message) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	now := p.clock.Now()
	p.stats.LastProcessedAt = &now
	p.stats.OldestMessageAt = nil
	p.stats.LagSeconds = 0

	for _, msg := range messages {
		if p.stats.OldestMessageAt == nil || msg.CreatedAt.Before(*p.stats.OldestMessageAt) {
			created := msg.CreatedAt
			p.stats.OldestMessageAt = &created
		}
	}
	if p.stats.OldestMessageAt != nil {
		p.stats.LagSeconds = now.Sub(*p.stats.OldestMessageAt).Seconds()
	}
	p.metrics.Gauge(metricOutboxLag, p.stats.LagSeconds)
}
