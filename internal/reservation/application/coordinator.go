package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/careslot/internal/reservation/domain"
	"github.com/felixgeelhaar/careslot/internal/shared/clock"
	sharedDomain "github.com/felixgeelhaar/careslot/internal/shared/domain"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/careslot/pkg/observability"
)

// ExpiredNotice is delivered to subscribers when a held reservation lapses.
type ExpiredNotice struct {
	Reservation domain.Reservation
	ExpiredAt   time.Time
}

// Coordinator owns the single reservation of one client session. It moves
// between Empty and Reserved on reserve, release and expiry.
type Coordinator struct {
	gateway   Gateway
	store     ReservationStore
	scheduler *ExpirationScheduler
	clock     clock.Clock
	policy    ReleasePolicy
	publisher eventbus.Publisher
	metrics   observability.Metrics
	logger    *slog.Logger

	mu      sync.Mutex
	handle  *Handle
	armed   uint64
	issued  uint64
	applied uint64
	subs    map[int]func(ExpiredNotice)
	nextSub int
}

// NewCoordinator creates an empty coordinator backed by gateway.
func NewCoordinator(gateway Gateway, opts ...Option) *Coordinator {
	o := buildOptions(opts)
	return &Coordinator{
		gateway:   gateway,
		store:     o.store,
		scheduler: NewExpirationScheduler(o.clock),
		clock:     o.clock,
		policy:    o.policy,
		publisher: o.publisher,
		metrics:   o.metrics,
		logger:    o.logger.With("component", "reservation_coordinator"),
		subs:      make(map[int]func(ExpiredNotice)),
	}
}

// Reserve asks the gateway for a hold. On success the new reservation
// replaces the current one and its expiry is armed; the superseded hold is
// left for the server's TTL. A gateway error is returned unchanged and
// leaves state untouched.
//
// Responses are fenced: when a later Reserve has already been applied, an
// earlier response is returned to its caller but not stored. A later Reserve
// that failed does not fence earlier ones.
func (c *Coordinator) Reserve(ctx context.Context, req domain.ReservationRequest) (domain.Reservation, error) {
	if err := req.Validate(); err != nil {
		return domain.Reservation{}, err
	}

	c.mu.Lock()
	c.issued++
	token := c.issued
	c.mu.Unlock()

	r, err := c.gateway.Reserve(ctx, req)
	if err != nil {
		c.logger.WarnContext(ctx, "reserve failed",
			"professional_id", req.ProfessionalID,
			"date", req.Date,
			"time", req.Time,
			"error", err,
		)
		c.metrics.Counter(observability.MetricReservationsRejected, 1, observability.T("source", "gateway"))
		return domain.Reservation{}, err
	}

	c.mu.Lock()
	// Only a newer applied response supersedes this one; a newer failed call does not.
	if token < c.applied {
		c.mu.Unlock()
		c.logger.InfoContext(ctx, "dropping stale reserve response",
			"reservation_id", r.ID,
			"token", token,
		)
		return r, nil
	}
	c.applied = token
	c.scheduler.Cancel(c.handle)
	c.store.Set(r)
	c.handle = c.scheduler.Arm(r.ExpiresAt, func() { c.expire(token) })
	c.armed = token
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "slot reserved",
		"reservation_id", r.ID,
		"professional_id", r.ProfessionalID,
		"expires_at", r.ExpiresAt,
	)
	c.metrics.Counter(observability.MetricReservationsCreated, 1)
	c.publish(ctx, domain.NewSlotReserved(r, c.clock.Now()))
	return r, nil
}

// Release gives up the reservation with the given id. With nothing held it
// is a no-op. An id other than the current one is released remotely only.
func (c *Coordinator) Release(ctx context.Context, id string) error {
	c.mu.Lock()
	cur, ok := c.store.Get()
	if !ok {
		c.mu.Unlock()
		c.logger.DebugContext(ctx, "release with no active reservation", "reservation_id", id)
		return nil
	}
	isCurrent := cur.ID == id
	if isCurrent && c.policy == ReleaseOptimistic {
		c.clearLocked()
	}
	c.mu.Unlock()

	if err := c.gateway.Release(ctx, id); err != nil {
		c.logger.WarnContext(ctx, "release failed",
			"reservation_id", id,
			"policy", c.policy.String(),
			"error", err,
		)
		return err
	}

	if isCurrent && c.policy == ReleaseStrict {
		c.mu.Lock()
		isCurrent = c.clearIfLocked(id)
		c.mu.Unlock()
	}
	c.released(ctx, id, cur, isCurrent)
	return nil
}

// ReleaseAll releases every hold of the calling user. The gateway is always
// called, even when nothing is held locally.
func (c *Coordinator) ReleaseAll(ctx context.Context) error {
	c.mu.Lock()
	cur, held := c.store.Get()
	if held && c.policy == ReleaseOptimistic {
		c.clearLocked()
	}
	c.mu.Unlock()

	if err := c.gateway.ReleaseAll(ctx); err != nil {
		c.logger.WarnContext(ctx, "release all failed",
			"policy", c.policy.String(),
			"error", err,
		)
		return err
	}

	if held && c.policy == ReleaseStrict {
		c.mu.Lock()
		held = c.clearIfLocked(cur.ID)
		c.mu.Unlock()
	}
	if !held {
		c.logger.InfoContext(ctx, "released all reservations", "policy", c.policy.String())
		return nil
	}
	c.released(ctx, cur.ID, cur, true)
	return nil
}

// Current returns the held reservation.
func (c *Coordinator) Current() (domain.Reservation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Get()
}

// RemainingSeconds is the whole seconds left on the held reservation,
// rounded up and never negative. It is 0 when nothing is held.
func (c *Coordinator) RemainingSeconds() int {
	c.mu.Lock()
	r, ok := c.store.Get()
	c.mu.Unlock()
	if !ok {
		return 0
	}
	return r.RemainingSeconds(c.clock.Now())
}

// Subscribe registers fn for expiry notices. Call the returned function to
// stop receiving them.
func (c *Coordinator) Subscribe(fn func(ExpiredNotice)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

// Close cancels the pending expiry and forgets the held reservation locally.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Coordinator) expire(token uint64) {
	c.mu.Lock()
	if c.handle == nil || c.armed != token {
		c.mu.Unlock()
		return
	}
	r, ok := c.store.Get()
	c.store.Clear()
	c.handle = nil
	subs := make([]func(ExpiredNotice), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	if !ok {
		return
	}

	now := c.clock.Now()
	ctx := context.Background()
	c.logger.InfoContext(ctx, "reservation expired",
		"reservation_id", r.ID,
		"expires_at", r.ExpiresAt,
	)
	c.metrics.Counter(observability.MetricReservationsExpired, 1)

	notice := ExpiredNotice{Reservation: r, ExpiredAt: now}
	for _, fn := range subs {
		fn(notice)
	}
	c.publish(ctx, domain.NewSlotExpired(r, now))
}

func (c *Coordinator) clearLocked() {
	c.scheduler.Cancel(c.handle)
	c.handle = nil
	c.store.Clear()
}

// clearIfLocked clears local state when id is still the held reservation.
func (c *Coordinator) clearIfLocked(id string) bool {
	cur, ok := c.store.Get()
	if !ok || cur.ID != id {
		return false
	}
	c.clearLocked()
	return true
}

func (c *Coordinator) released(ctx context.Context, id string, cur domain.Reservation, wasCurrent bool) {
	c.logger.InfoContext(ctx, "reservation released",
		"reservation_id", id,
		"local", wasCurrent,
		"policy", c.policy.String(),
	)
	c.metrics.Counter(observability.MetricReservationsReleased, 1)
	if wasCurrent {
		c.publish(ctx, domain.NewSlotReleased(cur, c.clock.Now()))
	}
}

func (c *Coordinator) publish(ctx context.Context, event sharedDomain.DomainEvent) {
	if c.publisher == nil {
		return
	}
	if err := eventbus.PublishDomainEvent(ctx, c.publisher, event); err != nil {
		c.logger.WarnContext(ctx, "failed to publish reservation event",
			"routing_key", event.RoutingKey(),
			"error", err,
		)
	}
}
