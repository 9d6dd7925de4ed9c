package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/felixgeelhaar/careslot/internal/reservation/domain"
	schedulingDomain "github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/careslot/internal/shared/application"
	"github.com/felixgeelhaar/careslot/internal/shared/clock"
	sharedDomain "github.com/felixgeelhaar/careslot/internal/shared/domain"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/careslot/pkg/observability"
)

// DefaultHoldTTL is how long a server-side hold lives without a release.
const DefaultHoldTTL = 10 * time.Minute

// HoldService is the server side of /slot-reservations. It refuses holds on
// dates a professional has blocked and keeps one hold per slot.
type HoldService struct {
	holds     domain.HoldRepository
	blocks    schedulingDomain.Repository
	ttl       time.Duration
	clock     clock.Clock
	publisher eventbus.Publisher
	metrics   observability.Metrics
	logger    *slog.Logger
	newID     func() string
}

// NewHoldService creates a hold service. blocks may be nil to skip the
// availability check.
func NewHoldService(holds domain.HoldRepository, blocks schedulingDomain.Repository, ttl time.Duration, opts ...Option) *HoldService {
	o := buildOptions(opts)
	if ttl <= 0 {
		ttl = DefaultHoldTTL
	}
	return &HoldService{
		holds:     holds,
		blocks:    blocks,
		ttl:       ttl,
		clock:     o.clock,
		publisher: o.publisher,
		metrics:   o.metrics,
		logger:    o.logger.With("component", "hold_service"),
		newID:     o.newID,
	}
}

// TTL returns the lifetime given to new holds.
func (s *HoldService) TTL() time.Duration {
	return s.ttl
}

// Reserve places a hold for userID. A user asking again for a slot they
// already hold gets a fresh hold in place of the old one.
func (s *HoldService) Reserve(ctx context.Context, userID string, req domain.ReservationRequest) (domain.Reservation, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Reservation{}, fmt.Errorf("%w: userId is required", domain.ErrInvalidRequest)
	}
	if err := req.Validate(); err != nil {
		return domain.Reservation{}, err
	}

	if err := s.checkAvailability(ctx, req); err != nil {
		if errors.Is(err, domain.ErrProfessionalUnavailable) {
			s.metrics.Counter(observability.MetricReservationsRejected, 1, observability.T("reason", "blocked"))
		}
		return domain.Reservation{}, err
	}

	if err := s.dropOwnHold(ctx, userID, req.SlotKey()); err != nil {
		return domain.Reservation{}, err
	}

	now := s.clock.Now()
	r, err := domain.NewReservation(s.newID(), userID, req, now.Add(s.ttl), now)
	if err != nil {
		return domain.Reservation{}, err
	}

	if err := s.holds.Create(ctx, r, s.ttl); err != nil {
		if errors.Is(err, domain.ErrSlotUnavailable) {
			s.metrics.Counter(observability.MetricReservationsRejected, 1, observability.T("reason", "taken"))
		}
		return domain.Reservation{}, err
	}

	s.logger.InfoContext(ctx, "hold created",
		"reservation_id", r.ID,
		"user_id", userID,
		"slot", r.SlotKey(),
		"expires_at", r.ExpiresAt,
	)
	s.metrics.Counter(observability.MetricReservationsCreated, 1)
	s.publish(ctx, userID, domain.NewSlotReserved(r, now))
	return r, nil
}

func (s *HoldService) checkAvailability(ctx context.Context, req domain.ReservationRequest) error {
	if s.blocks == nil {
		return nil
	}
	day, err := req.Day()
	if err != nil {
		return err
	}
	existing, err := s.blocks.FindByProfessional(ctx, req.ProfessionalID, schedulingDomain.BlockFilter{
		ActiveOnly: true,
		From:       day,
		To:         day,
	})
	if err != nil {
		return fmt.Errorf("failed to load schedule blocks: %w", err)
	}
	if schedulingDomain.HasConflict(existing, schedulingDomain.ConflictQuery{
		ProfessionalID: req.ProfessionalID,
		Period:         schedulingDomain.SingleDay(day),
	}) {
		return fmt.Errorf("%w: %s on %s", domain.ErrProfessionalUnavailable, req.ProfessionalID, req.Date)
	}
	return nil
}

func (s *HoldService) dropOwnHold(ctx context.Context, userID, slotKey string) error {
	held, err := s.holds.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, h := range held {
		if h.SlotKey() != slotKey {
			continue
		}
		if err := s.holds.Delete(ctx, h.ID); err != nil && !errors.Is(err, domain.ErrReservationNotFound) {
			return err
		}
	}
	return nil
}

// Release removes one of the user's holds. Holds of other users look
// missing.
func (s *HoldService) Release(ctx context.Context, userID, id string) error {
	r, err := s.holds.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if r.UserID != userID {
		return domain.ErrReservationNotFound
	}
	if err := s.holds.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "hold released", "reservation_id", id, "user_id", userID)
	s.metrics.Counter(observability.MetricReservationsReleased, 1)
	s.publish(ctx, userID, domain.NewSlotReleased(r, s.clock.Now()))
	return nil
}

// ReleaseAll removes every hold of the user and returns how many went.
func (s *HoldService) ReleaseAll(ctx context.Context, userID string) (int, error) {
	held, err := s.holds.FindByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	n, err := s.holds.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "holds released", "user_id", userID, "count", n)
	s.metrics.Counter(observability.MetricReservationsReleased, int64(n))
	now := s.clock.Now()
	for _, r := range held {
		s.publish(ctx, userID, domain.NewSlotReleased(r, now))
	}
	return n, nil
}

// List returns the user's live holds.
func (s *HoldService) List(ctx context.Context, userID string) ([]domain.Reservation, error) {
	held, err := s.holds.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if held == nil {
		held = []domain.Reservation{}
	}
	return held, nil
}

func (s *HoldService) publish(ctx context.Context, userID string, event sharedDomain.DomainEvent) {
	if s.publisher == nil {
		return
	}
	sharedApplication.ApplyEventMetadata([]sharedDomain.DomainEvent{event}, sharedApplication.NewEventMetadata(ctx, userID))
	if err := eventbus.PublishDomainEvent(ctx, s.publisher, event); err != nil {
		s.logger.WarnContext(ctx, "failed to publish reservation event",
			"routing_key", event.RoutingKey(),
			"error", err,
		)
	}
}
