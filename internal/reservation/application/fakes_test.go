package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/careslot/internal/reservation/domain"
	schedulingDomain "github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/felixgeelhaar/careslot/internal/shared/clock"
	"github.com/google/uuid"
)

var t0 = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func slotRequest(tod string) domain.ReservationRequest {
	return domain.ReservationRequest{ProfessionalID: "pro-1", SpecialtyID: "cardio", Date: "2024-06-10", Time: tod}
}

// fakeGateway hands out reservations that expire ttl after the clock's now.
type fakeGateway struct {
	mu    sync.Mutex
	clock *clock.Manual
	ttl   time.Duration
	seq   int

	reserveFn     func(req domain.ReservationRequest) (domain.Reservation, error)
	releaseErr    error
	releaseAllErr error
	released      []string
	releaseAlls   int
}

func newFakeGateway(clk *clock.Manual, ttl time.Duration) *fakeGateway {
	return &fakeGateway{clock: clk, ttl: ttl}
}

func (g *fakeGateway) Reserve(ctx context.Context, req domain.ReservationRequest) (domain.Reservation, error) {
	if g.reserveFn != nil {
		return g.reserveFn(req)
	}
	return g.issue(req, g.ttl)
}

func (g *fakeGateway) issue(req domain.ReservationRequest, ttl time.Duration) (domain.Reservation, error) {
	g.mu.Lock()
	g.seq++
	id := fmt.Sprintf("res-%d", g.seq)
	g.mu.Unlock()

	now := g.clock.Now()
	return domain.Reservation{
		ID:             id,
		UserID:         "user-1",
		ProfessionalID: req.ProfessionalID,
		SpecialtyID:    req.SpecialtyID,
		Date:           req.Date,
		Time:           req.Time,
		ExpiresAt:      now.Add(ttl),
		CreatedAt:      now,
	}, nil
}

func (g *fakeGateway) Release(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.released = append(g.released, id)
	return g.releaseErr
}

func (g *fakeGateway) ReleaseAll(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.releaseAlls++
	return g.releaseAllErr
}

func (g *fakeGateway) releasedIDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.released...)
}

// recordingPublisher keeps every routing key it is asked to publish.
type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) routingKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

// blockList is a read-only schedule block repository.
type blockList struct {
	blocks []*schedulingDomain.ScheduleBlock
	err    error
}

func (b *blockList) Save(ctx context.Context, block *schedulingDomain.ScheduleBlock) error {
	return nil
}

func (b *blockList) FindByID(ctx context.Context, id uuid.UUID) (*schedulingDomain.ScheduleBlock, error) {
	return nil, schedulingDomain.ErrBlockNotFound
}

func (b *blockList) FindByProfessional(ctx context.Context, professionalID string, filter schedulingDomain.BlockFilter) ([]*schedulingDomain.ScheduleBlock, error) {
	if b.err != nil {
		return nil, b.err
	}
	var out []*schedulingDomain.ScheduleBlock
	for _, block := range b.blocks {
		if block.OwnedBy(professionalID) && filter.Matches(block) {
			out = append(out, block)
		}
	}
	return out, nil
}

func (b *blockList) FindPendingEndingBefore(ctx context.Context, date time.Time) ([]*schedulingDomain.ScheduleBlock, error) {
	return nil, nil
}

func (b *blockList) Delete(ctx context.Context, id uuid.UUID) error {
	return nil
}

func domainReservation(id string) domain.Reservation {
	return domain.Reservation{ID: id, UserID: "user-1", ExpiresAt: t0.Add(time.Minute)}
}
