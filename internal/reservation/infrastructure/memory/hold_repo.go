// Package memory keeps slot holds in process for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/careslot/internal/reservation/domain"
	"github.com/felixgeelhaar/careslot/internal/shared/clock"
)

type entry struct {
	hold     domain.Reservation
	deadline time.Time
}

// HoldRepository is an in-memory domain.HoldRepository. Holds whose TTL has
// passed are invisible and swept lazily.
type HoldRepository struct {
	mu    sync.Mutex
	clock clock.Clock
	holds map[string]entry
	slots map[string]string
}

// NewHoldRepository creates an empty repository. A nil clock uses wall time.
func NewHoldRepository(clk clock.Clock) *HoldRepository {
	if clk == nil {
		clk = clock.System{}
	}
	return &HoldRepository{
		clock: clk,
		holds: make(map[string]entry),
		slots: make(map[string]string),
	}
}

func (r *HoldRepository) Create(ctx context.Context, hold domain.Reservation, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	if _, taken := r.slots[hold.SlotKey()]; taken {
		return domain.ErrSlotUnavailable
	}
	r.holds[hold.ID] = entry{hold: hold, deadline: r.clock.Now().Add(ttl)}
	r.slots[hold.SlotKey()] = hold.ID
	return nil
}

func (r *HoldRepository) FindByID(ctx context.Context, id string) (domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	e, ok := r.holds[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return e.hold, nil
}

func (r *HoldRepository) FindByUser(ctx context.Context, userID string) ([]domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	out := make([]domain.Reservation, 0)
	for _, e := range r.holds {
		if e.hold.UserID == userID {
			out = append(out, e.hold)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *HoldRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	if _, ok := r.holds[id]; !ok {
		return domain.ErrReservationNotFound
	}
	r.deleteLocked(id)
	return nil
}

func (r *HoldRepository) DeleteByUser(ctx context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	n := 0
	for id, e := range r.holds {
		if e.hold.UserID == userID {
			r.deleteLocked(id)
			n++
		}
	}
	return n, nil
}

func (r *HoldRepository) deleteLocked(id string) {
	e, ok := r.holds[id]
	if !ok {
		return
	}
	delete(r.holds, id)
	if r.slots[e.hold.SlotKey()] == id {
		delete(r.slots, e.hold.SlotKey())
	}
}

func (r *HoldRepository) sweepLocked() {
	now := r.clock.Now()
	for id, e := range r.holds {
		if !now.Before(e.deadline) {
			r.deleteLocked(id)
		}
	}
}
