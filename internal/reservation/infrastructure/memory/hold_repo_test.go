package memory

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/careslot/internal/reservation/domain"
	"github.com/felixgeelhaar/careslot/internal/shared/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func hold(t *testing.T, id, user, tod string) domain.Reservation {
	t.Helper()
	req := domain.ReservationRequest{ProfessionalID: "pro-1", SpecialtyID: "cardio", Date: "2024-06-10", Time: tod}
	r, err := domain.NewReservation(id, user, req, start.Add(10*time.Minute), start)
	require.NoError(t, err)
	return r
}

func TestHoldRepository_SlotIsExclusive(t *testing.T) {
	ctx := context.Background()
	repo := NewHoldRepository(clock.NewManual(start))

	require.NoError(t, repo.Create(ctx, hold(t, "a", "u1", "09:00"), time.Minute))
	err := repo.Create(ctx, hold(t, "b", "u2", "09:00"), time.Minute)
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)

	require.NoError(t, repo.Delete(ctx, "a"))
	assert.NoError(t, repo.Create(ctx, hold(t, "b", "u2", "09:00"), time.Minute))
}

func TestHoldRepository_ExpiredHoldsDisappear(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(start)
	repo := NewHoldRepository(clk)

	require.NoError(t, repo.Create(ctx, hold(t, "a", "u1", "09:00"), time.Minute))
	clk.Advance(time.Minute)

	_, err := repo.FindByID(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrReservationNotFound)
	assert.NoError(t, repo.Create(ctx, hold(t, "b", "u2", "09:00"), time.Minute), "slot is free again")
}

func TestHoldRepository_ByUser(t *testing.T) {
	ctx := context.Background()
	repo := NewHoldRepository(clock.NewManual(start))

	require.NoError(t, repo.Create(ctx, hold(t, "a", "u1", "09:00"), time.Minute))
	require.NoError(t, repo.Create(ctx, hold(t, "b", "u1", "10:00"), time.Minute))
	require.NoError(t, repo.Create(ctx, hold(t, "c", "u2", "11:00"), time.Minute))

	held, err := repo.FindByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, held, 2)
	assert.Equal(t, "a", held[0].ID)

	n, err := repo.DeleteByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	held, err = repo.FindByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, held)

	_, err = repo.FindByID(ctx, "c")
	assert.NoError(t, err)
	assert.ErrorIs(t, repo.Delete(ctx, "missing"), domain.ErrReservationNotFound)
}
