package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BlockFilter narrows FindByProfessional. Zero fields match everything.
type BlockFilter struct {
	Status BlockStatus
	// From and To restrict to blocks overlapping [From, To].
	From time.Time
	To   time.Time
	// ActiveOnly keeps pending and approved blocks.
	ActiveOnly bool
}

// Matches applies the filter in memory.
func (f BlockFilter) Matches(b *ScheduleBlock) bool {
	if f.Status != "" && b.Status() != f.Status {
		return false
	}
	if f.ActiveOnly && !b.BlocksAvailability() {
		return false
	}
	if !f.From.IsZero() && b.Period().End().Before(DateOf(f.From)) {
		return false
	}
	if !f.To.IsZero() && b.Period().Start().After(DateOf(f.To)) {
		return false
	}
	return true
}

// Repository persists schedule blocks.
type Repository interface {
	// Save inserts or updates a block. Updates are guarded by the aggregate
	// version and fail with ErrStaleBlock on a lost race.
	Save(ctx context.Context, block *ScheduleBlock) error

	// FindByID returns ErrBlockNotFound when missing.
	FindByID(ctx context.Context, id uuid.UUID) (*ScheduleBlock, error)

	// FindByProfessional lists blocks ordered by start date.
	FindByProfessional(ctx context.Context, professionalID string, filter BlockFilter) ([]*ScheduleBlock, error)

	// FindPendingEndingBefore lists pending blocks whose last day is before date.
	FindPendingEndingBefore(ctx context.Context, date time.Time) ([]*ScheduleBlock, error)

	// Delete removes a block. Missing blocks yield ErrBlockNotFound.
	Delete(ctx context.Context, id uuid.UUID) error
}
