package domain

import "github.com/google/uuid"

// ConflictQuery asks whether a candidate period for a professional overlaps
// any active block. ExcludeBlockID skips the block being edited.
type ConflictQuery struct {
	ProfessionalID string
	Period         Period
	ExcludeBlockID uuid.UUID
}

// HasConflict reports whether any pending or approved block of the same
// professional overlaps the candidate period. Intervals are inclusive on
// both ends, so touching boundaries conflict.
func HasConflict(existing []*ScheduleBlock, q ConflictQuery) bool {
	for _, b := range existing {
		if conflicts(b, q) {
			return true
		}
	}
	return false
}

// Conflicting returns every block that HasConflict would count.
func Conflicting(existing []*ScheduleBlock, q ConflictQuery) []*ScheduleBlock {
	var out []*ScheduleBlock
	for _, b := range existing {
		if conflicts(b, q) {
			out = append(out, b)
		}
	}
	return out
}

func conflicts(b *ScheduleBlock, q ConflictQuery) bool {
	if b == nil || q.Period.IsZero() {
		return false
	}
	if b.professionalID != q.ProfessionalID {
		return false
	}
	if q.ExcludeBlockID != uuid.Nil && b.ID() == q.ExcludeBlockID {
		return false
	}
	if !b.status.BlocksAvailability() {
		return false
	}
	return b.period.Interval().Overlaps(q.Period.Interval())
}
