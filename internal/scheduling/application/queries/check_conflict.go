package queries

import (
	"context"

	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/google/uuid"
)

// CheckConflictQuery asks whether a candidate period collides with an
// active block of the professional.
type CheckConflictQuery struct {
	ProfessionalID string
	Period         domain.Period
	ExcludeBlockID uuid.UUID
}

// CheckConflictResult is the answer together with the blocks in the way.
type CheckConflictResult struct {
	HasConflict bool       `json:"hasConflict"`
	Conflicts   []BlockDTO `json:"conflicts,omitempty"`
}

// CheckConflictHandler handles the CheckConflictQuery.
type CheckConflictHandler struct {
	repo domain.Repository
}

// NewCheckConflictHandler creates a new CheckConflictHandler.
func NewCheckConflictHandler(repo domain.Repository) *CheckConflictHandler {
	return &CheckConflictHandler{repo: repo}
}

// Handle executes the CheckConflictQuery.
func (h *CheckConflictHandler) Handle(ctx context.Context, query CheckConflictQuery) (*CheckConflictResult, error) {
	if query.ProfessionalID == "" {
		return nil, domain.ErrProfessionalRequired
	}
	if query.Period.IsZero() {
		return nil, domain.ErrInvalidPeriod
	}

	existing, err := h.repo.FindByProfessional(ctx, query.ProfessionalID, domain.BlockFilter{
		ActiveOnly: true,
		From:       query.Period.Start(),
		To:         query.Period.End(),
	})
	if err != nil {
		return nil, err
	}

	conflicting := domain.Conflicting(existing, domain.ConflictQuery{
		ProfessionalID: query.ProfessionalID,
		Period:         query.Period,
		ExcludeBlockID: query.ExcludeBlockID,
	})
	return &CheckConflictResult{
		HasConflict: len(conflicting) > 0,
		Conflicts:   ToBlockDTOs(conflicting),
	}, nil
}
