package commands

import (
	"context"

	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/careslot/internal/shared/application"
	"github.com/felixgeelhaar/careslot/internal/shared/clock"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// UpdateBlockCommand reschedules a pending block.
type UpdateBlockCommand struct {
	BlockID uuid.UUID
	ActorID string
	IsAdmin bool
	Period  domain.Period
	Reason  string
}

// UpdateBlockHandler handles the UpdateBlockCommand.
type UpdateBlockHandler struct {
	repo       domain.Repository
	outboxRepo outbox.Writer
	uow        sharedApplication.UnitOfWork
	clock      clock.Clock
}

// NewUpdateBlockHandler creates a new UpdateBlockHandler.
func NewUpdateBlockHandler(repo domain.Repository, outboxRepo outbox.Writer, uow sharedApplication.UnitOfWork, clk clock.Clock) *UpdateBlockHandler {
	return &UpdateBlockHandler{repo: repo, outboxRepo: outboxRepo, uow: uow, clock: clk}
}

// Handle moves the block to a new period. The conflict check skips the
// block itself so editing in place never conflicts.
func (h *UpdateBlockHandler) Handle(ctx context.Context, cmd UpdateBlockCommand) (*domain.ScheduleBlock, error) {
	return sharedApplication.WithUnitOfWorkResult(ctx, h.uow, func(txCtx context.Context) (*domain.ScheduleBlock, error) {
		block, err := h.repo.FindByID(txCtx, cmd.BlockID)
		if err != nil {
			return nil, err
		}
		if !cmd.IsAdmin && !block.OwnedBy(cmd.ActorID) {
			return nil, domain.ErrNotBlockOwner
		}
		if !block.IsPending() {
			return nil, domain.ErrBlockNotPending
		}

		if err := checkConflict(txCtx, h.repo, domain.ConflictQuery{
			ProfessionalID: block.ProfessionalID(),
			Period:         cmd.Period,
			ExcludeBlockID: block.ID(),
		}); err != nil {
			return nil, err
		}
		if err := block.Reschedule(cmd.Period, cmd.Reason, h.clock.Now()); err != nil {
			return nil, err
		}
		if err := saveWithEvents(txCtx, h.repo, h.outboxRepo, block, cmd.ActorID); err != nil {
			return nil, err
		}
		return block, nil
	})
}
