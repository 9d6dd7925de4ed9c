package commands

import (
	"context"

	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/careslot/internal/shared/application"
	"github.com/felixgeelhaar/careslot/internal/shared/clock"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// DeleteBlockCommand removes a block.
type DeleteBlockCommand struct {
	BlockID uuid.UUID
	ActorID string
	IsAdmin bool
}

// DeleteBlockHandler handles the DeleteBlockCommand.
type DeleteBlockHandler struct {
	repo       domain.Repository
	outboxRepo outbox.Writer
	uow        sharedApplication.UnitOfWork
	clock      clock.Clock
}

// NewDeleteBlockHandler creates a new DeleteBlockHandler.
func NewDeleteBlockHandler(repo domain.Repository, outboxRepo outbox.Writer, uow sharedApplication.UnitOfWork, clk clock.Clock) *DeleteBlockHandler {
	return &DeleteBlockHandler{repo: repo, outboxRepo: outboxRepo, uow: uow, clock: clk}
}

// Handle deletes a pending block owned by the actor, or any block when the
// actor is an administrator.
func (h *DeleteBlockHandler) Handle(ctx context.Context, cmd DeleteBlockCommand) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		block, err := h.repo.FindByID(txCtx, cmd.BlockID)
		if err != nil {
			return err
		}
		if !cmd.IsAdmin && !block.OwnedBy(cmd.ActorID) {
			return domain.ErrNotBlockOwner
		}
		if err := block.MarkDeleted(cmd.ActorID, cmd.IsAdmin, h.clock.Now()); err != nil {
			return err
		}
		if err := h.repo.Delete(txCtx, block.ID()); err != nil {
			return err
		}
		return writeEvents(txCtx, h.outboxRepo, block, cmd.ActorID)
	})
}
