package commands

import (
	"context"

	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/careslot/internal/shared/application"
	"github.com/felixgeelhaar/careslot/internal/shared/clock"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
)

// ApproveBlockCommand accepts a pending block.
type ApproveBlockCommand struct {
	BlockID      uuid.UUID
	ApproverID   string
	ApproverName string
}

// RejectBlockCommand declines a pending block.
type RejectBlockCommand struct {
	BlockID      uuid.UUID
	ApproverID   string
	ApproverName string
	Reason       string
}

// ApproveBlockHandler handles the ApproveBlockCommand.
type ApproveBlockHandler struct {
	decider
}

// RejectBlockHandler handles the RejectBlockCommand.
type RejectBlockHandler struct {
	decider
}

type decider struct {
	repo       domain.Repository
	outboxRepo outbox.Writer
	uow        sharedApplication.UnitOfWork
	clock      clock.Clock
}

// NewApproveBlockHandler creates a new ApproveBlockHandler.
func NewApproveBlockHandler(repo domain.Repository, outboxRepo outbox.Writer, uow sharedApplication.UnitOfWork, clk clock.Clock) *ApproveBlockHandler {
	return &ApproveBlockHandler{decider{repo: repo, outboxRepo: outboxRepo, uow: uow, clock: clk}}
}

// NewRejectBlockHandler creates a new RejectBlockHandler.
func NewRejectBlockHandler(repo domain.Repository, outboxRepo outbox.Writer, uow sharedApplication.UnitOfWork, clk clock.Clock) *RejectBlockHandler {
	return &RejectBlockHandler{decider{repo: repo, outboxRepo: outboxRepo, uow: uow, clock: clk}}
}

// Handle executes the ApproveBlockCommand.
func (h *ApproveBlockHandler) Handle(ctx context.Context, cmd ApproveBlockCommand) (*domain.ScheduleBlock, error) {
	return h.decide(ctx, cmd.BlockID, cmd.ApproverID, func(block *domain.ScheduleBlock) error {
		return block.Approve(cmd.ApproverID, cmd.ApproverName, h.clock.Now())
	})
}

// Handle executes the RejectBlockCommand.
func (h *RejectBlockHandler) Handle(ctx context.Context, cmd RejectBlockCommand) (*domain.ScheduleBlock, error) {
	return h.decide(ctx, cmd.BlockID, cmd.ApproverID, func(block *domain.ScheduleBlock) error {
		return block.Reject(cmd.ApproverID, cmd.ApproverName, cmd.Reason, h.clock.Now())
	})
}

func (d decider) decide(ctx context.Context, id uuid.UUID, actorID string, apply func(*domain.ScheduleBlock) error) (*domain.ScheduleBlock, error) {
	return sharedApplication.WithUnitOfWorkResult(ctx, d.uow, func(txCtx context.Context) (*domain.ScheduleBlock, error) {
		block, err := d.repo.FindByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		if err := apply(block); err != nil {
			return nil, err
		}
		if err := saveWithEvents(txCtx, d.repo, d.outboxRepo, block, actorID); err != nil {
			return nil, err
		}
		return block, nil
	})
}
