package commands

import (
	"context"

	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/careslot/internal/shared/application"
	"github.com/felixgeelhaar/careslot/internal/shared/clock"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/outbox"
)

// RequestBlockCommand contains the data needed to request a schedule block.
type RequestBlockCommand struct {
	ProfessionalID string
	Period         domain.Period
	Reason         string
	RequestedBy    string
}

// RequestBlockHandler handles the RequestBlockCommand.
type RequestBlockHandler struct {
	repo       domain.Repository
	outboxRepo outbox.Writer
	uow        sharedApplication.UnitOfWork
	clock      clock.Clock
}

// NewRequestBlockHandler creates a new RequestBlockHandler.
func NewRequestBlockHandler(repo domain.Repository, outboxRepo outbox.Writer, uow sharedApplication.UnitOfWork, clk clock.Clock) *RequestBlockHandler {
	return &RequestBlockHandler{repo: repo, outboxRepo: outboxRepo, uow: uow, clock: clk}
}

// Handle creates a pending block unless it overlaps an active one.
func (h *RequestBlockHandler) Handle(ctx context.Context, cmd RequestBlockCommand) (*domain.ScheduleBlock, error) {
	block, err := domain.NewScheduleBlock(cmd.ProfessionalID, cmd.Period, cmd.Reason, h.clock.Now())
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := checkConflict(txCtx, h.repo, domain.ConflictQuery{
			ProfessionalID: block.ProfessionalID(),
			Period:         block.Period(),
		}); err != nil {
			return err
		}
		return saveWithEvents(txCtx, h.repo, h.outboxRepo, block, requester(cmd.RequestedBy, cmd.ProfessionalID))
	})
	if err != nil {
		return nil, err
	}
	return block, nil
}

func requester(actor, fallback string) string {
	if actor != "" {
		return actor
	}
	return fallback
}
