package commands

import (
	"context"

	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/careslot/internal/shared/application"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/outbox"
)

// saveWithEvents stores the block and its pending domain events in the same
// transaction, then clears the events from the aggregate.
func saveWithEvents(txCtx context.Context, repo domain.Repository, outboxRepo outbox.Writer, block *domain.ScheduleBlock, userID string) error {
	if err := repo.Save(txCtx, block); err != nil {
		return err
	}
	return writeEvents(txCtx, outboxRepo, block, userID)
}

func writeEvents(txCtx context.Context, outboxRepo outbox.Writer, block *domain.ScheduleBlock, userID string) error {
	events := block.DomainEvents()
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(txCtx, userID))

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	if err := outboxRepo.SaveBatch(txCtx, msgs); err != nil {
		return err
	}
	block.ClearDomainEvents()
	return nil
}

// checkConflict loads the professional's active blocks and fails with
// ErrBlockConflict when the candidate overlaps one of them.
func checkConflict(ctx context.Context, repo domain.Repository, q domain.ConflictQuery) error {
	existing, err := repo.FindByProfessional(ctx, q.ProfessionalID, domain.BlockFilter{ActiveOnly: true})
	if err != nil {
		return err
	}
	if domain.HasConflict(existing, q) {
		return domain.ErrBlockConflict
	}
	return nil
}
