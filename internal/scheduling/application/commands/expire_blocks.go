package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/careslot/internal/shared/application"
	"github.com/felixgeelhaar/careslot/internal/shared/clock"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/careslot/pkg/observability"
)

const systemActor = "system"

// ExpireBlocksCommand expires pending blocks whose last day is before Cutoff.
// A zero Cutoff means today.
type ExpireBlocksCommand struct {
	Cutoff time.Time
}

// ExpireBlocksResult reports how many blocks lapsed.
type ExpireBlocksResult struct {
	Expired int
	Failed  int
}

// ExpireBlocksHandler handles the ExpireBlocksCommand.
type ExpireBlocksHandler struct {
	repo       domain.Repository
	outboxRepo outbox.Writer
	uow        sharedApplication.UnitOfWork
	clock      clock.Clock
	metrics    observability.Metrics
	logger     *slog.Logger
}

// NewExpireBlocksHandler creates a new ExpireBlocksHandler.
func NewExpireBlocksHandler(
	repo domain.Repository,
	outboxRepo outbox.Writer,
	uow sharedApplication.UnitOfWork,
	clk clock.Clock,
	metrics observability.Metrics,
	logger *slog.Logger,
) *ExpireBlocksHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &ExpireBlocksHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		uow:        uow,
		clock:      clk,
		metrics:    metrics,
		logger:     logger,
	}
}

// Handle expires each stale block in its own transaction so one failure does
// not hold back the rest.
func (h *ExpireBlocksHandler) Handle(ctx context.Context, cmd ExpireBlocksCommand) (*ExpireBlocksResult, error) {
	now := h.clock.Now()
	cutoff := cmd.Cutoff
	if cutoff.IsZero() {
		cutoff = now
	}

	stale, err := h.repo.FindPendingEndingBefore(ctx, domain.DateOf(cutoff))
	if err != nil {
		return nil, err
	}

	result := &ExpireBlocksResult{}
	for _, block := range stale {
		err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
			if err := block.Expire(now); err != nil {
				return err
			}
			return saveWithEvents(txCtx, h.repo, h.outboxRepo, block, systemActor)
		})
		if err != nil {
			result.Failed++
			h.logger.Warn("failed to expire schedule block",
				"block_id", block.ID(),
				"professional_id", block.ProfessionalID(),
				"error", err,
			)
			continue
		}
		result.Expired++
		h.metrics.Counter(observability.MetricBlocksExpired, 1)
	}

	if result.Expired > 0 || result.Failed > 0 {
		h.logger.Info("expired stale schedule blocks",
			"cutoff", domain.FormatDate(cutoff),
			"expired", result.Expired,
			"failed", result.Failed,
		)
	}
	return result, nil
}
