package app

import (
	"context"
	"time"

	"github.com/felixgeelhaar/careslot/internal/scheduling/application/commands"
)

// ExpireBlocksOnce lapses pending blocks whose last day has passed.
func (c *Container) ExpireBlocksOnce(ctx context.Context) (*commands.ExpireBlocksResult, error) {
	result, err := c.ExpireBlocksHandler.Handle(ctx, commands.ExpireBlocksCommand{})
	if err != nil {
		c.Logger.ErrorContext(ctx, "block expiry failed", "error", err)
		return nil, err
	}
	if result.Expired > 0 || result.Failed > 0 {
		c.Logger.InfoContext(ctx, "block expiry completed",
			"expired", result.Expired,
			"failed", result.Failed,
		)
	}
	return result, nil
}

// RunBlockExpiry calls ExpireBlocksOnce immediately and then every interval
// until ctx is done.
func (c *Container) RunBlockExpiry(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	c.Logger.Info("block expiry started", "interval", interval)

	_, _ = c.ExpireBlocksOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = c.ExpireBlocksOnce(ctx)
		}
	}
}
