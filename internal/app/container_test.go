package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	reservationDomain "github.com/felixgeelhaar/careslot/internal/reservation/domain"
	"github.com/felixgeelhaar/careslot/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/felixgeelhaar/careslot/internal/shared/clock"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/careslot/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:                  "test",
		LocalMode:               true,
		DatabaseDriver:          "sqlite",
		SQLitePath:              filepath.Join(t.TempDir(), "careslot.db"),
		HoldTTL:                 10 * time.Minute,
		ReleasePolicy:           config.ReleasePolicyOptimistic,
		OutboxPollInterval:      10 * time.Millisecond,
		OutboxBatchSize:         10,
		OutboxMaxRetries:        3,
		OutboxRetentionDays:     1,
		HTTPClientTimeout:       time.Second,
		BreakerMaxRequests:      1,
		BreakerTimeout:          time.Second,
		BreakerInterval:         time.Second,
		BreakerFailureThreshold: 3,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewContainer_LocalMode(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))

	c, err := NewContainer(ctx, localConfig(t), quietLogger(), WithClock(clk))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, database.DriverSQLite, c.DBDriver)
	assert.NotNil(t, c.DBConn)
	assert.Nil(t, c.DB)
	assert.Nil(t, c.RedisClient, "no REDIS_URL keeps holds in memory")
	assert.NotNil(t, c.InProcessEventBus)
	assert.Same(t, c.InProcessEventBus, c.EventPublisher)
	assert.Nil(t, c.CalDAVPublisher)

	block, err := c.RequestBlockHandler.Handle(ctx, commands.RequestBlockCommand{
		ProfessionalID: "pro-1",
		Period:         domain.SingleDay(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)),
		RequestedBy:    "pro-1",
	})
	require.NoError(t, err)
	_, err = c.ApproveBlockHandler.Handle(ctx, commands.ApproveBlockCommand{BlockID: block.ID(), ApproverID: "admin-1"})
	require.NoError(t, err)

	_, err = c.HoldService.Reserve(ctx, "patient-1", reservationDomain.ReservationRequest{
		ProfessionalID: "pro-1",
		SpecialtyID:    "cardio",
		Date:           "2024-06-10",
		Time:           "09:00",
	})
	assert.ErrorIs(t, err, reservationDomain.ErrProfessionalUnavailable)

	require.NoError(t, c.OutboxProcessor.ProcessOnce(ctx))
	pending, err := c.OutboxRepo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	health := c.Health.GetOverallHealth(ctx)
	assert.Contains(t, health.Checks, "database")
	assert.Contains(t, health.Checks, "metrics")
}

func TestNewContainer_RequiresConfig(t *testing.T) {
	_, err := NewContainer(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestNewContainer_RejectsUnknownDriver(t *testing.T) {
	cfg := localConfig(t)
	cfg.LocalMode = false
	cfg.DatabaseDriver = "oracle"

	_, err := NewContainer(context.Background(), cfg, quietLogger())
	assert.ErrorIs(t, err, database.ErrUnknownDriver)
}

func TestNewClient(t *testing.T) {
	cfg := localConfig(t)
	cfg.APIBaseURL = "http://localhost:8080"
	cfg.APIToken = "tok"

	c, err := NewClient(context.Background(), cfg, quietLogger(), nil)
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Coordinator)
	assert.NotNil(t, c.Blocks)
	assert.Equal(t, 0, c.Coordinator.RemainingSeconds())
}

func TestNewClient_RejectsBadPolicy(t *testing.T) {
	cfg := localConfig(t)
	cfg.APIBaseURL = "http://localhost:8080"
	cfg.ReleasePolicy = "eventually"

	_, err := NewClient(context.Background(), cfg, quietLogger(), nil)
	assert.Error(t, err)
}

func TestContainer_ExpireBlocksOnce(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))

	c, err := NewContainer(ctx, localConfig(t), quietLogger(), WithClock(clk))
	require.NoError(t, err)
	defer c.Close()

	block, err := c.RequestBlockHandler.Handle(ctx, commands.RequestBlockCommand{
		ProfessionalID: "pro-1",
		Period:         domain.SingleDay(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)),
		RequestedBy:    "pro-1",
	})
	require.NoError(t, err)

	result, err := c.ExpireBlocksOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Expired)

	clk.Advance(72 * time.Hour)
	result, err = c.ExpireBlocksOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Expired)

	stored, err := c.BlockRepo.FindByID(ctx, block.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, stored.Status())
}
