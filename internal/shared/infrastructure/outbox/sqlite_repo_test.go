package outbox_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/felixgeelhaar/careslot/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteOutbox(t *testing.T) (*outbox.SQLiteRepository, *sql.DB) {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.RunSQLiteMigrations(ctx, db))
	return outbox.NewSQLiteRepository(db), db
}

func sqliteMessage(routingKey string, createdAt time.Time) *outbox.Message {
	return &outbox.Message{
		EventID:       uuid.New(),
		AggregateType: "ScheduleBlock",
		AggregateID:   uuid.New(),
		EventType:     routingKey,
		RoutingKey:    routingKey,
		Payload:       []byte(`{"event_id":"x"}`),
		Metadata:      []byte(`{"UserID":"prof-1"}`),
		CreatedAt:     createdAt,
	}
}

func TestSQLiteRepository_SaveAndGetUnpublished(t *testing.T) {
	repo, _ := newSQLiteOutbox(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Minute)

	second := sqliteMessage("scheduling.block.approved", base.Add(time.Second))
	first := sqliteMessage("scheduling.block.requested", base)
	require.NoError(t, repo.SaveBatch(ctx, []*outbox.Message{second, first}))
	assert.NotZero(t, first.ID)

	msgs, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, first.EventID, msgs[0].EventID)
	assert.Equal(t, "scheduling.block.approved", msgs[1].RoutingKey)
	assert.JSONEq(t, `{"UserID":"prof-1"}`, string(msgs[0].Metadata))
	assert.WithinDuration(t, base, msgs[0].CreatedAt, time.Millisecond)
}

func TestSQLiteRepository_MarkPublishedHidesMessage(t *testing.T) {
	repo, _ := newSQLiteOutbox(t)
	ctx := context.Background()

	msg := sqliteMessage("reservation.slot.reserved", time.Now())
	require.NoError(t, repo.Save(ctx, msg))
	require.NoError(t, repo.MarkPublished(ctx, msg.ID))

	msgs, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSQLiteRepository_MarkFailedDelaysRetry(t *testing.T) {
	repo, _ := newSQLiteOutbox(t)
	ctx := context.Background()

	msg := sqliteMessage("reservation.slot.expired", time.Now())
	require.NoError(t, repo.Save(ctx, msg))
	require.NoError(t, repo.MarkFailed(ctx, msg.ID, "broker down", time.Now().Add(time.Hour)))

	msgs, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, repo.MarkFailed(ctx, msg.ID, "broker down", time.Now().Add(-time.Second)))
	failed, err := repo.GetFailed(ctx, 5, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, 2, failed[0].RetryCount)
	require.NotNil(t, failed[0].LastError)
	assert.Equal(t, "broker down", *failed[0].LastError)
}

func TestSQLiteRepository_MarkDead(t *testing.T) {
	repo, _ := newSQLiteOutbox(t)
	ctx := context.Background()

	msg := sqliteMessage("scheduling.block.deleted", time.Now())
	require.NoError(t, repo.Save(ctx, msg))
	require.NoError(t, repo.MarkDead(ctx, msg.ID, "max retries"))

	msgs, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSQLiteRepository_SaveBatchUsesAmbientTransaction(t *testing.T) {
	repo, db := newSQLiteOutbox(t)
	ctx := context.Background()

	uow := sharedPersistence.NewSQLiteUnitOfWork(db)
	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.SaveBatch(txCtx, []*outbox.Message{sqliteMessage("scheduling.block.requested", time.Now())}))
	require.NoError(t, uow.Rollback(txCtx))

	msgs, err := repo.GetUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSQLiteRepository_DeleteOld(t *testing.T) {
	repo, db := newSQLiteOutbox(t)
	ctx := context.Background()

	old := sqliteMessage("reservation.slot.released", time.Now().AddDate(0, 0, -30))
	fresh := sqliteMessage("reservation.slot.released", time.Now())
	require.NoError(t, repo.SaveBatch(ctx, []*outbox.Message{old, fresh}))
	require.NoError(t, repo.MarkPublished(ctx, fresh.ID))
	_, err := db.ExecContext(ctx, `UPDATE outbox SET published_at = ? WHERE id = ?`,
		time.Now().AddDate(0, 0, -20).UTC().Format("2006-01-02T15:04:05.000000000Z07:00"), old.ID)
	require.NoError(t, err)

	deleted, err := repo.DeleteOld(ctx, 14)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestInMemoryRepository_DeleteOld(t *testing.T) {
	repo := outbox.NewInMemoryRepository()
	ctx := context.Background()

	msg := sqliteMessage("reservation.slot.released", time.Now())
	require.NoError(t, repo.Save(ctx, msg))
	old := time.Now().AddDate(0, 0, -20)
	msg.PublishedAt = &old

	deleted, err := repo.DeleteOld(ctx, 14)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Zero(t, repo.Len())
}
