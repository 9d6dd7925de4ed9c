package persistence_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/felixgeelhaar/careslot/internal/scheduling/infrastructure/persistence"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/migrations"
	sharedPersistence "github.com/felixgeelhaar/careslot/internal/shared/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func setupSQLite(t *testing.T) (*persistence.SQLiteScheduleBlockRepository, *sql.DB) {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.RunSQLiteMigrations(ctx, db))
	return persistence.NewSQLiteScheduleBlockRepository(db), db
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func newBlock(t *testing.T, professionalID string, start, end string) *domain.ScheduleBlock {
	t.Helper()
	var period domain.Period
	if start == end {
		period = domain.SingleDay(date(t, start))
	} else {
		var err error
		period, err = domain.DateRange(date(t, start), date(t, end))
		require.NoError(t, err)
	}
	b, err := domain.NewScheduleBlock(professionalID, period, "conference", testNow)
	require.NoError(t, err)
	return b
}

func TestSQLiteScheduleBlockRepository_SaveAndFindByID(t *testing.T) {
	repo, _ := setupSQLite(t)
	ctx := context.Background()

	block := newBlock(t, "pro-1", "2024-06-10", "2024-06-12")
	require.NoError(t, repo.Save(ctx, block))
	assert.Equal(t, 1, block.Version())

	found, err := repo.FindByID(ctx, block.ID())
	require.NoError(t, err)
	assert.Equal(t, block.ID(), found.ID())
	assert.Equal(t, "pro-1", found.ProfessionalID())
	assert.True(t, block.Period().Equal(found.Period()))
	assert.Equal(t, domain.StatusPending, found.Status())
	assert.Equal(t, "conference", found.Reason())
	assert.Equal(t, testNow, found.CreatedAt())
	assert.Equal(t, 1, found.Version())
	assert.Nil(t, found.ApprovedAt())
}

func TestSQLiteScheduleBlockRepository_SingleDayRoundTrip(t *testing.T) {
	repo, _ := setupSQLite(t)
	ctx := context.Background()

	block := newBlock(t, "pro-1", "2024-06-11", "2024-06-11")
	require.NoError(t, repo.Save(ctx, block))

	found, err := repo.FindByID(ctx, block.ID())
	require.NoError(t, err)
	d, ok := found.Period().Date()
	require.True(t, ok)
	assert.Equal(t, "2024-06-11", domain.FormatDate(d))
}

func TestSQLiteScheduleBlockRepository_UpdateWithVersionGuard(t *testing.T) {
	repo, _ := setupSQLite(t)
	ctx := context.Background()

	block := newBlock(t, "pro-1", "2024-06-10", "2024-06-12")
	require.NoError(t, repo.Save(ctx, block))

	stale, err := repo.FindByID(ctx, block.ID())
	require.NoError(t, err)

	approvedAt := testNow.Add(time.Hour)
	require.NoError(t, block.Approve("admin-1", "Dr. Admin", approvedAt))
	require.NoError(t, repo.Save(ctx, block))
	assert.Equal(t, 2, block.Version())

	found, err := repo.FindByID(ctx, block.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, found.Status())
	assert.Equal(t, "Dr. Admin", found.ApproverName())
	require.NotNil(t, found.ApprovedAt())
	assert.Equal(t, approvedAt, *found.ApprovedAt())

	require.NoError(t, stale.Reject("admin-2", "", "late", testNow))
	assert.ErrorIs(t, repo.Save(ctx, stale), domain.ErrStaleBlock)
}

func TestSQLiteScheduleBlockRepository_FindByIDNotFound(t *testing.T) {
	repo, _ := setupSQLite(t)
	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrBlockNotFound)
}

func TestSQLiteScheduleBlockRepository_FindByProfessional(t *testing.T) {
	repo, _ := setupSQLite(t)
	ctx := context.Background()

	june := newBlock(t, "pro-1", "2024-06-10", "2024-06-12")
	july := newBlock(t, "pro-1", "2024-07-01", "2024-07-03")
	rejected := newBlock(t, "pro-1", "2024-06-20", "2024-06-20")
	require.NoError(t, rejected.Reject("admin-1", "", "", testNow))
	other := newBlock(t, "pro-2", "2024-06-10", "2024-06-10")
	for _, b := range []*domain.ScheduleBlock{july, june, rejected, other} {
		require.NoError(t, repo.Save(ctx, b))
	}

	all, err := repo.FindByProfessional(ctx, "pro-1", domain.BlockFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, june.ID(), all[0].ID())
	assert.Equal(t, july.ID(), all[2].ID())

	active, err := repo.FindByProfessional(ctx, "pro-1", domain.BlockFilter{ActiveOnly: true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	byStatus, err := repo.FindByProfessional(ctx, "pro-1", domain.BlockFilter{Status: domain.StatusRejected})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, rejected.ID(), byStatus[0].ID())

	window, err := repo.FindByProfessional(ctx, "pro-1", domain.BlockFilter{
		From: date(t, "2024-06-12"),
		To:   date(t, "2024-06-30"),
	})
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, june.ID(), window[0].ID())
	assert.Equal(t, rejected.ID(), window[1].ID())
}

func TestSQLiteScheduleBlockRepository_FindPendingEndingBefore(t *testing.T) {
	repo, _ := setupSQLite(t)
	ctx := context.Background()

	past := newBlock(t, "pro-1", "2024-05-01", "2024-05-03")
	endsToday := newBlock(t, "pro-1", "2024-05-30", "2024-06-01")
	approvedPast := newBlock(t, "pro-2", "2024-05-10", "2024-05-10")
	require.NoError(t, approvedPast.Approve("admin-1", "", testNow))
	for _, b := range []*domain.ScheduleBlock{past, endsToday, approvedPast} {
		require.NoError(t, repo.Save(ctx, b))
	}

	stale, err := repo.FindPendingEndingBefore(ctx, date(t, "2024-06-01"))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, past.ID(), stale[0].ID())
}

func TestSQLiteScheduleBlockRepository_Delete(t *testing.T) {
	repo, _ := setupSQLite(t)
	ctx := context.Background()

	block := newBlock(t, "pro-1", "2024-06-10", "2024-06-10")
	require.NoError(t, repo.Save(ctx, block))
	require.NoError(t, repo.Delete(ctx, block.ID()))

	_, err := repo.FindByID(ctx, block.ID())
	assert.ErrorIs(t, err, domain.ErrBlockNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, block.ID()), domain.ErrBlockNotFound)
}

func TestSQLiteScheduleBlockRepository_RollbackDiscardsSave(t *testing.T) {
	repo, db := setupSQLite(t)
	ctx := context.Background()
	uow := sharedPersistence.NewSQLiteUnitOfWork(db)

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	block := newBlock(t, "pro-1", "2024-06-10", "2024-06-10")
	require.NoError(t, repo.Save(txCtx, block))
	require.NoError(t, uow.Rollback(txCtx))

	_, err = repo.FindByID(ctx, block.ID())
	assert.ErrorIs(t, err, domain.ErrBlockNotFound)
}
