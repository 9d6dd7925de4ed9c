package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE holds (id TEXT PRIMARY KEY, slot TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func countHolds(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM holds`).Scan(&n))
	return n
}

func insertHold(ctx context.Context, db *sql.DB, id string) error {
	_, err := SQLiteExecutorFor(ctx, db).ExecContext(ctx, `INSERT INTO holds (id, slot) VALUES (?, ?)`, id, "pro-1|2024-06-10|09:00")
	return err
}

func TestSQLiteUnitOfWork_Finish(t *testing.T) {
	tests := []struct {
		name string
		end  func(u *SQLiteUnitOfWork, ctx context.Context) error
		want int
	}{
		{"commit keeps writes", (*SQLiteUnitOfWork).Commit, 1},
		{"rollback discards writes", (*SQLiteUnitOfWork).Rollback, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t)
			uow := NewSQLiteUnitOfWork(db)

			txCtx, err := uow.Begin(context.Background())
			require.NoError(t, err)
			info, ok := SQLiteTxInfoFromContext(txCtx)
			require.True(t, ok)
			assert.True(t, info.Owned)

			require.NoError(t, insertHold(txCtx, db, "res-1"))
			require.NoError(t, tt.end(uow, txCtx))
			assert.Equal(t, tt.want, countHolds(t, db))
		})
	}
}

func TestSQLiteUnitOfWork_NestedBeginJoins(t *testing.T) {
	db := openTestDB(t)
	uow := NewSQLiteUnitOfWork(db)

	outer, err := uow.Begin(context.Background())
	require.NoError(t, err)
	inner, err := uow.Begin(outer)
	require.NoError(t, err)

	outerInfo, _ := SQLiteTxInfoFromContext(outer)
	innerInfo, ok := SQLiteTxInfoFromContext(inner)
	require.True(t, ok)
	assert.Same(t, outerInfo.Tx, innerInfo.Tx)
	assert.False(t, innerInfo.Owned)

	require.NoError(t, insertHold(inner, db, "res-1"))

	// The joined unit neither commits nor rolls back.
	require.NoError(t, uow.Rollback(inner))
	require.NoError(t, uow.Commit(outer))
	assert.Equal(t, 1, countHolds(t, db))
}

func TestSQLiteUnitOfWork_WithoutTransaction(t *testing.T) {
	uow := NewSQLiteUnitOfWork(openTestDB(t))

	assert.ErrorIs(t, uow.Commit(context.Background()), ErrNoTransaction)
	assert.ErrorIs(t, uow.Rollback(context.Background()), ErrNoTransaction)
}

func TestSQLiteTxInfoFromContext(t *testing.T) {
	_, ok := SQLiteTxInfoFromContext(context.Background())
	assert.False(t, ok)

	_, ok = SQLiteTxInfoFromContext(WithSQLiteTx(context.Background(), nil, true))
	assert.False(t, ok, "a nil transaction is not a transaction")
}

func TestSQLiteExecutorFor(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	assert.Equal(t, SQLiteExecutor(db), SQLiteExecutorFor(ctx, db))

	txCtx, err := NewSQLiteUnitOfWork(db).Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = NewSQLiteUnitOfWork(db).Rollback(txCtx) }()

	info, _ := SQLiteTxInfoFromContext(txCtx)
	assert.Equal(t, SQLiteExecutor(info.Tx), SQLiteExecutorFor(txCtx, db))
}

func TestNoopUnitOfWork(t *testing.T) {
	ctx := context.Background()
	var uow NoopUnitOfWork

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	assert.Equal(t, ctx, txCtx)
	assert.NoError(t, uow.Commit(txCtx))
	assert.NoError(t, uow.Rollback(txCtx))
}
