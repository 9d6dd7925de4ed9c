package persistence

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTx records how a transaction ended. Unused pgx.Tx methods panic.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (f *fakeTx) Commit(context.Context) error   { f.committed = true; return nil }
func (f *fakeTx) Rollback(context.Context) error { f.rolledBack = true; return nil }

func TestTxInfoFromContext(t *testing.T) {
	_, ok := TxInfoFromContext(context.Background())
	assert.False(t, ok)

	_, ok = TxInfoFromContext(WithTx(context.Background(), nil, true))
	assert.False(t, ok)

	tx := &fakeTx{}
	info, ok := TxInfoFromContext(WithTx(context.Background(), tx, true))
	require.True(t, ok)
	assert.Same(t, tx, info.Tx)
	assert.True(t, info.Owned)
}

func TestExecutor(t *testing.T) {
	tx := &fakeTx{}
	assert.Same(t, tx, Executor(WithTx(context.Background(), tx, true), nil))
}

func TestPostgresUnitOfWork_JoinsOuterTransaction(t *testing.T) {
	// A nil pool proves Begin never opens a second transaction.
	uow := NewPostgresUnitOfWork(nil)
	tx := &fakeTx{}
	outer := WithTx(context.Background(), tx, true)

	inner, err := uow.Begin(outer)
	require.NoError(t, err)
	info, ok := TxInfoFromContext(inner)
	require.True(t, ok)
	assert.False(t, info.Owned)

	require.NoError(t, uow.Commit(inner))
	require.NoError(t, uow.Rollback(inner))
	assert.False(t, tx.committed)
	assert.False(t, tx.rolledBack)

	require.NoError(t, uow.Commit(outer))
	assert.True(t, tx.committed)
}

func TestPostgresUnitOfWork_Rollback(t *testing.T) {
	tx := &fakeTx{}
	require.NoError(t, NewPostgresUnitOfWork(nil).Rollback(WithTx(context.Background(), tx, true)))
	assert.True(t, tx.rolledBack)
}

func TestPostgresUnitOfWork_WithoutTransaction(t *testing.T) {
	uow := NewPostgresUnitOfWork(nil)
	assert.ErrorIs(t, uow.Commit(context.Background()), ErrNoTransaction)
	assert.ErrorIs(t, uow.Rollback(context.Background()), ErrNoTransaction)
}
