package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type txKey struct{}

// recordingUoW logs the calls it sees and fails where told to.
type recordingUoW struct {
	calls       []string
	beginErr    error
	commitErr   error
	rollbackErr error
	seen        context.Context
}

func (u *recordingUoW) Begin(ctx context.Context) (context.Context, error) {
	u.calls = append(u.calls, "begin")
	if u.beginErr != nil {
		return ctx, u.beginErr
	}
	return context.WithValue(ctx, txKey{}, "tx"), nil
}

func (u *recordingUoW) Commit(ctx context.Context) error {
	u.calls = append(u.calls, "commit")
	u.seen = ctx
	return u.commitErr
}

func (u *recordingUoW) Rollback(ctx context.Context) error {
	u.calls = append(u.calls, "rollback")
	u.seen = ctx
	return u.rollbackErr
}

func TestWithUnitOfWork(t *testing.T) {
	errFn := errors.New("slot overlaps")

	tests := []struct {
		name      string
		uow       *recordingUoW
		fnErr     error
		wantCalls []string
		wantErr   error
		wantRan   bool
	}{
		{
			name:      "commits on success",
			uow:       &recordingUoW{},
			wantCalls: []string{"begin", "commit"},
			wantRan:   true,
		},
		{
			name:      "rolls back on failure",
			uow:       &recordingUoW{},
			fnErr:     errFn,
			wantCalls: []string{"begin", "rollback"},
			wantErr:   errFn,
			wantRan:   true,
		},
		{
			name:      "function error wins over rollback error",
			uow:       &recordingUoW{rollbackErr: errors.New("conn reset")},
			fnErr:     errFn,
			wantCalls: []string{"begin", "rollback"},
			wantErr:   errFn,
			wantRan:   true,
		},
		{
			name:      "begin failure skips the function",
			uow:       &recordingUoW{beginErr: errors.New("pool exhausted")},
			wantCalls: []string{"begin"},
			wantErr:   errors.New("pool exhausted"),
		},
		{
			name:      "commit failure is returned",
			uow:       &recordingUoW{commitErr: errors.New("serialization failure")},
			wantCalls: []string{"begin", "commit"},
			wantErr:   errors.New("serialization failure"),
			wantRan:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran := false
			err := WithUnitOfWork(context.Background(), tt.uow, func(ctx context.Context) error {
				ran = true
				assert.Equal(t, "tx", ctx.Value(txKey{}), "function runs in the transaction context")
				return tt.fnErr
			})

			assert.Equal(t, tt.wantRan, ran)
			assert.Equal(t, tt.wantCalls, tt.uow.calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr.Error())
			if tt.wantRan {
				assert.Equal(t, "tx", tt.uow.seen.Value(txKey{}))
			}
		})
	}
}

func TestWithUnitOfWork_FunctionErrorIsUnwrapped(t *testing.T) {
	errFn := errors.New("block not pending")
	err := WithUnitOfWork(context.Background(), &recordingUoW{}, func(context.Context) error { return errFn })
	assert.Same(t, errFn, err)
}

func TestWithUnitOfWork_CommitErrorIsWrapped(t *testing.T) {
	errCommit := errors.New("disk full")
	err := WithUnitOfWork(context.Background(), &recordingUoW{commitErr: errCommit}, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, errCommit)
	assert.EqualError(t, err, "commit: disk full")
}

func TestWithUnitOfWork_RollsBackOnPanic(t *testing.T) {
	uow := &recordingUoW{}

	assert.PanicsWithValue(t, "boom", func() {
		_ = WithUnitOfWork(context.Background(), uow, func(context.Context) error {
			panic("boom")
		})
	})
	assert.Equal(t, []string{"begin", "rollback"}, uow.calls)
}

func TestWithUnitOfWorkResult(t *testing.T) {
	t.Run("returns the value after commit", func(t *testing.T) {
		uow := &recordingUoW{}
		got, err := WithUnitOfWorkResult(context.Background(), uow, func(context.Context) (string, error) {
			return "block-1", nil
		})

		require.NoError(t, err)
		assert.Equal(t, "block-1", got)
		assert.Equal(t, []string{"begin", "commit"}, uow.calls)
	})

	t.Run("drops the value when commit fails", func(t *testing.T) {
		uow := &recordingUoW{commitErr: errors.New("commit error")}
		got, err := WithUnitOfWorkResult(context.Background(), uow, func(context.Context) (string, error) {
			return "block-1", nil
		})

		assert.Error(t, err)
		assert.Empty(t, got)
	})

	t.Run("drops the value when the function fails", func(t *testing.T) {
		uow := &recordingUoW{}
		got, err := WithUnitOfWorkResult(context.Background(), uow, func(context.Context) (int, error) {
			return 7, errors.New("conflict")
		})

		assert.Error(t, err)
		assert.Zero(t, got)
		assert.Equal(t, []string{"begin", "rollback"}, uow.calls)
	})
}
