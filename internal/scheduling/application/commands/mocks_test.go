package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/careslot/internal/scheduling/domain"
	"github.com/felixgeelhaar/careslot/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// mockBlockRepo is a mock implementation of domain.Repository.
type mockBlockRepo struct {
	mock.Mock
}

func (m *mockBlockRepo) Save(ctx context.Context, block *domain.ScheduleBlock) error {
	args := m.Called(ctx, block)
	return args.Error(0)
}

func (m *mockBlockRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.ScheduleBlock, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleBlock), args.Error(1)
}

func (m *mockBlockRepo) FindByProfessional(ctx context.Context, professionalID string, filter domain.BlockFilter) ([]*domain.ScheduleBlock, error) {
	args := m.Called(ctx, professionalID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduleBlock), args.Error(1)
}

func (m *mockBlockRepo) FindPendingEndingBefore(ctx context.Context, date time.Time) ([]*domain.ScheduleBlock, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduleBlock), args.Error(1)
}

func (m *mockBlockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// mockOutboxRepo records outbox writes.
type mockOutboxRepo struct {
	mock.Mock
}

func (m *mockOutboxRepo) Save(ctx context.Context, msg *outbox.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *mockOutboxRepo) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

// mockUnitOfWork is a mock implementation of UnitOfWork.
type mockUnitOfWork struct {
	mock.Mock
}

func (m *mockUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	args := m.Called(ctx)
	return args.Get(0).(context.Context), args.Error(1)
}

func (m *mockUnitOfWork) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockUnitOfWork) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func expectCommit(uow *mockUnitOfWork, ctx context.Context) {
	uow.On("Begin", ctx).Return(ctx, nil)
	uow.On("Commit", ctx).Return(nil)
}

func expectRollback(uow *mockUnitOfWork, ctx context.Context) {
	uow.On("Begin", ctx).Return(ctx, nil)
	uow.On("Rollback", ctx).Return(nil)
}
