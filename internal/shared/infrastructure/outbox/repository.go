package outbox

import (
	"context"
	"time"
)

// Writer appends messages. Command handlers call it inside their unit of
// work so events commit with the aggregate.
type Writer interface {
	Save(ctx context.Context, msg *Message) error
	SaveBatch(ctx context.Context, msgs []*Message) error
}

// Queue is the processor's side of the table: read what is due and record
// the outcome of each delivery attempt.
type Queue interface {
	// GetUnpublished returns due messages, oldest first. Messages waiting on
	// a future retry time are skipped.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)
	MarkPublished(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, err string, nextRetryAt time.Time) error
	MarkDead(ctx context.Context, id int64, reason string) error
	// DeleteOld purges published messages past retention and reports how
	// many went.
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}

// Repository is a full outbox store.
type Repository interface {
	Writer
	Queue

	// GetFailed lists messages that failed fewer than maxRetries times.
	GetFailed(ctx context.Context, maxRetries, limit int) ([]*Message, error)
}

var (
	_ Repository = (*InMemoryRepository)(nil)
	_ Repository = (*SQLiteRepository)(nil)
	_ Repository = (*PostgresRepository)(nil)
)
