// Package persistence carries database transactions through contexts so that
// repositories called inside a unit of work share its transaction.
package persistence

import (
	"context"
	"errors"
)

// ErrNoTransaction is returned by Commit and Rollback without a Begin.
var ErrNoTransaction = errors.New("no transaction in context")

// finish ends the transaction found in a context. A unit of work that joined
// an outer transaction leaves it to the owner.
func finish(found, owned bool, end func() error) error {
	if !found {
		return ErrNoTransaction
	}
	if !owned {
		return nil
	}
	return end()
}

// NoopUnitOfWork satisfies the unit-of-work contract for stores without
// transactions, such as the in-memory hold and outbox repositories.
type NoopUnitOfWork struct{}

func (NoopUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (NoopUnitOfWork) Commit(context.Context) error                       { return nil }
func (NoopUnitOfWork) Rollback(context.Context) error                     { return nil }
