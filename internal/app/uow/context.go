package uow

import (
	"context"
	"errors"
)

// ErrUnitOfWorkMissing is returned by handlers that require a transaction
// boundary but find none bound to the request context.
var ErrUnitOfWorkMissing = errors.New("uow: no unit of work bound to context")

type unitKey struct{}

// ContextWithUnitOfWork binds a unit of work to the context so nested
// handlers join the same transaction.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, unitKey{}, unit)
}

// FromContext returns the bound unit of work, if any.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(unitKey{}).(UnitOfWork)
	return unit, ok
}
