package uow

import (
	"context"

	domainaudit "meytle/internal/domain/audit"
	domainavailability "meytle/internal/domain/availability"
	domainbooking "meytle/internal/domain/booking"
	domaincatalog "meytle/internal/domain/catalog"
	domaincompanion "meytle/internal/domain/companion"
	domainreviews "meytle/internal/domain/reviews"
	domainuser "meytle/internal/domain/user"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Availability() domainavailability.Repository
	Booking() domainbooking.Repository
	Companions() domaincompanion.Repository
	Catalog() domaincatalog.Repository
	Reviews() domainreviews.Repository
	Users() domainuser.Repository
	Audit() domainaudit.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// ContextInjector is implemented by storage units that thread their own
// session state through the context handed to handlers. The Mongo unit uses
// it to propagate its session so repository calls join the transaction.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}

// InjectUnitContext applies the unit's injector when it has one and binds
// the unit to the returned context.
func InjectUnitContext(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(ContextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
