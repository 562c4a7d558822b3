package memory

import (
	"context"
	"errors"
	"sync"

	"meytle/internal/app/uow"
	domainaudit "meytle/internal/domain/audit"
	domainavailability "meytle/internal/domain/availability"
	domainbooking "meytle/internal/domain/booking"
	domaincatalog "meytle/internal/domain/catalog"
	domaincompanion "meytle/internal/domain/companion"
	domainreviews "meytle/internal/domain/reviews"
	domainuser "meytle/internal/domain/user"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	AvailabilityRepo domainavailability.Repository
	BookingRepo      domainbooking.Repository
	CompanionRepo    domaincompanion.Repository
	CatalogRepo      domaincatalog.Repository
	ReviewsRepo      domainreviews.Repository
	UsersRepo        domainuser.Repository
	AuditRepo        domainaudit.Repository

	// writers serializes mutating units so a read done inside one unit
	// (a booking conflict check, say) stays valid until its commit.
	writers sync.Mutex
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a transaction boundary. Read-only units run concurrently;
// writer units hold an exclusive lock until Commit or Rollback.
func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.AvailabilityRepo == nil || f.BookingRepo == nil || f.CompanionRepo == nil ||
		f.CatalogRepo == nil || f.ReviewsRepo == nil || f.UsersRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	unit := &Unit{
		availability: f.AvailabilityRepo,
		booking:      f.BookingRepo,
		companions:   f.CompanionRepo,
		catalog:      f.CatalogRepo,
		reviews:      f.ReviewsRepo,
		users:        f.UsersRepo,
		audit:        f.AuditRepo,
	}
	if !opts.ReadOnly {
		f.writers.Lock()
		unit.release = f.writers.Unlock
	}
	return unit, nil
}

// Unit is a uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	availability domainavailability.Repository
	booking      domainbooking.Repository
	companions   domaincompanion.Repository
	catalog      domaincatalog.Repository
	reviews      domainreviews.Repository
	users        domainuser.Repository
	audit        domainaudit.Repository

	mu      sync.Mutex
	release func()
}

func (u *Unit) Availability() domainavailability.Repository { return u.availability }

func (u *Unit) Booking() domainbooking.Repository { return u.booking }

func (u *Unit) Companions() domaincompanion.Repository { return u.companions }

func (u *Unit) Catalog() domaincatalog.Repository { return u.catalog }

func (u *Unit) Reviews() domainreviews.Repository { return u.reviews }

func (u *Unit) Users() domainuser.Repository { return u.users }

func (u *Unit) Audit() domainaudit.Repository { return u.audit }

func (u *Unit) Commit(ctx context.Context) error {
	u.done()
	return nil
}

// Rollback releases the unit. Writes already applied to the shared stores are
// not undone; command handlers fail before their first write or not at all.
func (u *Unit) Rollback(ctx context.Context) error {
	u.done()
	return nil
}

func (u *Unit) done() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.release != nil {
		u.release()
		u.release = nil
	}
}

var _ uow.UoWFactory = (*Factory)(nil)
var _ uow.UnitOfWork = (*Unit)(nil)
