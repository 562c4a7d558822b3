package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"meytle/internal/app/uow"
	domainaudit "meytle/internal/domain/audit"
	domainavailability "meytle/internal/domain/availability"
	domainbooking "meytle/internal/domain/booking"
	domaincatalog "meytle/internal/domain/catalog"
	domaincompanion "meytle/internal/domain/companion"
	domainreviews "meytle/internal/domain/reviews"
	domainuser "meytle/internal/domain/user"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	AvailabilityRepo domainavailability.Repository
	BookingRepo      domainbooking.Repository
	CompanionRepo    domaincompanion.Repository
	CatalogRepo      domaincatalog.Repository
	ReviewsRepo      domainreviews.Repository
	UsersRepo        domainuser.Repository
	AuditRepo        domainaudit.Repository
}

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	// Read-only units run outside a transaction; Commit and Rollback just
	// close the session.
	if !opts.ReadOnly {
		txnOpts := options.Transaction().
			SetReadConcern(f.DB.ReadConcern()).
			SetWriteConcern(f.DB.WriteConcern())
		if err := session.StartTransaction(txnOpts); err != nil {
			session.EndSession(ctx)
			return nil, err
		}
	}
	return &Unit{
		db:           f.DB,
		session:      session,
		readOnly:     opts.ReadOnly,
		availability: f.AvailabilityRepo,
		booking:      f.BookingRepo,
		companions:   f.CompanionRepo,
		catalog:      f.CatalogRepo,
		reviews:      f.ReviewsRepo,
		users:        f.UsersRepo,
		audit:        f.AuditRepo,
	}, nil
}

type Unit struct {
	db       *mongo.Database
	session  mongo.Session
	readOnly bool

	availability domainavailability.Repository
	booking      domainbooking.Repository
	companions   domaincompanion.Repository
	catalog      domaincatalog.Repository
	reviews      domainreviews.Repository
	users        domainuser.Repository
	audit        domainaudit.Repository
}

func (u *Unit) Availability() domainavailability.Repository { return u.availability }
func (u *Unit) Booking() domainbooking.Repository           { return u.booking }
func (u *Unit) Companions() domaincompanion.Repository      { return u.companions }
func (u *Unit) Catalog() domaincatalog.Repository           { return u.catalog }
func (u *Unit) Reviews() domainreviews.Repository           { return u.reviews }
func (u *Unit) Users() domainuser.Repository                { return u.users }
func (u *Unit) Audit() domainaudit.Repository               { return u.audit }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return u.session.AbortTransaction(ctx)
}

// InjectContext makes the Mongo session available to downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
var _ uow.UnitOfWork = (*Unit)(nil)
