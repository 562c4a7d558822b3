package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"meytle/internal/app/commands"
	"meytle/internal/app/dto"
	handlersupport "meytle/internal/app/handlers/support"
	"meytle/internal/app/queries"
	"meytle/internal/app/uow"
	domaincatalog "meytle/internal/domain/catalog"
	"meytle/internal/domain/shared/money"
)

const (
	createCategoryKey     = "catalog.category.create"
	deactivateCategoryKey = "catalog.category.deactivate"
	listCategoriesKey     = "catalog.category.list"
)

var ErrUnitOfWorkRequired = errors.New("catalog: unit of work required")

// CreateCategoryCommand adds a bookable service category. Admin only.
type CreateCategoryCommand struct {
	Name                string
	Description         string
	BaseHourlyRateCents int64
	Currency            string
}

func (c CreateCategoryCommand) Key() string { return createCategoryKey }

type CreateCategoryHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *CreateCategoryHandler) Handle(ctx context.Context, cmd CreateCategoryCommand) (dto.Category, error) {
	rate, err := money.New(cmd.BaseHourlyRateCents, cmd.Currency)
	if err != nil {
		return dto.Category{}, err
	}
	category, err := domaincatalog.NewCategory(domaincatalog.CreateParams{
		ID:             domaincatalog.CategoryID(uuid.NewString()),
		Name:           cmd.Name,
		Description:    cmd.Description,
		BaseHourlyRate: rate,
		Now:            time.Now(),
	})
	if err != nil {
		return dto.Category{}, err
	}
	if err := h.save(ctx, category); err != nil {
		return dto.Category{}, err
	}
	return dto.MapCategory(category), nil
}

// DeactivateCategoryCommand retires a category from new bookings.
type DeactivateCategoryCommand struct {
	CategoryID string
}

func (c DeactivateCategoryCommand) Key() string { return deactivateCategoryKey }

func (h *CreateCategoryHandler) HandleDeactivate(ctx context.Context, cmd DeactivateCategoryCommand) (dto.Category, error) {
	unit, commit, rollback, err := h.begin(ctx)
	if err != nil {
		return dto.Category{}, err
	}
	defer rollback()

	category, err := unit.Catalog().ByID(ctx, domaincatalog.CategoryID(cmd.CategoryID))
	if err != nil {
		return dto.Category{}, err
	}
	category.Deactivate(time.Now())
	if err := unit.Catalog().Save(ctx, category); err != nil {
		return dto.Category{}, err
	}
	if err := commit(); err != nil {
		return dto.Category{}, err
	}
	return dto.MapCategory(category), nil
}

func (h *CreateCategoryHandler) save(ctx context.Context, category *domaincatalog.Category) error {
	unit, commit, rollback, err := h.begin(ctx)
	if err != nil {
		return err
	}
	defer rollback()
	if err := unit.Catalog().Save(ctx, category); err != nil {
		return err
	}
	return commit()
}

// begin reuses an ambient unit of work or starts a managed one. The returned
// rollback is a no-op after commit succeeds.
func (h *CreateCategoryHandler) begin(ctx context.Context) (uow.UnitOfWork, func() error, func(), error) {
	if unit, ok := uow.FromContext(ctx); ok {
		return unit, func() error { return nil }, func() {}, nil
	}
	if h.UoWFactory == nil {
		return nil, nil, nil, ErrUnitOfWorkRequired
	}
	unit, err := h.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, nil, nil, err
	}
	committed := false
	commit := func() error {
		if err := unit.Commit(ctx); err != nil {
			return err
		}
		committed = true
		return nil
	}
	rollback := func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}
	return unit, commit, rollback, nil
}

// ListCategoriesQuery returns active categories for pickers.
type ListCategoriesQuery struct{}

func (q ListCategoriesQuery) Key() string { return listCategoriesKey }

type ListCategoriesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListCategoriesHandler) Handle(ctx context.Context, _ ListCategoriesQuery) (dto.CategoryCollection, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.CategoryCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	categories, err := unit.Catalog().ListActive(execCtx)
	if err != nil {
		return dto.CategoryCollection{}, err
	}
	return dto.MapCategoryCollection(categories), nil
}

var _ commands.Handler[CreateCategoryCommand, dto.Category] = (*CreateCategoryHandler)(nil)
var _ queries.Handler[ListCategoriesQuery, dto.CategoryCollection] = (*ListCategoriesHandler)(nil)
