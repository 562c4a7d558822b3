package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"meytle/internal/domain/shared/money"
)

var (
	ErrIDRequired   = errors.New("catalog: category id is required")
	ErrNameRequired = errors.New("catalog: category name is required")
	ErrInvalidRate  = errors.New("catalog: base hourly rate must be positive")
	ErrNotFound     = errors.New("catalog: category not found")
)

type CategoryID string

// Category is a bookable service type with a platform-set base hourly price.
type Category struct {
	ID             CategoryID
	Name           string
	Description    string
	BaseHourlyRate money.Money
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Repository interface {
	ByID(ctx context.Context, id CategoryID) (*Category, error)
	ListActive(ctx context.Context) ([]*Category, error)
	Save(ctx context.Context, category *Category) error
}

type CreateParams struct {
	ID             CategoryID
	Name           string
	Description    string
	BaseHourlyRate money.Money
	Now            time.Time
}

func NewCategory(params CreateParams) (*Category, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if params.BaseHourlyRate.Amount <= 0 || params.BaseHourlyRate.Currency == "" {
		return nil, ErrInvalidRate
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &Category{
		ID:             params.ID,
		Name:           name,
		Description:    strings.TrimSpace(params.Description),
		BaseHourlyRate: params.BaseHourlyRate,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Deactivate soft-deletes the category; existing bookings keep their price.
func (c *Category) Deactivate(now time.Time) {
	c.Active = false
	c.touch(now)
}

func (c *Category) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	c.UpdatedAt = now.UTC()
}
