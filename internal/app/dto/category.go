package dto

import (
	"time"

	domaincatalog "meytle/internal/domain/catalog"
)

type Category struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	BaseHourlyRate MoneyDTO  `json:"base_hourly_rate"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

type CategoryCollection struct {
	Items []Category `json:"items"`
}

func MapCategory(category *domaincatalog.Category) Category {
	if category == nil {
		return Category{}
	}
	return Category{
		ID:             string(category.ID),
		Name:           category.Name,
		Description:    category.Description,
		BaseHourlyRate: MapMoney(category.BaseHourlyRate),
		Active:         category.Active,
		CreatedAt:      category.CreatedAt,
	}
}

func MapCategoryCollection(categories []*domaincatalog.Category) CategoryCollection {
	items := make([]Category, 0, len(categories))
	for _, category := range categories {
		items = append(items, MapCategory(category))
	}
	return CategoryCollection{Items: items}
}
