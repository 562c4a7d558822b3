package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincatalog "meytle/internal/domain/catalog"
	"meytle/internal/domain/shared/money"
)

type CatalogRepository struct {
	col *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{col: db.Collection("categories")}
}

func (r *CatalogRepository) ByID(ctx context.Context, id domaincatalog.CategoryID) (*domaincatalog.Category, error) {
	var doc categoryDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaincatalog.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *CatalogRepository) ListActive(ctx context.Context) ([]*domaincatalog.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"active": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var categories []*domaincatalog.Category
	for cursor.Next(ctx) {
		var doc categoryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		categories = append(categories, doc.toAggregate())
	}
	return categories, cursor.Err()
}

func (r *CatalogRepository) Save(ctx context.Context, category *domaincatalog.Category) error {
	doc := newCategoryDocument(category)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

type categoryDocument struct {
	ID           string `bson:"_id"`
	Name         string `bson:"name"`
	Description  string `bson:"description,omitempty"`
	RateAmount   int64  `bson:"rate_amount"`
	RateCurrency string `bson:"rate_currency"`
	Active       bool   `bson:"active"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
}

func newCategoryDocument(c *domaincatalog.Category) categoryDocument {
	return categoryDocument{
		ID:           string(c.ID),
		Name:         c.Name,
		Description:  c.Description,
		RateAmount:   c.BaseHourlyRate.Amount,
		RateCurrency: c.BaseHourlyRate.Currency,
		Active:       c.Active,
		CreatedAt:    c.CreatedAt.UnixMilli(),
		UpdatedAt:    c.UpdatedAt.UnixMilli(),
	}
}

func (d categoryDocument) toAggregate() *domaincatalog.Category {
	return &domaincatalog.Category{
		ID:             domaincatalog.CategoryID(d.ID),
		Name:           d.Name,
		Description:    d.Description,
		BaseHourlyRate: money.Money{Amount: d.RateAmount, Currency: d.RateCurrency},
		Active:         d.Active,
		CreatedAt:      timestampToTime(d.CreatedAt),
		UpdatedAt:      timestampToTime(d.UpdatedAt),
	}
}

var _ domaincatalog.Repository = (*CatalogRepository)(nil)
