package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincompanion "meytle/internal/domain/companion"
	domainuser "meytle/internal/domain/user"
)

type CompanionRepository struct {
	col *mongo.Collection
}

func NewCompanionRepository(db *mongo.Database) *CompanionRepository {
	return &CompanionRepository{col: db.Collection("companion_profiles")}
}

func (r *CompanionRepository) ByID(ctx context.Context, id domainuser.ID) (*domaincompanion.Profile, error) {
	var doc companionDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaincompanion.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *CompanionRepository) Save(ctx context.Context, profile *domaincompanion.Profile) error {
	doc := newCompanionDocument(profile)
	filter := bson.M{"_id": doc.ID, "version": profile.Version}
	doc.Version = profile.Version + 1
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	profile.Version = doc.Version
	return nil
}

func (r *CompanionRepository) List(ctx context.Context, onlyBookable bool, limit, offset int) ([]*domaincompanion.Profile, int, error) {
	filter := bson.M{}
	if onlyBookable {
		filter = bson.M{"state": string(domaincompanion.StateApproved), "active": true}
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if offset > 0 {
		opts = opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)
	var profiles []*domaincompanion.Profile
	for cursor.Next(ctx) {
		var doc companionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, err
		}
		profiles = append(profiles, doc.toAggregate())
	}
	return profiles, int(total), cursor.Err()
}

type companionDocument struct {
	ID          string   `bson:"_id"`
	DisplayName string   `bson:"display_name"`
	Bio         string   `bson:"bio,omitempty"`
	City        string   `bson:"city,omitempty"`
	Services    []string `bson:"services,omitempty"`
	Languages   []string `bson:"languages,omitempty"`
	PhotoURL    string   `bson:"photo_url,omitempty"`
	State       string   `bson:"state"`
	Active      bool     `bson:"active"`
	AvgRating   float64  `bson:"avg_rating"`
	ReviewCount int      `bson:"review_count"`
	CreatedAt   int64    `bson:"created_at"`
	UpdatedAt   int64    `bson:"updated_at"`
	Version     int64    `bson:"version"`
}

func newCompanionDocument(p *domaincompanion.Profile) companionDocument {
	return companionDocument{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		City:        p.City,
		Services:    p.Services,
		Languages:   p.Languages,
		PhotoURL:    p.PhotoURL,
		State:       string(p.State),
		Active:      p.Active,
		AvgRating:   p.AvgRating,
		ReviewCount: p.ReviewCount,
		CreatedAt:   p.CreatedAt.UnixMilli(),
		UpdatedAt:   p.UpdatedAt.UnixMilli(),
		Version:     p.Version,
	}
}

func (d companionDocument) toAggregate() *domaincompanion.Profile {
	return &domaincompanion.Profile{
		ID:          domainuser.ID(d.ID),
		DisplayName: d.DisplayName,
		Bio:         d.Bio,
		City:        d.City,
		Services:    d.Services,
		Languages:   d.Languages,
		PhotoURL:    d.PhotoURL,
		State:       domaincompanion.State(d.State),
		Active:      d.Active,
		AvgRating:   d.AvgRating,
		ReviewCount: d.ReviewCount,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}
}

var _ domaincompanion.Repository = (*CompanionRepository)(nil)
