package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "meytle/internal/domain/booking"
	domainreviews "meytle/internal/domain/reviews"
	domainuser "meytle/internal/domain/user"
)

// ReviewRepository relies on a unique index on booking_id so the
// one-review-per-booking rule holds even under concurrent submits.
type ReviewRepository struct {
	col *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{col: db.Collection("reviews")}
}

func (r *ReviewRepository) ByBooking(ctx context.Context, bookingID domainbooking.BookingID) (*domainreviews.Review, error) {
	var doc reviewDocument
	if err := r.col.FindOne(ctx, bson.M{"booking_id": string(bookingID)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreviews.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ReviewRepository) ListByReviewee(ctx context.Context, revieweeID domainuser.ID, limit, offset int) ([]*domainreviews.Review, int, error) {
	filter := bson.M{"reviewee_id": string(revieweeID)}
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
	var reviews []*domainreviews.Review
	for cursor.Next(ctx) {
		var doc reviewDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, err
		}
		reviews = append(reviews, doc.toAggregate())
	}
	return reviews, int(total), cursor.Err()
}

func (r *ReviewRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	doc := newReviewDocument(review)
	_, err := r.col.InsertOne(ctx, doc)
	return err
}

type reviewDocument struct {
	ID         string `bson:"_id"`
	BookingID  string `bson:"booking_id"`
	ReviewerID string `bson:"reviewer_id"`
	RevieweeID string `bson:"reviewee_id"`
	Rating     int    `bson:"rating"`
	Text       string `bson:"text,omitempty"`
	CreatedAt  int64  `bson:"created_at"`
}

func newReviewDocument(r *domainreviews.Review) reviewDocument {
	return reviewDocument{
		ID:         string(r.ID),
		BookingID:  string(r.BookingID),
		ReviewerID: string(r.ReviewerID),
		RevieweeID: string(r.RevieweeID),
		Rating:     r.Rating,
		Text:       r.Text,
		CreatedAt:  r.CreatedAt.UnixMilli(),
	}
}

func (d reviewDocument) toAggregate() *domainreviews.Review {
	return &domainreviews.Review{
		ID:         domainreviews.ReviewID(d.ID),
		BookingID:  domainbooking.BookingID(d.BookingID),
		ReviewerID: domainuser.ID(d.ReviewerID),
		RevieweeID: domainuser.ID(d.RevieweeID),
		Rating:     d.Rating,
		Text:       d.Text,
		CreatedAt:  timestampToTime(d.CreatedAt),
	}
}

var _ domainreviews.Repository = (*ReviewRepository)(nil)
