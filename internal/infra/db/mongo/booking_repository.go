package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "meytle/internal/domain/booking"
	domaincatalog "meytle/internal/domain/catalog"
	"meytle/internal/domain/shared/money"
	"meytle/internal/domain/shared/timeofday"
	domainuser "meytle/internal/domain/user"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type BookingRepository struct {
	col   *mongo.Collection
	locks *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{
		col:   db.Collection("agg_booking"),
		locks: db.Collection("booking_locks"),
	}
}

// LockDate bumps a per-companion-day guard document inside the caller's
// transaction. Transactions touching the same day then write the same
// document, so under snapshot isolation at most one commits; the other
// aborts with a write conflict instead of inserting an overlapping booking.
func (r *BookingRepository) LockDate(ctx context.Context, companionID domainuser.ID, date time.Time) error {
	key := fmt.Sprintf("%s:%d", companionID, date.UTC().Truncate(24*time.Hour).UnixMilli())
	_, err := r.locks.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$inc": bson.M{"writes": 1}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

func (r *BookingRepository) ListByClient(ctx context.Context, clientID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"client_id": string(clientID)})
}

func (r *BookingRepository) ListByCompanion(ctx context.Context, companionID domainuser.ID) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{"companion_id": string(companionID)})
}

func (r *BookingRepository) ListActiveOnDate(ctx context.Context, companionID domainuser.ID, date time.Time) ([]*domainbooking.Booking, error) {
	return r.find(ctx, bson.M{
		"companion_id": string(companionID),
		"date":         date.UTC().Truncate(24 * time.Hour).UnixMilli(),
		"status":       bson.M{"$in": []string{string(domainbooking.StatusPending), string(domainbooking.StatusConfirmed)}},
	})
}

func (r *BookingRepository) find(ctx context.Context, filter bson.M) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var bookings []*domainbooking.Booking
	for cursor.Next(ctx) {
		var doc bookingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		bookings = append(bookings, doc.toAggregate())
	}
	return bookings, cursor.Err()
}

type bookingDocument struct {
	ID              string `bson:"_id"`
	ClientID        string `bson:"client_id"`
	CompanionID     string `bson:"companion_id"`
	Date            int64  `bson:"date"`
	StartMinutes    int    `bson:"start_minutes"`
	EndMinutes      int    `bson:"end_minutes"`
	Status          string `bson:"status"`
	TotalAmount     int64  `bson:"total_amount"`
	TotalCurrency   string `bson:"total_currency"`
	CategoryID      string `bson:"category_id,omitempty"`
	CustomService   string `bson:"custom_service,omitempty"`
	SpecialRequests string `bson:"special_requests,omitempty"`
	MeetingLocation string `bson:"meeting_location,omitempty"`
	MeetingType     string `bson:"meeting_type"`
	CreatedAt       int64  `bson:"created_at"`
	UpdatedAt       int64  `bson:"updated_at"`
	Version         int64  `bson:"version"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:              string(b.ID),
		ClientID:        string(b.ClientID),
		CompanionID:     string(b.CompanionID),
		Date:            b.Date.UnixMilli(),
		StartMinutes:    int(b.Start),
		EndMinutes:      int(b.End),
		Status:          string(b.Status),
		TotalAmount:     b.Total.Amount,
		TotalCurrency:   b.Total.Currency,
		CategoryID:      string(b.CategoryID),
		CustomService:   b.CustomService,
		SpecialRequests: b.SpecialRequests,
		MeetingLocation: b.MeetingLocation,
		MeetingType:     string(b.MeetingType),
		CreatedAt:       b.CreatedAt.UnixMilli(),
		UpdatedAt:       b.UpdatedAt.UnixMilli(),
		Version:         b.Version,
	}
}

func (d bookingDocument) toAggregate() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:              domainbooking.BookingID(d.ID),
		ClientID:        domainuser.ID(d.ClientID),
		CompanionID:     domainuser.ID(d.CompanionID),
		Date:            timestampToTime(d.Date),
		Start:           timeofday.Time(d.StartMinutes),
		End:             timeofday.Time(d.EndMinutes),
		Status:          domainbooking.Status(d.Status),
		Total:           money.Money{Amount: d.TotalAmount, Currency: d.TotalCurrency},
		CategoryID:      domaincatalog.CategoryID(d.CategoryID),
		CustomService:   d.CustomService,
		SpecialRequests: d.SpecialRequests,
		MeetingLocation: d.MeetingLocation,
		MeetingType:     domainbooking.MeetingType(d.MeetingType),
		CreatedAt:       timestampToTime(d.CreatedAt),
		UpdatedAt:       timestampToTime(d.UpdatedAt),
		Version:         d.Version,
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
var _ domainbooking.DateLocker = (*BookingRepository)(nil)
