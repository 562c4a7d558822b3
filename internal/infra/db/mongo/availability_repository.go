package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainavailability "meytle/internal/domain/availability"
	"meytle/internal/domain/shared/timeofday"
	domainuser "meytle/internal/domain/user"
)

// AvailabilityRepository stores a companion's whole weekly schedule as one
// document, so ReplaceWeekly is a single atomic upsert.
type AvailabilityRepository struct {
	col *mongo.Collection
}

func NewAvailabilityRepository(db *mongo.Database) *AvailabilityRepository {
	return &AvailabilityRepository{col: db.Collection("weekly_availability")}
}

func (r *AvailabilityRepository) WeeklyByCompanion(ctx context.Context, companionID domainuser.ID) ([]domainavailability.WeeklySlot, error) {
	var doc scheduleDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(companionID)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	slots := make([]domainavailability.WeeklySlot, 0, len(doc.Slots))
	for _, slot := range doc.Slots {
		slots = append(slots, slot.toDomain(companionID))
	}
	return slots, nil
}

func (r *AvailabilityRepository) ReplaceWeekly(ctx context.Context, companionID domainuser.ID, slots []domainavailability.WeeklySlot) error {
	doc := scheduleDocument{ID: string(companionID), Slots: make([]slotDocument, 0, len(slots))}
	for _, slot := range slots {
		doc.Slots = append(doc.Slots, newSlotDocument(slot))
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

type scheduleDocument struct {
	ID    string         `bson:"_id"`
	Slots []slotDocument `bson:"slots"`
}

type slotDocument struct {
	Day          string   `bson:"day"`
	StartMinutes int      `bson:"start_minutes"`
	EndMinutes   int      `bson:"end_minutes"`
	Active       bool     `bson:"active"`
	Services     []string `bson:"services,omitempty"`
}

func newSlotDocument(slot domainavailability.WeeklySlot) slotDocument {
	return slotDocument{
		Day:          string(slot.Day),
		StartMinutes: int(slot.Start),
		EndMinutes:   int(slot.End),
		Active:       slot.Active,
		Services:     slot.Services,
	}
}

func (d slotDocument) toDomain(companionID domainuser.ID) domainavailability.WeeklySlot {
	return domainavailability.WeeklySlot{
		CompanionID: companionID,
		Day:         domainavailability.Day(d.Day),
		Start:       timeofday.Time(d.StartMinutes),
		End:         timeofday.Time(d.EndMinutes),
		Active:      d.Active,
		Services:    d.Services,
	}
}

var _ domainavailability.Repository = (*AvailabilityRepository)(nil)
