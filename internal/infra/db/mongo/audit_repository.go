package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainaudit "meytle/internal/domain/audit"
	domainuser "meytle/internal/domain/user"
)

type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection("audit_log")}
}

func (r *AuditRepository) Append(ctx context.Context, record domainaudit.Record) error {
	_, err := r.col.InsertOne(ctx, newAuditDocument(record))
	return err
}

func (r *AuditRepository) ListBySubject(ctx context.Context, subjectID domainuser.ID, limit int) ([]domainaudit.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := r.col.Find(ctx, bson.M{"subject_id": string(subjectID)}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var records []domainaudit.Record
	for cursor.Next(ctx) {
		var doc auditDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		records = append(records, doc.toRecord())
	}
	return records, cursor.Err()
}

type auditDocument struct {
	ID          string `bson:"_id"`
	Kind        string `bson:"kind"`
	ActorID     string `bson:"actor_id"`
	SubjectID   string `bson:"subject_id"`
	Origin      string `bson:"origin,omitempty"`
	OldSnapshot []byte `bson:"old_snapshot,omitempty"`
	NewSnapshot []byte `bson:"new_snapshot,omitempty"`
	CreatedAt   int64  `bson:"created_at"`
}

func newAuditDocument(r domainaudit.Record) auditDocument {
	return auditDocument{
		ID:          r.ID,
		Kind:        string(r.Kind),
		ActorID:     string(r.ActorID),
		SubjectID:   string(r.SubjectID),
		Origin:      r.Origin,
		OldSnapshot: r.OldSnapshot,
		NewSnapshot: r.NewSnapshot,
		CreatedAt:   r.CreatedAt.UnixMilli(),
	}
}

func (d auditDocument) toRecord() domainaudit.Record {
	return domainaudit.Record{
		ID:          d.ID,
		Kind:        domainaudit.Kind(d.Kind),
		ActorID:     domainuser.ID(d.ActorID),
		SubjectID:   domainuser.ID(d.SubjectID),
		Origin:      d.Origin,
		OldSnapshot: d.OldSnapshot,
		NewSnapshot: d.NewSnapshot,
		CreatedAt:   timestampToTime(d.CreatedAt),
	}
}

var _ domainaudit.Repository = (*AuditRepository)(nil)
