package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sirpyerre/resource-booking/internal/core/domain"
)

// AuditRepository writes reservation lifecycle events to the
// reservation_events collection.
type AuditRepository struct {
	coll *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(collectionEvents)}
}

func (r *AuditRepository) InsertEvent(ctx context.Context, event *domain.AuditEvent) error {
	doc := bson.M{
		"type":       event.Type,
		"userId":     event.UserID,
		"actorId":    event.ActorID,
		"occurredAt": event.OccurredAt.UTC(),
		"recordedAt": time.Now().UTC(),
	}
	if event.ReservationID != "" {
		doc["reservationId"] = event.ReservationID
		doc["resourceId"] = event.ResourceID
		doc["date"] = event.Date
		doc["startTime"] = event.StartTime
		doc["duration"] = event.Duration
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return storeError("insert audit event", err)
	}
	return nil
}

func ensureAuditIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(collectionEvents).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "reservationId", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "occurredAt", Value: -1}}},
	})
	return err
}
