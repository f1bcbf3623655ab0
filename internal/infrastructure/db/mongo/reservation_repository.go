package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sirpyerre/resource-booking/internal/core/domain"
)

type ReservationRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewReservationRepository(db *mongo.Database, timeout time.Duration) *ReservationRepository {
	return &ReservationRepository{coll: db.Collection(collectionReservations), timeout: opTimeout(timeout)}
}

type reservationDoc struct {
	ID         string    `bson:"id"`
	UserID     string    `bson:"userId"`
	ResourceID string    `bson:"resourceId"`
	Date       string    `bson:"date"`
	StartTime  string    `bson:"startTime"`
	Duration   float64   `bson:"duration"`
	CreatedAt  time.Time `bson:"createdAt"`
}

// reservationDetailDoc is the shape produced by the $lookup + $unwind stages.
type reservationDetailDoc struct {
	Reservation reservationDoc  `bson:",inline"`
	Resource    domain.Resource `bson:"resource"`
}

func toReservationDoc(r *domain.Reservation) reservationDoc {
	return reservationDoc{
		ID:         r.ID,
		UserID:     r.UserID,
		ResourceID: r.ResourceID,
		Date:       r.Date,
		StartTime:  r.StartTime,
		Duration:   r.Duration,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

func (d *reservationDoc) toDomain() *domain.Reservation {
	return &domain.Reservation{
		ID:         d.ID,
		UserID:     d.UserID,
		ResourceID: d.ResourceID,
		Date:       d.Date,
		StartTime:  d.StartTime,
		Duration:   d.Duration,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

// Create inserts a new reservation document.
func (r *ReservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, toReservationDoc(res)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Conflict("reservation already exists")
		}
		return storeError("insert reservation", err)
	}
	return nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id string) (*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc reservationDoc
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReservationNotFound
		}
		return nil, storeError("find reservation", err)
	}
	return doc.toDomain(), nil
}

// FindByResourceAndDate retrieves the reservations competing for one resource on one day.
func (r *ReservationRepository) FindByResourceAndDate(ctx context.Context, resourceID, date string) ([]*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	filter := bson.M{"resourceId": resourceID, "date": date}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}}))
	if err != nil {
		return nil, storeError("find reservations", err)
	}

	var docs []reservationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeError("decode reservations", err)
	}

	out := make([]*domain.Reservation, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// ListByUser joins each of the user's reservations with its resource.
// Dates and start times are zero-padded strings, so lexical order is
// chronological order.
func (r *ReservationRepository) ListByUser(ctx context.Context, userID string) ([]*domain.ReservationDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "userId", Value: userID}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: collectionResources},
			{Key: "localField", Value: "resourceId"},
			{Key: "foreignField", Value: "id"},
			{Key: "as", Value: "resource"},
		}}},
		{{Key: "$unwind", Value: "$resource"}},
		{{Key: "$sort", Value: bson.D{{Key: "date", Value: 1}, {Key: "startTime", Value: 1}}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, storeError("aggregate reservations", err)
	}

	var docs []reservationDetailDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeError("decode reservations", err)
	}

	out := make([]*domain.ReservationDetail, 0, len(docs))
	for i := range docs {
		res := docs[i].Resource
		res.CreatedAt = res.CreatedAt.UTC()
		out = append(out, &domain.ReservationDetail{
			Reservation: *docs[i].Reservation.toDomain(),
			Resource:    res,
		})
	}
	return out, nil
}

func (r *ReservationRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return storeError("delete reservation", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"userId": userID})
	if err != nil {
		return 0, storeError("delete user reservations", err)
	}
	return res.DeletedCount, nil
}

func ensureReservationIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(collectionReservations).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "resourceId", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}, {Key: "startTime", Value: 1}}},
	})
	return err
}
