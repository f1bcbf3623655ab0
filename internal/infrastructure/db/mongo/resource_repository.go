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

type ResourceRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewResourceRepository(db *mongo.Database, timeout time.Duration) *ResourceRepository {
	return &ResourceRepository{coll: db.Collection(collectionResources), timeout: opTimeout(timeout)}
}

// resourceDoc is the stored form of a resource. The storage _id is never read back.
type resourceDoc struct {
	Resource domain.Resource `bson:",inline"`
}

func (r *ResourceRepository) List(ctx context.Context) ([]*domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"_id": 0}).
		SetSort(bson.D{{Key: "type", Value: 1}, {Key: "name", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, storeError("list resources", err)
	}

	var docs []resourceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeError("decode resources", err)
	}

	out := make([]*domain.Resource, 0, len(docs))
	for i := range docs {
		res := docs[i].Resource
		res.CreatedAt = res.CreatedAt.UTC()
		out = append(out, &res)
	}
	return out, nil
}

func (r *ResourceRepository) FindByID(ctx context.Context, id string) (*domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc resourceDoc
	err := r.coll.FindOne(ctx, bson.M{"id": id}, options.FindOne().SetProjection(bson.M{"_id": 0})).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrResourceNotFound
		}
		return nil, storeError("find resource", err)
	}
	res := doc.Resource
	res.CreatedAt = res.CreatedAt.UTC()
	return &res, nil
}

func (r *ResourceRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, storeError("count resources", err)
	}
	return n, nil
}

// InsertMany writes the seed catalogue. A duplicate id means another
// instance seeded first and is reported as ErrConflict.
func (r *ResourceRepository) InsertMany(ctx context.Context, resources []*domain.Resource) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	docs := make([]any, 0, len(resources))
	for _, res := range resources {
		docs = append(docs, resourceDoc{Resource: *res})
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.Conflict("resources already seeded")
		}
		return storeError("insert resources", err)
	}
	return nil
}

func ensureResourceIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(collectionResources).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
