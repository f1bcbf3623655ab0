package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const lockPollInterval = 20 * time.Millisecond

// bookingLock is an advisory lock document. The unique _id is the lock key,
// so at most one holder exists per key; expires_at lets a crashed holder be
// replaced and feeds the TTL index that garbage-collects old locks.
type bookingLock struct {
	ID        string    `bson:"_id"`
	Token     string    `bson:"token"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}

// lockCollection is the part of *mongo.Collection the locker uses.
type lockCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// BookingLocker implements ports.BookingLocker on the booking_locks collection.
type BookingLocker struct {
	coll lockCollection
	now  func() time.Time
}

func NewBookingLocker(db *mongo.Database) *BookingLocker {
	return &BookingLocker{coll: db.Collection(collectionBookingLocks), now: time.Now}
}

// Acquire polls until the lock document is inserted, or an expired one is
// taken over, or ctx is done.
func (l *BookingLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token := uuid.NewString()

	for {
		ok, err := l.tryAcquire(ctx, key, token, ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return func(ctx context.Context) error { return l.release(ctx, key, token) }, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func (l *BookingLocker) tryAcquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	now := l.now().UTC()
	_, err := l.coll.InsertOne(ctx, bookingLock{ID: key, Token: token, ExpiresAt: now.Add(ttl), CreatedAt: now})
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("insert booking lock: %w", err)
	}

	// held: take it over only if the holder's lease ran out
	res, err := l.coll.UpdateOne(ctx,
		bson.M{"_id": key, "expires_at": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"token": token, "expires_at": now.Add(ttl), "created_at": now}},
	)
	if err != nil {
		return false, fmt.Errorf("take over booking lock: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

func (l *BookingLocker) release(ctx context.Context, key, token string) error {
	if _, err := l.coll.DeleteOne(ctx, bson.M{"_id": key, "token": token}); err != nil {
		return fmt.Errorf("release booking lock: %w", err)
	}
	return nil
}

func ensureBookingLockIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(collectionBookingLocks).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return err
}
