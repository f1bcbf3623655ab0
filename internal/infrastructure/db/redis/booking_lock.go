package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPollInterval = 20 * time.Millisecond

// releaseScript deletes the key only while it still holds our token, so a
// holder whose lease expired cannot free someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// lockClient is the part of *redis.Client the locker uses.
type lockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// BookingLocker implements ports.BookingLocker with SET NX PX.
// Key format: lock:booking:<resource_id>:<date>
type BookingLocker struct {
	client lockClient
}

// NewBookingLocker creates a BookingLocker wrapping the given Redis client.
func NewBookingLocker(client *redis.Client) *BookingLocker {
	return &BookingLocker{client: client}
}

// Acquire polls SET NX until it wins or ctx is done.
func (l *BookingLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token := uuid.NewString()
	k := l.key(key)

	for {
		ok, err := l.client.SetNX(ctx, k, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("booking lock: %w", err)
		}
		if ok {
			return func(ctx context.Context) error {
				if err := releaseScript.Run(ctx, l.client, []string{k}, token).Err(); err != nil {
					return fmt.Errorf("release booking lock: %w", err)
				}
				return nil
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func (l *BookingLocker) key(key string) string {
	return "lock:" + key
}
