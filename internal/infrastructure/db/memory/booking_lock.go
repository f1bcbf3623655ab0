package memory

import (
	"context"
	"sync"
	"time"
)

type lease struct {
	expires  time.Time
	released chan struct{}
	once     sync.Once
}

func (l *lease) free() { l.once.Do(func() { close(l.released) }) }

// BookingLocker implements ports.BookingLocker inside one process. Waiters
// wake on release instead of polling; an expired lease may be taken over.
type BookingLocker struct {
	mu   sync.Mutex
	held map[string]*lease
	now  func() time.Time
}

func NewBookingLocker() *BookingLocker {
	return &BookingLocker{held: make(map[string]*lease), now: time.Now}
}

func (b *BookingLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	for {
		b.mu.Lock()
		current := b.held[key]
		if current == nil || !b.now().Before(current.expires) {
			mine := &lease{expires: b.now().Add(ttl), released: make(chan struct{})}
			b.held[key] = mine
			b.mu.Unlock()
			return func(context.Context) error {
				b.mu.Lock()
				if b.held[key] == mine {
					delete(b.held, key)
				}
				b.mu.Unlock()
				mine.free()
				return nil
			}, nil
		}
		wait := current.expires.Sub(b.now())
		b.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-current.released:
		case <-timer.C:
		}
		timer.Stop()
	}
}
