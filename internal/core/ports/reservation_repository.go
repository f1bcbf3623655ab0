package ports

import (
	"context"
	"time"

	"github.com/sirpyerre/resource-booking/internal/core/domain"
)

// ReservationRepository defines persistence operations for reservations.
type ReservationRepository interface {
	Create(ctx context.Context, r *domain.Reservation) error
	FindByID(ctx context.Context, id string) (*domain.Reservation, error)
	// FindByResourceAndDate returns every reservation of resourceID on date.
	FindByResourceAndDate(ctx context.Context, resourceID, date string) ([]*domain.Reservation, error)
	// ListByUser returns the user's reservations joined with their resource,
	// sorted by date then start time.
	ListByUser(ctx context.Context, userID string) ([]*domain.ReservationDetail, error)
	Delete(ctx context.Context, id string) error
	// DeleteByUser removes all reservations owned by userID and reports how many were removed.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}

// BookingLocker serialises check-and-insert for one booking key
// (resource + date) across every API instance.
type BookingLocker interface {
	// Acquire blocks until the lock is held or ctx is done. The returned
	// release func must be called exactly once.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// AuditRepository persists lifecycle events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuditEvent) error
}
