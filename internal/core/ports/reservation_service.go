package ports

import (
	"context"

	"github.com/sirpyerre/resource-booking/internal/core/domain"
)

// CreateReservationInput carries a booking request as received from the client.
type CreateReservationInput struct {
	ResourceID string
	Date       string
	StartTime  string
	Duration   float64
}

// ReservationService defines the reservation lifecycle.
type ReservationService interface {
	Create(ctx context.Context, principal *domain.Principal, input CreateReservationInput) (*domain.Reservation, error)
	Delete(ctx context.Context, principal *domain.Principal, id string) error
	List(ctx context.Context, principal *domain.Principal) ([]*domain.ReservationDetail, error)
}

// AuditSink accepts lifecycle events without blocking the caller.
type AuditSink interface {
	Enqueue(event domain.AuditEvent)
}
