package ports

import (
	"context"

	"github.com/sirpyerre/resource-booking/internal/core/domain"
)

// ResourceRepository reads the seeded resource catalogue.
type ResourceRepository interface {
	List(ctx context.Context) ([]*domain.Resource, error)
	FindByID(ctx context.Context, id string) (*domain.Resource, error)
	Count(ctx context.Context) (int64, error)
	InsertMany(ctx context.Context, resources []*domain.Resource) error
}

// ResourceService exposes the resource catalogue.
type ResourceService interface {
	List(ctx context.Context) ([]*domain.Resource, error)
}
