package service

import (
	"context"

	"github.com/sirpyerre/resource-booking/internal/core/domain"
	"github.com/sirpyerre/resource-booking/internal/core/ports"
)

type ResourceService struct {
	repo ports.ResourceRepository
}

func NewResourceService(repo ports.ResourceRepository) *ResourceService {
	return &ResourceService{repo: repo}
}

func (s *ResourceService) List(ctx context.Context) ([]*domain.Resource, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.Resource{}
	}
	return items, nil
}
