package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/resource-booking/internal/core/domain"
	"github.com/sirpyerre/resource-booking/internal/core/ports"
)

const defaultSeedAdminPassword = "admin"

// DefaultResources is the fixed catalogue created on first boot.
var DefaultResources = []domain.Resource{
	{Name: "Athéna", Type: domain.ResourceMeetingRoom},
	{Name: "Héra", Type: domain.ResourceMeetingRoom},
	{Name: "Hephaïstos", Type: domain.ResourceSupercomputer},
	{Name: "Artémis", Type: domain.ResourceSupercomputer},
}

// Seeder creates the bootstrap admin account and resources when missing.
// Running it again is a no-op.
type Seeder struct {
	users         ports.UserRepository
	resources     ports.ResourceRepository
	adminPassword string
	log           zerolog.Logger
}

func NewSeeder(users ports.UserRepository, resources ports.ResourceRepository, adminPassword string, log zerolog.Logger) *Seeder {
	if adminPassword == "" {
		adminPassword = defaultSeedAdminPassword
	}
	return &Seeder{users: users, resources: resources, adminPassword: adminPassword, log: log}
}

func (s *Seeder) Seed(ctx context.Context) error {
	if err := s.seedAdmin(ctx); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := s.seedResources(ctx); err != nil {
		return fmt.Errorf("seed resources: %w", err)
	}
	return nil
}

func (s *Seeder) seedAdmin(ctx context.Context) error {
	_, err := s.users.FindByUsername(ctx, domain.SeedAdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := HashPassword(s.adminPassword)
	if err != nil {
		return err
	}
	_, err = s.users.Create(ctx, &domain.User{
		ID:           uuid.NewString(),
		Username:     domain.SeedAdminUsername,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	})
	// another instance may have seeded concurrently
	if errors.Is(err, domain.ErrUserExists) {
		return nil
	}
	if err != nil {
		return err
	}
	s.log.Info().Msg("default admin user created")
	return nil
}

func (s *Seeder) seedResources(ctx context.Context) error {
	n, err := s.resources.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	now := time.Now().UTC()
	batch := make([]*domain.Resource, 0, len(DefaultResources))
	for _, r := range DefaultResources {
		batch = append(batch, &domain.Resource{
			ID:        resourceID(r.Name),
			Name:      r.Name,
			Type:      r.Type,
			CreatedAt: now,
		})
	}
	if err := s.resources.InsertMany(ctx, batch); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil
		}
		return err
	}
	s.log.Info().Int("count", len(batch)).Msg("default resources created")
	return nil
}

// resourceID is derived from the name so that concurrent first boots insert
// the same documents and the unique index rejects the loser.
func resourceID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("resource:"+name)).String()
}
