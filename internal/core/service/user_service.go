package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/resource-booking/internal/core/domain"
	"github.com/sirpyerre/resource-booking/internal/core/ports"
)

// UserService implements account administration.
type UserService struct {
	users        ports.UserRepository
	reservations ports.ReservationRepository
	audit        ports.AuditSink
	log          zerolog.Logger
}

func NewUserService(users ports.UserRepository, reservations ports.ReservationRepository, audit ports.AuditSink, log zerolog.Logger) *UserService {
	return &UserService{users: users, reservations: reservations, audit: audit, log: log}
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Create(ctx context.Context, input ports.CreateUserInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" || input.Role == "" {
		return nil, domain.Validation("all fields are required")
	}
	if !domain.ValidRole(input.Role) {
		return nil, domain.Validation("invalid role")
	}
	if len(input.Password) > MaxPasswordBytes {
		return nil, errPasswordTooLong
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		Role:         input.Role,
		CreatedAt:    time.Now().UTC(),
	}
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("username", created.Username).Str("role", created.Role).Msg("user created")
	return created, nil
}

// Delete removes a user and every reservation they own. The seed admin
// account is refused before any role check, so the answer for it never
// depends on who asks.
func (s *UserService) Delete(ctx context.Context, principal *domain.Principal, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) && !principal.Can(domain.CapManageUsers) {
			return domain.ErrAdminRequired
		}
		return err
	}

	if user.Username == domain.SeedAdminUsername {
		return domain.ErrSeedAdminProtected
	}
	if !principal.Can(domain.CapManageUsers) {
		return domain.ErrAdminRequired
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	removed, err := s.reservations.DeleteByUser(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", id).Msg("user deleted but reservations cascade failed")
		return err
	}

	s.audit.Enqueue(domain.AuditEvent{
		Type:       domain.EventUserDeleted,
		UserID:     id,
		ActorID:    principal.ID,
		OccurredAt: time.Now().UTC(),
	})
	s.log.Info().
		Str("user_id", id).
		Str("actor_id", principal.ID).
		Int64("reservations_removed", removed).
		Msg("user deleted")
	return nil
}
