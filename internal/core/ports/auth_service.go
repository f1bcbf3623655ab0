package ports

import (
	"context"

	"github.com/sirpyerre/resource-booking/internal/core/domain"
)

// AuthService issues and verifies bearer tokens.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	// Authenticate resolves a bearer token to the principal it was issued
	// for. The user must still exist.
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

// CreateUserInput carries the fields an admin supplies for a new account.
type CreateUserInput struct {
	Username string
	Password string
	Role     string
}

// UserService manages accounts on behalf of administrators.
type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	Delete(ctx context.Context, principal *domain.Principal, id string) error
}
