package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/resource-booking/internal/core/domain"
	"github.com/sirpyerre/resource-booking/internal/core/ports"
)

type userFixture struct {
	svc          *UserService
	users        *stubUserRepo
	reservations *stubReservationRepo
	sink         *stubSink
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	users := newStubUserRepo()
	seedUser(t, users, adminUser.ID, domain.SeedAdminUsername, "admin", domain.RoleAdmin)
	seedUser(t, users, alice.ID, alice.Username, "pw", domain.RoleUser)
	seedUser(t, users, bob.ID, bob.Username, "pw", domain.RoleUser)
	reservations := newStubReservationRepo(nil)
	sink := &stubSink{}
	return &userFixture{
		svc:          NewUserService(users, reservations, sink, zerolog.Nop()),
		users:        users,
		reservations: reservations,
		sink:         sink,
	}
}

func TestUserService_Create(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	u, err := f.svc.Create(ctx, ports.CreateUserInput{Username: "  carol ", Password: "pw", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.Username != "carol" || u.Role != domain.RoleAdmin || u.ID == "" || u.CreatedAt.IsZero() {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.PasswordHash == "pw" || u.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}

	tests := []struct {
		name string
		in   ports.CreateUserInput
		want error
	}{
		{"duplicate", ports.CreateUserInput{Username: "carol", Password: "x", Role: domain.RoleUser}, domain.ErrConflict},
		{"blank username", ports.CreateUserInput{Username: "  ", Password: "x", Role: domain.RoleUser}, domain.ErrValidation},
		{"missing password", ports.CreateUserInput{Username: "dan", Role: domain.RoleUser}, domain.ErrValidation},
		{"unknown role", ports.CreateUserInput{Username: "dan", Password: "x", Role: "root"}, domain.ErrValidation},
		{"password over bcrypt limit", ports.CreateUserInput{Username: "dan", Password: strings.Repeat("x", 80), Role: domain.RoleUser}, domain.ErrValidation},
		// 25 three-byte runes pass a character count but not bcrypt's byte limit
		{"multibyte password over bcrypt limit", ports.CreateUserInput{Username: "dan", Password: strings.Repeat("€", 25), Role: domain.RoleUser}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Create(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUserService_Delete_CascadesReservations(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	_ = f.reservations.Create(ctx, &domain.Reservation{ID: "a1", UserID: alice.ID, ResourceID: "r1", Date: "2030-01-15", StartTime: "09:00", Duration: 1})
	_ = f.reservations.Create(ctx, &domain.Reservation{ID: "a2", UserID: alice.ID, ResourceID: "r2", Date: "2030-01-15", StartTime: "09:00", Duration: 1})
	_ = f.reservations.Create(ctx, &domain.Reservation{ID: "b1", UserID: bob.ID, ResourceID: "r1", Date: "2030-01-15", StartTime: "11:00", Duration: 1})

	if err := f.svc.Delete(ctx, adminUser, alice.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.users.FindByID(ctx, alice.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("user should be gone, got %v", err)
	}
	if n := f.reservations.count(); n != 1 {
		t.Fatalf("expected only bob's reservation to remain, got %d", n)
	}
	events := f.sink.snapshot()
	if len(events) != 1 || events[0].Type != domain.EventUserDeleted || events[0].UserID != alice.ID || events[0].ActorID != adminUser.ID {
		t.Fatalf("unexpected audit events: %+v", events)
	}
}

func TestUserService_Delete_Guards(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		principal *domain.Principal
		id        string
		want      error
	}{
		{"seed admin by admin", adminUser, adminUser.ID, domain.ErrValidation},
		{"seed admin by user", alice, adminUser.ID, domain.ErrValidation},
		{"user deleting another", alice, bob.ID, domain.ErrForbidden},
		{"user deleting self", alice, alice.ID, domain.ErrForbidden},
		{"missing user by admin", adminUser, "ghost", domain.ErrNotFound},
		{"missing user by user", alice, "ghost", domain.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := f.svc.Delete(ctx, tt.principal, tt.id); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	if err := f.svc.Delete(ctx, adminUser, adminUser.ID); err.Error() != "cannot delete admin user" {
		t.Fatalf("unexpected message: %v", err)
	}
	if users, _ := f.users.List(ctx); len(users) != 3 {
		t.Fatalf("no account should have been removed, got %d", len(users))
	}
}
