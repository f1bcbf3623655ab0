// Package memory holds process-local implementations of the persistence
// ports. They back single-instance development runs and the HTTP tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/sirpyerre/resource-booking/internal/core/domain"
)

// Store keeps every collection behind one lock so joins see a consistent view.
type Store struct {
	mu           sync.RWMutex
	users        map[string]domain.User
	resources    map[string]domain.Resource
	reservations map[string]domain.Reservation
	events       []domain.AuditEvent
}

func NewStore() *Store {
	return &Store{
		users:        make(map[string]domain.User),
		resources:    make(map[string]domain.Resource),
		reservations: make(map[string]domain.Reservation),
	}
}

// ── Users ─────────────────────────────────────────────────────────────────────

type UserRepository struct{ s *Store }

func NewUserRepository(s *Store) *UserRepository { return &UserRepository{s: s} }

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[user.ID]; ok {
		return nil, domain.ErrUserExists
	}
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.s.users[user.ID] = *user
	created := *user
	return &created, nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// List returns users oldest first, without password hashes.
func (r *UserRepository) List(_ context.Context) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		u.PasswordHash = ""
		out = append(out, &u)
	}
	slices.SortFunc(out, func(a, b *domain.User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Username, b.Username)
	})
	return out, nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

// ── Resources ─────────────────────────────────────────────────────────────────

type ResourceRepository struct{ s *Store }

func NewResourceRepository(s *Store) *ResourceRepository { return &ResourceRepository{s: s} }

// List returns resources ordered by type, then name.
func (r *ResourceRepository) List(_ context.Context) ([]*domain.Resource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Resource, 0, len(r.s.resources))
	for _, res := range r.s.resources {
		out = append(out, &res)
	}
	slices.SortFunc(out, func(a, b *domain.Resource) int {
		if c := strings.Compare(a.Type, b.Type); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (r *ResourceRepository) FindByID(_ context.Context, id string) (*domain.Resource, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res, ok := r.s.resources[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	return &res, nil
}

func (r *ResourceRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.resources)), nil
}

// InsertMany is all-or-nothing: a duplicate id rejects the whole batch.
func (r *ResourceRepository) InsertMany(_ context.Context, resources []*domain.Resource) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, res := range resources {
		if _, ok := r.s.resources[res.ID]; ok {
			return domain.Conflict("resource already exists")
		}
	}
	for _, res := range resources {
		r.s.resources[res.ID] = *res
	}
	return nil
}

// ── Reservations ──────────────────────────────────────────────────────────────

type ReservationRepository struct{ s *Store }

func NewReservationRepository(s *Store) *ReservationRepository {
	return &ReservationRepository{s: s}
}

func (r *ReservationRepository) Create(_ context.Context, res *domain.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reservations[res.ID]; ok {
		return domain.Conflict("reservation already exists")
	}
	r.s.reservations[res.ID] = *res
	return nil
}

func (r *ReservationRepository) FindByID(_ context.Context, id string) (*domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res, ok := r.s.reservations[id]
	if !ok {
		return nil, domain.ErrReservationNotFound
	}
	return &res, nil
}

func (r *ReservationRepository) FindByResourceAndDate(_ context.Context, resourceID, date string) ([]*domain.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.Reservation
	for _, res := range r.s.reservations {
		if res.ResourceID == resourceID && res.Date == date {
			out = append(out, &res)
		}
	}
	return out, nil
}

// ListByUser joins each reservation with its resource. Reservations whose
// resource is gone are skipped, matching the $unwind in the Mongo adapter.
func (r *ReservationRepository) ListByUser(_ context.Context, userID string) ([]*domain.ReservationDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.ReservationDetail
	for _, res := range r.s.reservations {
		if res.UserID != userID {
			continue
		}
		resource, ok := r.s.resources[res.ResourceID]
		if !ok {
			continue
		}
		out = append(out, &domain.ReservationDetail{Reservation: res, Resource: resource})
	}
	slices.SortFunc(out, func(a, b *domain.ReservationDetail) int {
		if c := strings.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.StartTime, b.StartTime)
	})
	return out, nil
}

func (r *ReservationRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.reservations[id]; !ok {
		return domain.ErrReservationNotFound
	}
	delete(r.s.reservations, id)
	return nil
}

func (r *ReservationRepository) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, res := range r.s.reservations {
		if res.UserID == userID {
			delete(r.s.reservations, id)
			n++
		}
	}
	return n, nil
}

// ── Audit ─────────────────────────────────────────────────────────────────────

type AuditRepository struct{ s *Store }

func NewAuditRepository(s *Store) *AuditRepository { return &AuditRepository{s: s} }

func (r *AuditRepository) InsertEvent(_ context.Context, event *domain.AuditEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.events = append(r.s.events, *event)
	return nil
}

// Events returns a copy of every recorded event in insertion order.
func (r *AuditRepository) Events() []domain.AuditEvent {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return slices.Clone(r.s.events)
}
