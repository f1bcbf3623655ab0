package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirpyerre/resource-booking/internal/core/domain"
)

// ── Users ─────────────────────────────────────────────────────────────────────

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return nil, domain.ErrUserExists
		}
	}
	r.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// ── Resources ─────────────────────────────────────────────────────────────────

type stubResourceRepo struct {
	mu        sync.Mutex
	resources map[string]*domain.Resource
	inserts   int
	insertErr error
}

func newStubResourceRepo(resources ...*domain.Resource) *stubResourceRepo {
	r := &stubResourceRepo{resources: make(map[string]*domain.Resource)}
	for _, res := range resources {
		r.resources[res.ID] = res
	}
	return r
}

func (r *stubResourceRepo) List(_ context.Context) ([]*domain.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Resource
	for _, res := range r.resources {
		out = append(out, res)
	}
	return out, nil
}

func (r *stubResourceRepo) FindByID(_ context.Context, id string) (*domain.Resource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.resources[id]; ok {
		return res, nil
	}
	return nil, domain.ErrResourceNotFound
}

func (r *stubResourceRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.resources)), nil
}

func (r *stubResourceRepo) InsertMany(_ context.Context, resources []*domain.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserts++
	if r.insertErr != nil {
		return r.insertErr
	}
	for _, res := range resources {
		r.resources[res.ID] = res
	}
	return nil
}

// ── Reservations ──────────────────────────────────────────────────────────────

type stubReservationRepo struct {
	mu           sync.Mutex
	reservations map[string]*domain.Reservation
	resources    *stubResourceRepo
	findErr      error
	// findDelay widens the check-then-insert gap in concurrency tests.
	findDelay time.Duration
}

func newStubReservationRepo(resources *stubResourceRepo) *stubReservationRepo {
	return &stubReservationRepo{reservations: make(map[string]*domain.Reservation), resources: resources}
}

func (r *stubReservationRepo) Create(_ context.Context, res *domain.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *res
	r.reservations[res.ID] = &clone
	return nil
}

func (r *stubReservationRepo) FindByID(_ context.Context, id string) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.reservations[id]; ok {
		clone := *res
		return &clone, nil
	}
	return nil, domain.ErrReservationNotFound
}

func (r *stubReservationRepo) FindByResourceAndDate(_ context.Context, resourceID, date string) ([]*domain.Reservation, error) {
	if r.findDelay > 0 {
		time.Sleep(r.findDelay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []*domain.Reservation
	for _, res := range r.reservations {
		if res.ResourceID == resourceID && res.Date == date {
			clone := *res
			out = append(out, &clone)
		}
	}
	return out, nil
}

// ListByUser returns unsorted rows; ordering is the service's job.
func (r *stubReservationRepo) ListByUser(ctx context.Context, userID string) ([]*domain.ReservationDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ReservationDetail
	for _, res := range r.reservations {
		if res.UserID != userID {
			continue
		}
		detail := &domain.ReservationDetail{Reservation: *res}
		if r.resources != nil {
			if resource, err := r.resources.FindByID(ctx, res.ResourceID); err == nil {
				detail.Resource = *resource
			}
		}
		out = append(out, detail)
	}
	return out, nil
}

func (r *stubReservationRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reservations[id]; !ok {
		return domain.ErrReservationNotFound
	}
	delete(r.reservations, id)
	return nil
}

func (r *stubReservationRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, res := range r.reservations {
		if res.UserID == userID {
			delete(r.reservations, id)
			n++
		}
	}
	return n, nil
}

func (r *stubReservationRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reservations)
}

// ── Locking & audit ───────────────────────────────────────────────────────────

// keyLocker is a per-key mutex honouring ctx while waiting.
type keyLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	keys  []string
	err   error
}

func newKeyLocker() *keyLocker {
	return &keyLocker{slots: make(map[string]chan struct{})}
}

func (l *keyLocker) Acquire(ctx context.Context, key string, _ time.Duration) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.keys = append(l.keys, key)
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		return func(context.Context) error { <-slot; return nil }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type stubSink struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (s *stubSink) Enqueue(e domain.AuditEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *stubSink) snapshot() []domain.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEvent(nil), s.events...)
}
