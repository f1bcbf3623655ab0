package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sirpyerre/resource-booking/internal/core/domain"
	"github.com/sirpyerre/resource-booking/internal/core/ports"
	"github.com/sirpyerre/resource-booking/pkg/metrics"
)

const (
	defaultLockTTL  = 15 * time.Second
	defaultLockWait = 3 * time.Second
)

// BookingOptions tunes reservation validation and locking.
//
// The conflict check, insert and owner check must all finish LockMargin
// before the lease of LockTTL runs out; a holder that overruns gets
// ErrBookingBusy instead of inserting after another instance took the key.
type BookingOptions struct {
	Rules      domain.WindowRules
	LockTTL    time.Duration
	LockWait   time.Duration
	LockMargin time.Duration
}

// ReservationService implements the reservation lifecycle.
type ReservationService struct {
	reservations ports.ReservationRepository
	users        ports.UserRepository
	resources    ports.ResourceRepository
	detector     *ConflictDetector
	locker       ports.BookingLocker
	audit        ports.AuditSink
	opts         BookingOptions
	log          zerolog.Logger
}

func NewReservationService(
	reservations ports.ReservationRepository,
	resources ports.ResourceRepository,
	users ports.UserRepository,
	locker ports.BookingLocker,
	audit ports.AuditSink,
	opts BookingOptions,
	log zerolog.Logger,
) *ReservationService {
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	if opts.LockWait <= 0 {
		opts.LockWait = defaultLockWait
	}
	if opts.LockMargin <= 0 || opts.LockMargin >= opts.LockTTL {
		opts.LockMargin = opts.LockTTL / 5
	}
	return &ReservationService{
		reservations: reservations,
		users:        users,
		resources:    resources,
		detector:     NewConflictDetector(reservations, log),
		locker:       locker,
		audit:        audit,
		opts:         opts,
		log:          log,
	}
}

// BookingKey names the lock guarding every reservation of resourceID on date.
func BookingKey(resourceID, date string) string {
	return "booking:" + resourceID + ":" + date
}

// Create books a window for principal. The conflict check and insert run under the booking lock of the
// (resource, date) pair so concurrent requests cannot both succeed.
func (s *ReservationService) Create(ctx context.Context, principal *domain.Principal, in ports.CreateReservationInput) (*domain.Reservation, error) {
	if !principal.Can(domain.CapAuthenticated) {
		return nil, domain.ErrMissingToken
	}
	if strings.TrimSpace(in.ResourceID) == "" || in.Date == "" || in.StartTime == "" || in.Duration == 0 {
		return nil, domain.Validation("all fields are required")
	}

	// an unknown resource wins over a malformed window
	resource, err := s.resources.FindByID(ctx, in.ResourceID)
	if err != nil {
		return nil, err
	}

	window, err := domain.NewWindow(in.Date, in.StartTime, in.Duration, s.opts.Rules)
	if err != nil {
		return nil, err
	}

	reservation, err := s.book(ctx, principal, resource, window, in.Duration)
	if err != nil {
		return nil, err
	}

	metrics.ReservationsCreatedTotal.WithLabelValues(resource.Type).Inc()
	s.audit.Enqueue(auditEventFor(domain.EventReservationCreated, reservation, principal.ID))
	s.log.Info().
		Str("reservation_id", reservation.ID).
		Str("resource_id", reservation.ResourceID).
		Str("user_id", reservation.UserID).
		Str("date", reservation.Date).
		Str("start_time", reservation.StartTime).
		Float64("duration", reservation.Duration).
		Msg("reservation created")
	return reservation, nil
}

func (s *ReservationService) book(ctx context.Context, principal *domain.Principal, resource *domain.Resource, window domain.Window, duration float64) (*domain.Reservation, error) {
	key := BookingKey(resource.ID, window.Date())

	waitCtx, cancel := context.WithTimeout(ctx, s.opts.LockWait)
	defer cancel()

	started := time.Now()
	release, err := s.locker.Acquire(waitCtx, key, s.opts.LockTTL)
	metrics.BookingLockWaitSeconds.Observe(time.Since(started).Seconds())
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrBookingBusy) {
			s.log.Warn().Str("key", key).Msg("booking lock wait exceeded")
			return nil, domain.ErrBookingBusy
		}
		return nil, domain.Unavailable("booking lock unavailable", err)
	}
	// the margin also absorbs the round trip of the winning acquire
	leaseCtx, leaseCancel := context.WithDeadline(ctx, time.Now().Add(s.opts.LockTTL-s.opts.LockMargin))
	defer leaseCancel()
	defer func() {
		// release on a fresh context so an expired request still frees the key
		relCtx, relCancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.LockWait)
		defer relCancel()
		if relErr := release(relCtx); relErr != nil {
			s.log.Warn().Err(relErr).Str("key", key).Msg("failed to release booking lock")
		}
	}()

	conflict, err := s.detector.overlapsAny(leaseCtx, resource.ID, window, "")
	if err != nil {
		return nil, s.leaseError(ctx, leaseCtx, key, err)
	}
	if conflict {
		metrics.ReservationConflictsTotal.WithLabelValues(resource.Type).Inc()
		return nil, domain.ErrTimeSlotTaken
	}
	// a store that ignores ctx can return after the lease is gone
	if err := leaseCtx.Err(); err != nil {
		return nil, s.leaseError(ctx, leaseCtx, key, err)
	}

	reservation := &domain.Reservation{
		ID:         uuid.NewString(),
		UserID:     principal.ID,
		ResourceID: resource.ID,
		Date:       window.Date(),
		StartTime:  window.StartTime(),
		Duration:   duration,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.reservations.Create(leaseCtx, reservation); err != nil {
		return nil, s.leaseError(ctx, leaseCtx, key, fmt.Errorf("create reservation: %w", err))
	}
	if err := leaseCtx.Err(); err != nil {
		s.discard(ctx, reservation.ID)
		return nil, s.leaseError(ctx, leaseCtx, key, err)
	}

	// The owner may have been deleted after the token was checked. Looking
	// again after the insert means either this lookup misses the user or the
	// user cascade runs later and removes the row.
	if _, err := s.users.FindByID(leaseCtx, principal.ID); err != nil {
		s.discard(ctx, reservation.ID)
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn().Str("user_id", principal.ID).Str("reservation_id", reservation.ID).Msg("owner deleted during booking")
			return nil, domain.ErrInvalidToken
		}
		return nil, s.leaseError(ctx, leaseCtx, key, err)
	}
	return reservation, nil
}

// leaseError turns a failure caused by the lease deadline into ErrBookingBusy
// and passes anything else through.
func (s *ReservationService) leaseError(ctx, leaseCtx context.Context, key string, err error) error {
	if ctx.Err() == nil && leaseCtx.Err() != nil {
		s.log.Warn().Err(err).Str("key", key).Dur("ttl", s.opts.LockTTL).Msg("booking lock lease expired before commit")
		return domain.ErrBookingBusy
	}
	return err
}

func (s *ReservationService) discard(ctx context.Context, id string) {
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.LockWait)
	defer cancel()
	if err := s.reservations.Delete(delCtx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.log.Error().Err(err).Str("reservation_id", id).Msg("failed to discard orphaned reservation")
	}
}

// Delete cancels a reservation. Only its owner or an admin may do so.
func (s *ReservationService) Delete(ctx context.Context, principal *domain.Principal, id string) error {
	if !principal.Can(domain.CapAuthenticated) {
		return domain.ErrMissingToken
	}

	reservation, err := s.reservations.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !principal.Owns(reservation) && !principal.Can(domain.CapManageAnyReservation) {
		return domain.ErrAccessDenied
	}

	if err := s.reservations.Delete(ctx, id); err != nil {
		return err
	}

	metrics.ReservationsDeletedTotal.Inc()
	s.audit.Enqueue(auditEventFor(domain.EventReservationDeleted, reservation, principal.ID))
	s.log.Info().Str("reservation_id", id).Str("actor_id", principal.ID).Msg("reservation deleted")
	return nil
}

// List returns principal's own reservations ordered by date, then start time.
func (s *ReservationService) List(ctx context.Context, principal *domain.Principal) ([]*domain.ReservationDetail, error) {
	if !principal.Can(domain.CapAuthenticated) {
		return nil, domain.ErrMissingToken
	}

	items, err := s.reservations.ListByUser(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(items, func(a, b *domain.ReservationDetail) int {
		if c := strings.Compare(a.Date, b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.StartTime, b.StartTime)
	})
	if items == nil {
		items = []*domain.ReservationDetail{}
	}
	return items, nil
}

func auditEventFor(eventType string, r *domain.Reservation, actorID string) domain.AuditEvent {
	return domain.AuditEvent{
		Type:          eventType,
		ReservationID: r.ID,
		ResourceID:    r.ResourceID,
		UserID:        r.UserID,
		ActorID:       actorID,
		Date:          r.Date,
		StartTime:     r.StartTime,
		Duration:      r.Duration,
		OccurredAt:    time.Now().UTC(),
	}
}
