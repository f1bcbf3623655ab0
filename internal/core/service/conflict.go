package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/resource-booking/internal/core/domain"
	"github.com/sirpyerre/resource-booking/internal/core/ports"
)

// ConflictDetector answers whether a candidate window overlaps any existing
// reservation of the same resource on the same day.
type ConflictDetector struct {
	repo ports.ReservationRepository
	log  zerolog.Logger
}

func NewConflictDetector(repo ports.ReservationRepository, log zerolog.Logger) *ConflictDetector {
	return &ConflictDetector{repo: repo, log: log}
}

// HasConflict loads the reservations of resourceID on date and reports true
// at the first one overlapping [startTime, startTime+durationHours).
// excludeID, when non-empty, is ignored.
func (d *ConflictDetector) HasConflict(ctx context.Context, resourceID, date, startTime string, durationHours float64, excludeID string) (bool, error) {
	candidate, err := domain.NewWindow(date, startTime, durationHours, domain.WindowRules{})
	if err != nil {
		return false, err
	}
	return d.overlapsAny(ctx, resourceID, candidate, excludeID)
}

func (d *ConflictDetector) overlapsAny(ctx context.Context, resourceID string, candidate domain.Window, excludeID string) (bool, error) {
	existing, err := d.repo.FindByResourceAndDate(ctx, resourceID, candidate.Date())
	if err != nil {
		return false, err
	}

	for _, r := range existing {
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		w, err := r.Window()
		if err != nil {
			// a stored window we cannot read blocks the slot rather than
			// letting a double booking through
			d.log.Warn().Err(err).Str("reservation_id", r.ID).Msg("unreadable reservation window")
			return true, nil
		}
		if w.Overlaps(candidate) {
			return true, nil
		}
	}
	return false, nil
}
