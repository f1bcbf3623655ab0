package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/resource-booking/internal/core/domain"
)

func TestConflictDetector_HasConflict(t *testing.T) {
	repo := newStubReservationRepo(nil)
	ctx := context.Background()
	_ = repo.Create(ctx, &domain.Reservation{ID: "existing", ResourceID: "r1", Date: "2030-01-15", StartTime: "09:00", Duration: 1})
	_ = repo.Create(ctx, &domain.Reservation{ID: "other-day", ResourceID: "r1", Date: "2030-01-16", StartTime: "12:00", Duration: 1})
	d := NewConflictDetector(repo, zerolog.Nop())

	tests := []struct {
		name      string
		resource  string
		date      string
		start     string
		hours     float64
		excludeID string
		want      bool
	}{
		{"same window", "r1", "2030-01-15", "09:00", 1, "", true},
		{"partial overlap", "r1", "2030-01-15", "09:30", 1, "", true},
		{"contains existing", "r1", "2030-01-15", "08:00", 3, "", true},
		{"ends when existing starts", "r1", "2030-01-15", "08:00", 1, "", false},
		{"starts when existing ends", "r1", "2030-01-15", "10:00", 1, "", false},
		{"other resource", "r2", "2030-01-15", "09:00", 1, "", false},
		{"other day", "r1", "2030-01-16", "09:00", 1, "", false},
		{"excluded reservation", "r1", "2030-01-15", "09:00", 1, "existing", false},
		{"short overlap", "r1", "2030-01-15", "09:59", 0.5, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.HasConflict(ctx, tt.resource, tt.date, tt.start, tt.hours, tt.excludeID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConflictDetector_UnreadableStoredWindowBlocks(t *testing.T) {
	repo := newStubReservationRepo(nil)
	_ = repo.Create(context.Background(), &domain.Reservation{ID: "broken", ResourceID: "r1", Date: "2030-01-15", StartTime: "nine", Duration: 1})
	d := NewConflictDetector(repo, zerolog.Nop())

	got, err := d.HasConflict(context.Background(), "r1", "2030-01-15", "18:00", 1, "")
	if err != nil || !got {
		t.Fatalf("expected conflict, got %v %v", got, err)
	}
}

func TestConflictDetector_Errors(t *testing.T) {
	repo := newStubReservationRepo(nil)
	d := NewConflictDetector(repo, zerolog.Nop())

	if _, err := d.HasConflict(context.Background(), "r1", "2030-13-40", "09:00", 1, ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	repo.findErr = domain.Unavailable("storage unavailable", errors.New("boom"))
	if _, err := d.HasConflict(context.Background(), "r1", "2030-01-15", "09:00", 1, ""); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}
