package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	TimeOfDayLayout = "15:04"
)

// WindowRules bounds the durations a booking may request.
// A zero Step or MaxDuration disables that check.
type WindowRules struct {
	Step        time.Duration
	MaxDuration time.Duration
}

// DefaultWindowRules matches the durations offered by the booking UI.
var DefaultWindowRules = WindowRules{Step: 30 * time.Minute}

// Window is the half-open interval [Start, End) occupied by a reservation.
// Wall-clock values are evaluated in UTC so no DST shift ever applies.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds the window for date at startTime lasting durationHours.
func NewWindow(date, startTime string, durationHours float64, rules WindowRules) (Window, error) {
	day, err := time.ParseInLocation(DateLayout, date, time.UTC)
	if err != nil {
		return Window{}, Validation("date must use the YYYY-MM-DD format")
	}
	tod, err := time.ParseInLocation(TimeOfDayLayout, startTime, time.UTC)
	if err != nil {
		return Window{}, Validation("startTime must use the HH:MM format")
	}

	length, err := durationOf(durationHours, rules)
	if err != nil {
		return Window{}, err
	}

	start := day.Add(time.Duration(tod.Hour())*time.Hour + time.Duration(tod.Minute())*time.Minute)
	end := start.Add(length)
	if end.After(day.AddDate(0, 0, 1)) {
		return Window{}, Validation("reservation cannot cross midnight")
	}

	return Window{Start: start, End: end}, nil
}

func durationOf(hours float64, rules WindowRules) (time.Duration, error) {
	if math.IsNaN(hours) || math.IsInf(hours, 0) || hours <= 0 {
		return 0, Validation("duration must be a positive number of hours")
	}

	minutes := hours * 60
	whole := math.Round(minutes)
	if math.Abs(minutes-whole) > 1e-6 {
		return 0, Validation("duration must be a whole number of minutes")
	}
	length := time.Duration(whole) * time.Minute

	if rules.Step > 0 && length%rules.Step != 0 {
		return 0, Validation(fmt.Sprintf("duration must be a multiple of %s", formatStep(rules.Step)))
	}
	if rules.MaxDuration > 0 && length > rules.MaxDuration {
		return 0, Validation(fmt.Sprintf("duration cannot exceed %g hours", rules.MaxDuration.Hours()))
	}
	return length, nil
}

func formatStep(d time.Duration) string {
	if d == time.Hour {
		return "1 hour"
	}
	if d%time.Hour == 0 {
		return fmt.Sprintf("%d hours", int(d.Hours()))
	}
	return fmt.Sprintf("%d minutes", int(d.Minutes()))
}

// Overlaps reports whether w and other share any instant.
// Windows that merely touch (one ends when the other starts) do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

// Date returns the calendar day the window starts on.
func (w Window) Date() string { return w.Start.Format(DateLayout) }

// StartTime returns the normalised HH:MM start.
func (w Window) StartTime() string { return w.Start.Format(TimeOfDayLayout) }
