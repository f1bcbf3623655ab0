package domain

import "time"

const (
	ResourceMeetingRoom   = "meeting_room"
	ResourceSupercomputer = "supercomputer"
)

// Resource is a bookable asset. Resources are seeded once and never change.
type Resource struct {
	ID        string    `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name"`
	Type      string    `json:"type" bson:"type"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Reservation is a claim by one user on one resource for [start, start+duration).
type Reservation struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	ResourceID string    `json:"resourceId"`
	Date       string    `json:"date"`
	StartTime  string    `json:"startTime"`
	Duration   float64   `json:"duration"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Window rebuilds the occupied interval. Stored reservations were validated
// on creation, so only the format checks apply here.
func (r *Reservation) Window() (Window, error) {
	return NewWindow(r.Date, r.StartTime, r.Duration, WindowRules{})
}

// ReservationDetail is a reservation enriched with the resource it targets.
type ReservationDetail struct {
	Reservation
	Resource Resource `json:"resource"`
}

// Lifecycle event names recorded in the audit trail.
const (
	EventReservationCreated = "reservation.created"
	EventReservationDeleted = "reservation.deleted"
	EventUserDeleted        = "user.deleted"
)

// AuditEvent records a mutation for later inspection.
type AuditEvent struct {
	Type          string
	ReservationID string
	ResourceID    string
	UserID        string
	ActorID       string
	Date          string
	StartTime     string
	Duration      float64
	OccurredAt    time.Time
}
