// Package metrics defines and registers all custom Prometheus metrics for the
// resource booking API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Collectors are registered with the default registry on package init via
// promauto; HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "booking"

// ── Reservation metrics ───────────────────────────────────────────────────────

// ReservationsCreatedTotal counts successful bookings.
// Label:
//   - resource_type: "meeting_room" or "supercomputer"
var ReservationsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservations_created_total",
		Help:      "Total number of reservations created, by resource type.",
	},
	[]string{"resource_type"},
)

// ReservationConflictsTotal counts bookings rejected because the slot was taken.
var ReservationConflictsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservation_conflicts_total",
		Help:      "Total number of reservation requests rejected for overlapping an existing booking.",
	},
	[]string{"resource_type"},
)

// ReservationsDeletedTotal counts cancelled reservations.
var ReservationsDeletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservations_deleted_total",
		Help:      "Total number of reservations deleted by their owner or an admin.",
	},
)

// BookingLockWaitSeconds measures how long Create waited for the
// per-resource, per-day booking lock.
var BookingLockWaitSeconds = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "booking_lock_wait_seconds",
		Help:      "Time spent acquiring the booking lock before the conflict check.",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginAttemptsTotal counts login attempts.
// Label:
//   - result: "success", "unknown_user" or "bad_password"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks events waiting in each audit worker channel.
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditEventsDroppedTotal counts events discarded because a worker queue was full.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of audit events dropped because the worker queue was full.",
	},
)

// AuditEventsErrorsTotal counts audit events that failed to persist.
var AuditEventsErrorsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_errors_total",
		Help:      "Total number of audit events that could not be written.",
	},
)
