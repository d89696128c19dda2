// File: utils/metrics.go
package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestDuration observes request latency per route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slotify_http_request_duration_seconds",
		Help:    "HTTP request latency by route, method and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	// BookingTransitions counts state-machine transitions by target state
	// and reason tag.
	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slotify_booking_transitions_total",
		Help: "Booking state transitions by target status and reason.",
	}, []string{"status", "reason"})

	// SlotLockWaits counts slot-lock acquisitions that had to retry.
	SlotLockWaits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slotify_slot_lock_waits_total",
		Help: "Slot lock acquisitions that found the key already held.",
	})

	// WorkerSweepDuration observes one lifecycle sweep per task type.
	WorkerSweepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slotify_worker_sweep_duration_seconds",
		Help:    "Lifecycle worker sweep latency by task.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	// WorkerSweepRows counts rows each sweep transitioned or dispatched.
	WorkerSweepRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slotify_worker_sweep_rows_total",
		Help: "Rows handled by lifecycle sweeps, by task.",
	}, []string{"task"})

	// EventsPublished counts domain events put on the in-process bus.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slotify_events_published_total",
		Help: "Domain events published, by type.",
	}, []string{"type"})
)
