package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketshub_session_operations_total",
			Help: "Session store operations by outcome",
		},
		[]string{"operation", "status"},
	)

	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketshub_tickets_issued_total",
			Help: "Tickets issued by this tab",
		},
	)

	ticketsHeld = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticketshub_tickets_held",
			Help: "Tickets attached to the signed-in user after the last mutation or reconcile",
		},
	)

	signedIn = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticketshub_session_signed_in",
			Help: "1 when a user is signed in on this tab",
		},
	)

	reconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketshub_reconciliations_total",
			Help: "Reconciliations with persisted storage by trigger and outcome",
		},
		[]string{"store", "trigger", "status"},
	)

	corruptReads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketshub_storage_corrupt_reads_total",
			Help: "Persisted values that failed to parse and were treated as absent",
		},
		[]string{"key"},
	)

	locationChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketshub_location_changes_total",
			Help: "Location selections and clears",
		},
		[]string{"action"},
	)

	detectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticketshub_location_detection_duration_seconds",
			Help:    "Duration of location detection attempts",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 8),
		},
		[]string{"status"},
	)
)

// Monitor records store activity. A nil *Monitor is valid and records nothing.
type Monitor struct{}

func NewMonitor() *Monitor {
	return &Monitor{}
}

// Track session operations
func (m *Monitor) TrackSessionOperation(operation, status string) {
	if m == nil {
		return
	}
	sessionOperations.WithLabelValues(operation, status).Inc()
}

func (m *Monitor) TrackTicketIssued() {
	if m == nil {
		return
	}
	ticketsIssued.Inc()
}

// TrackSession publishes the session shape after a state change.
func (m *Monitor) TrackSession(authenticated bool, tickets int) {
	if m == nil {
		return
	}
	if authenticated {
		signedIn.Set(1)
	} else {
		signedIn.Set(0)
	}
	ticketsHeld.Set(float64(tickets))
}

func (m *Monitor) TrackReconcile(store, trigger, status string) {
	if m == nil {
		return
	}
	reconciliations.WithLabelValues(store, trigger, status).Inc()
}

func (m *Monitor) TrackCorruptRead(key string) {
	if m == nil {
		return
	}
	corruptReads.WithLabelValues(key).Inc()
}

func (m *Monitor) TrackLocationChange(action string) {
	if m == nil {
		return
	}
	locationChanges.WithLabelValues(action).Inc()
}

// Track location detection duration
func (m *Monitor) TrackDetection(status string, seconds float64) {
	if m == nil {
		return
	}
	detectionDuration.WithLabelValues(status).Observe(seconds)
}
