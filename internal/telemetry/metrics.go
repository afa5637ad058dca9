// Package telemetry provides Prometheus metrics and OpenTelemetry tracing helpers.
package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	// Counters
	EventsCreated      prometheus.Counter
	SignupsCommitted   prometheus.Counter
	SessionsStarted    prometheus.Counter
	SessionsFailed     prometheus.Counter
	SelectionsRejected prometheus.Counter
	RemindersSent      prometheus.Counter

	// Gauges
	ActiveSessions prometheus.Gauge

	// Histograms (seconds), labelled by operation
	StoreOpDuration *prometheus.HistogramVec
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		EventsCreated = promauto.NewCounter(prometheus.CounterOpts{Name: "slotbot_events_created_total", Help: "Number of events created"})
		SignupsCommitted = promauto.NewCounter(prometheus.CounterOpts{Name: "slotbot_signups_committed_total", Help: "Number of signups persisted"})
		SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{Name: "slotbot_signup_sessions_started_total", Help: "Number of signup sessions opened"})
		SessionsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "slotbot_signup_sessions_failed_total", Help: "Number of signup sessions that ended in error"})
		SelectionsRejected = promauto.NewCounter(prometheus.CounterOpts{Name: "slotbot_slot_selections_rejected_total", Help: "Number of slot selections outside the event window or unparsable"})
		RemindersSent = promauto.NewCounter(prometheus.CounterOpts{Name: "slotbot_reminders_sent_total", Help: "Number of slot reminders posted"})
		ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{Name: "slotbot_signup_sessions_active", Help: "Signup sessions currently held by the transport"})
		StoreOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{Name: "slotbot_store_op_duration_seconds", Help: "Event repository operation duration seconds", Buckets: prometheus.DefBuckets}, []string{"op"})
	})
}

// Inc increments c if metrics are initialised.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// SetActiveSessions records the number of live signup sessions.
func SetActiveSessions(n int) {
	if ActiveSessions != nil {
		ActiveSessions.Set(float64(n))
	}
}

// ObserveStoreOp records how long a repository operation took.
func ObserveStoreOp(op string, start time.Time) {
	if StoreOpDuration != nil {
		StoreOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
