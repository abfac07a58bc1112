package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	dispatchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_dispatch_outcomes_total",
			Help: "Per-recipient dispatch outcomes",
		},
		[]string{"destination", "outcome"},
	)

	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parley_dispatch_duration_seconds",
			Help:    "Full fan-out duration per dispatch",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"destination"},
	)

	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_sessions_active",
			Help: "Number of open sessions",
		},
	)

	connectedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_connected_clients",
			Help: "Number of registered bus clients",
		},
	)

	registerOnce sync.Once
)

// Metrics records core activity into prometheus. A nil *Metrics is a valid
// no-op recorder, so wiring stays optional in tests.
type Metrics struct{}

// InitMetrics registers the collectors and returns a recorder.
func InitMetrics() *Metrics {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			dispatchTotal,
			dispatchDuration,
			sessionsActive,
			connectedClients,
		)
	})
	return &Metrics{}
}

// RecordOutcome counts one per-recipient outcome.
func (m *Metrics) RecordOutcome(destination, outcome string) {
	if m == nil {
		return
	}
	dispatchTotal.WithLabelValues(destination, outcome).Inc()
}

// RecordDispatch observes the duration of one full fan-out.
func (m *Metrics) RecordDispatch(destination string, elapsed time.Duration) {
	if m == nil {
		return
	}
	dispatchDuration.WithLabelValues(destination).Observe(elapsed.Seconds())
}

// SessionOpened increments the open-session gauge.
func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	sessionsActive.Inc()
}

// SessionClosed decrements the open-session gauge.
func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	sessionsActive.Dec()
}

// ClientConnected increments the connected-client gauge.
func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	connectedClients.Inc()
}

// ClientDisconnected decrements the connected-client gauge.
func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	connectedClients.Dec()
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
