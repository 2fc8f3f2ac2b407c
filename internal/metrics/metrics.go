// Package metrics exposes Prometheus counters for the lead pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a registry so that tests can build independent instances.
type Metrics struct {
	registry *prometheus.Registry

	submissions   *prometheus.CounterVec
	retries       prometheus.Counter
	notifications *prometheus.CounterVec
	sessions      prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lead_submissions_total",
			Help: "Lead submissions by result kind",
		}, []string{"kind"}),
		retries: factory.NewCounter(prometheus.CounterOpts{
			Name: "lead_storage_retries_total",
			Help: "Storage attempts repeated after a transient failure",
		}),
		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "lead_notifications_total",
			Help: "Staff notification attempts by channel and outcome",
		}, []string{"channel", "outcome"}),
		sessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "funnel_sessions_active",
			Help: "Funnel sessions currently tracked in memory",
		}),
	}
}

func (m *Metrics) SubmissionObserved(kind string) {
	m.submissions.WithLabelValues(kind).Inc()
}

func (m *Metrics) StorageRetried() {
	m.retries.Inc()
}

func (m *Metrics) NotificationObserved(channel, outcome string) {
	m.notifications.WithLabelValues(channel, outcome).Inc()
}

// SetActiveSessions records the funnel session count after a sweep.
func (m *Metrics) SetActiveSessions(n int) {
	m.sessions.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
