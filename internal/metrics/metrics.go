package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the check service. Each
// instance owns its registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	Checks        *prometheus.CounterVec
	CheckDuration prometheus.Histogram
	Attempts      prometheus.Histogram
	StreakErrors  *prometheus.CounterVec
	SinkErrors    prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uptime_checks_total",
			Help: "Completed checks by outcome (UP, DOWN, MAINTENANCE, input, not_found, canceled, internal).",
		}, []string{"outcome"}),
		CheckDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "uptime_check_duration_seconds",
			Help:    "Wall time of a whole check including retries.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		Attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "uptime_check_attempts",
			Help:    "Probe attempts made per check.",
			Buckets: prometheus.LinearBuckets(1, 1, 11),
		}),
		StreakErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "uptime_streak_store_errors_total",
			Help: "Failed streak store operations.",
		}, []string{"op"}),
		SinkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "uptime_result_sink_errors_total",
			Help: "Results that could not be written to a sink.",
		}),
	}
	m.Registry.MustRegister(
		m.Checks, m.CheckDuration, m.Attempts, m.StreakErrors, m.SinkErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) ObserveCheck(outcome string, d time.Duration, attempts int) {
	m.Checks.WithLabelValues(outcome).Inc()
	m.CheckDuration.Observe(d.Seconds())
	if attempts > 0 {
		m.Attempts.Observe(float64(attempts))
	}
}

func (m *Metrics) StreakStoreError(op string) {
	m.StreakErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) SinkError() {
	m.SinkErrors.Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
