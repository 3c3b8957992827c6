package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "skywatch"

// Poll tick outcomes recorded by ObserveTick.
const (
	OutcomeUpdate    = "update"
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeTimeout   = "timeout"
	OutcomeTransient = "transient"
)

// Metrics holds the Prometheus collectors for job polling and backend calls.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	PollTicks       *prometheus.CounterVec   // labels: kind, outcome
	ActivePolls     *prometheus.GaugeVec     // labels: kind
	JobDuration     *prometheus.HistogramVec // labels: kind, outcome
	BackendRequests *prometheus.CounterVec   // labels: endpoint, code
	RateLimitWait   prometheus.Histogram
}

func newCollectors() *Metrics {
	return &Metrics{
		PollTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_ticks_total",
			Help:      "Job status queries by job kind and outcome.",
		}, []string{"kind", "outcome"}),
		ActivePolls: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_polls",
			Help:      "Polling loops currently running.",
		}, []string{"kind"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Time from poll start to terminal state.",
			Buckets:   []float64{5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"kind", "outcome"}),
		BackendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Backend API requests by endpoint and HTTP status code.",
		}, []string{"endpoint", "code"}),
		RateLimitWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rate_limit_wait_seconds",
			Help:      "Time spent waiting on the per-endpoint rate limiter.",
			Buckets:   []float64{0, 0.05, 0.1, 0.25, 0.5, 1, 2},
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newCollectors()
	prometheus.MustRegister(
		m.PollTicks,
		m.ActivePolls,
		m.JobDuration,
		m.BackendRequests,
		m.RateLimitWait,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newCollectors()
}

// ObserveTick counts one poll tick for the given job kind.
func (m *Metrics) ObserveTick(kind, outcome string) {
	if m == nil {
		return
	}
	m.PollTicks.WithLabelValues(kind, outcome).Inc()
}

// PollStarted marks a polling loop as running.
func (m *Metrics) PollStarted(kind string) {
	if m == nil {
		return
	}
	m.ActivePolls.WithLabelValues(kind).Inc()
}

// PollStopped marks a polling loop as finished and records its duration.
func (m *Metrics) PollStopped(kind, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ActivePolls.WithLabelValues(kind).Dec()
	m.JobDuration.WithLabelValues(kind, outcome).Observe(elapsed.Seconds())
}

// ObserveRequest counts one backend request.
func (m *Metrics) ObserveRequest(endpoint, code string) {
	if m == nil {
		return
	}
	m.BackendRequests.WithLabelValues(endpoint, code).Inc()
}

// ObserveRateLimitWait records time spent blocked on the rate limiter.
func (m *Metrics) ObserveRateLimitWait(d time.Duration) {
	if m == nil {
		return
	}
	m.RateLimitWait.Observe(d.Seconds())
}
