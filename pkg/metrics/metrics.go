package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use through a nil pointer; every recorder is then a no-op.
type Metrics struct {
	bookingsCommitted prometheus.Counter
	rejections        *prometheus.CounterVec
	commitRetries     prometheus.Counter
	commitDuration    prometheus.Histogram
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		bookingsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shuttle",
			Name:      "bookings_committed_total",
			Help:      "Bookings appended to the ledger.",
		}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shuttle",
			Name:      "rejections_total",
			Help:      "Rejected operations by reason code.",
		}, []string{"reason"}),
		commitRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shuttle",
			Name:      "commit_retries_total",
			Help:      "Ledger writes retried after a version conflict.",
		}),
		commitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shuttle",
			Name:      "commit_duration_seconds",
			Help:      "Time spent committing a booking, lock wait included.",
			Buckets:   prometheus.DefBuckets,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shuttle",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shuttle",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.bookingsCommitted,
		m.rejections,
		m.commitRetries,
		m.commitDuration,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) BookingCommitted() {
	if m == nil {
		return
	}
	m.bookingsCommitted.Inc()
}

func (m *Metrics) Rejected(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) CommitRetried() {
	if m == nil {
		return
	}
	m.commitRetries.Inc()
}

func (m *Metrics) ObserveCommit(seconds float64) {
	if m == nil {
		return
	}
	m.commitDuration.Observe(seconds)
}

func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}
