package http

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the API server.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewMetrics registers the HTTP metrics on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the HTTP metrics on the given registerer.
// Tests pass a fresh registry to avoid duplicate registration panics.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	auto := promauto.With(reg)

	return &Metrics{
		requests: auto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "stridemate",
				Subsystem: "api",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by path, method and status code",
			},
			[]string{"path", "method", "status"},
		),
		duration: auto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "stridemate",
				Subsystem: "api",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
		inFlight: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: "stridemate",
			Subsystem: "api",
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		}),
	}
}

// ObserveRequest records a completed request.
func (m *Metrics) ObserveRequest(method, path string, status int, duration time.Duration) {
	m.requests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RequestStarted marks a request as in flight. The returned func marks
// it finished.
func (m *Metrics) RequestStarted() func() {
	m.inFlight.Inc()
	return m.inFlight.Dec
}
