package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTPMetrics counts requests served by the health endpoint.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func (m *HTTPMetrics) Observe(method, path, status string, elapsed time.Duration) {
	m.requests.WithLabelValues(method, path, status).Inc()
	m.duration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// NewRegistry builds a private registry with the health collector, the HTTP
// metrics, the reporter's drop counter (when dropped is not nil) and the Go
// runtime and process collectors.
func NewRegistry(source SnapshotSource, dropped func() int64) (*prometheus.Registry, *HTTPMetrics) {
	reg := prometheus.NewRegistry()
	hm := &HTTPMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of health endpoint requests",
			},
			[]string{"method", "path", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Health endpoint request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "path"},
		),
	}
	reg.MustRegister(
		NewCollector(source),
		hm.requests,
		hm.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if dropped != nil {
		reg.MustRegister(prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_events_dropped_total",
				Help:      "Fleet events dropped because the report buffer was full",
			},
			func() float64 { return float64(dropped()) },
		))
	}
	return reg, hm
}
