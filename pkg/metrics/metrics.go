package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one engine. Each engine gets its own
// registry so parallel engines in one test binary never collide.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	unmatched prometheus.Counter
	stubs     prometheus.Gauge
	starts    prometheus.Counter
}

// Option configures New.
type Option func(*Metrics)

// WithGoCollectors adds the Go runtime and process collectors. Useful for a
// long-running standalone engine; pointless inside a test binary.
func WithGoCollectors() Option {
	return func(m *Metrics) {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

// New creates and registers the engine collectors.
func New(opts ...Option) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mockscope_requests_total",
			Help: "Requests received by the engine.",
		}, []string{"method", "matched"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mockscope_request_duration_seconds",
			Help:    "Time to serve a request, including configured delays.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"matched"}),
		unmatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mockscope_unmatched_requests_total",
			Help: "Requests that matched no stub.",
		}),
		stubs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mockscope_stubs",
			Help: "Stubs currently registered.",
		}),
		starts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mockscope_engine_starts_total",
			Help: "Times the engine was started.",
		}),
	}
	m.registry.MustRegister(m.requests, m.duration, m.unmatched, m.stubs, m.starts)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(method string, matched bool, d time.Duration) {
	if m == nil {
		return
	}
	label := strconv.FormatBool(matched)
	m.requests.WithLabelValues(method, label).Inc()
	m.duration.WithLabelValues(label).Observe(d.Seconds())
	if !matched {
		m.unmatched.Inc()
	}
}

// SetStubs records the current stub count.
func (m *Metrics) SetStubs(n int) {
	if m == nil {
		return
	}
	m.stubs.Set(float64(n))
}

// EngineStarted counts an engine start.
func (m *Metrics) EngineStarted() {
	if m == nil {
		return
	}
	m.starts.Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
