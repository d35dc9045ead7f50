package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "ecodetect"

// Metrics holds the estimation collectors. Each Metrics owns its registry so
// several servers can coexist in one process.
type Metrics struct {
	registry   *prometheus.Registry
	footprints *prometheus.CounterVec
	emissions  *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	batchItems prometheus.Histogram
	httpTotal  *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		footprints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "footprint_estimates_total",
			Help:      "Footprint estimates by result source (api, local, none).",
		}, []string{"source"}),
		emissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "emissions_estimates_total",
			Help:      "Emissions estimates by fallback tier.",
		}, []string{"tier"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "estimation_duration_seconds",
			Help:      "Time spent producing an estimate.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"kind"}),
		batchItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "batch_request_items",
			Help:      "Number of items per batch emissions request.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 11),
		}),
		httpTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
	}
	m.registry.MustRegister(
		m.footprints,
		m.emissions,
		m.duration,
		m.batchItems,
		m.httpTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the registry for tests and embedding.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeFootprint(source string, start time.Time) {
	m.footprints.WithLabelValues(source).Inc()
	m.duration.WithLabelValues("footprint").Observe(time.Since(start).Seconds())
}

func (m *Metrics) observeEmissions(tier string, start time.Time) {
	m.emissions.WithLabelValues(tier).Inc()
	m.duration.WithLabelValues("emissions").Observe(time.Since(start).Seconds())
}

// instrument counts requests per route template.
func (m *Metrics) instrument(route string, next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(m.httpTotal.MustCurryWith(prometheus.Labels{"route": route}), next)
}
