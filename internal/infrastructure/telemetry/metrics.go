package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erp/invoice/internal/infrastructure/odata"
)

const metricsNamespace = "invoice"

// Metrics holds the Prometheus collectors of the service on a private registry.
// It is safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	lookups          *prometheus.CounterVec
	aggregations     *prometheus.CounterVec
	aggregationTime  prometheus.Histogram
	partialFailures  *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// NewMetrics creates and registers all collectors, including Go runtime and process
// collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "upstream_requests_total",
			Help:      "Total OData requests by source and outcome.",
		}, []string{"source", "outcome"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "OData request latency by source.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "product_plant_lookups_total",
			Help:      "Product-plant cache lookups by result (hit, negative_hit, miss).",
		}, []string{"result"}),
		aggregations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "aggregations_total",
			Help:      "Invoice aggregations by outcome.",
		}, []string{"outcome"}),
		aggregationTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of a full invoice aggregation.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}),
		partialFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "partial_enrichment_failures_total",
			Help:      "Enrichment branches that failed and were left empty.",
		}, []string{"branch"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Inbound HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Inbound HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.upstreamRequests,
		m.upstreamDuration,
		m.lookups,
		m.aggregations,
		m.aggregationTime,
		m.partialFailures,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// ObserveRequest records one upstream call.
func (m *Metrics) ObserveRequest(source odata.Source, outcome string, elapsed time.Duration) {
	m.upstreamRequests.WithLabelValues(source.String(), outcome).Inc()
	m.upstreamDuration.WithLabelValues(source.String()).Observe(elapsed.Seconds())
}

// ObserveLookup records one product-plant cache lookup.
func (m *Metrics) ObserveLookup(result string) {
	m.lookups.WithLabelValues(result).Inc()
}

// ObserveAggregation records one finished aggregation.
func (m *Metrics) ObserveAggregation(outcome string, elapsed time.Duration) {
	m.aggregations.WithLabelValues(outcome).Inc()
	m.aggregationTime.Observe(elapsed.Seconds())
}

// ObservePartialFailure records a failed enrichment branch.
func (m *Metrics) ObservePartialFailure(branch string) {
	m.partialFailures.WithLabelValues(branch).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// GinMiddleware records inbound request counts and latency by matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

var _ odata.MetricsRecorder = (*Metrics)(nil)
