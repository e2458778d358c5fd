// Package metrics exposes Prometheus collectors for scans and HTTP traffic
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raaihank/bias-auditor/internal/bias"
)

const namespace = "bias_auditor"

// Collector holds the service's metrics on a private registry
type Collector struct {
	registry *prometheus.Registry

	scansTotal     *prometheus.CounterVec
	findingsTotal  *prometheus.CounterVec
	scanDuration   *prometheus.HistogramVec
	scores         prometheus.Histogram
	cacheLookups   *prometheus.CounterVec
	uploadsRemoved prometheus.Counter
	httpRequests   *prometheus.CounterVec
}

// New creates a collector with process and Go runtime metrics registered
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		scansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Completed scans by source and risk level",
		}, []string{"source", "level"}),
		findingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Flagged sentences by category",
		}, []string{"category"}),
		scanDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Time spent extracting and scanning a document",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"source"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score",
			Help:      "Distribution of bias density scores",
			Buckets:   []float64{0, 3, 10, 25, 50, 75, 100},
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Report cache lookups by result",
		}, []string{"result"}),
		uploadsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_uploads_removed_total",
			Help:      "Leftover upload files deleted by the sweeper",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.scansTotal,
		c.findingsTotal,
		c.scanDuration,
		c.scores,
		c.cacheLookups,
		c.uploadsRemoved,
		c.httpRequests,
	)

	return c
}

// ObserveScan records a finished scan
func (c *Collector) ObserveScan(source string, report bias.Report, duration time.Duration) {
	c.scansTotal.WithLabelValues(source, string(report.Level)).Inc()
	c.scanDuration.WithLabelValues(source).Observe(duration.Seconds())
	c.scores.Observe(report.Score)
	for category, n := range report.CategoryCounts() {
		c.findingsTotal.WithLabelValues(category).Add(float64(n))
	}
}

// ObserveCache records a cache lookup
func (c *Collector) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveSweep records uploads removed by the sweeper
func (c *Collector) ObserveSweep(removed int) {
	c.uploadsRemoved.Add(float64(removed))
}

// ObserveRequest records an HTTP response
func (c *Collector) ObserveRequest(route string, code int) {
	c.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Registry exposes the underlying registry for tests
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
