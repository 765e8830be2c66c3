// Package metrics exports Prometheus metrics for the ufsd servers
// (internal/server/rpcd, sftpd, drsd), grounded on the teacher's own
// metrics collector: one CounterVec for request counts and one
// HistogramVec for latency, both keyed by the serving component ("rpc",
// "sftp", "drs") and the operation name, one CounterVec for bytes moved
// keyed by component and direction (read/write), plus an
// active-connections gauge per component.
//
// Unlike the teacher's collector, there is no cache layer here to
// report on — UFS has no cache backend — so the cache-hit and
// cache-size metrics it exposed have no home and are dropped.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector aggregates Prometheus metrics for every ufsd server.
type Collector struct {
	registry          *prometheus.Registry
	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	bytesTotal        *prometheus.CounterVec
	activeConnections *prometheus.GaugeVec
}

// NewCollector builds a Collector with its own private registry, so
// multiple Collectors (as in tests) never collide on process-global
// state the way prometheus.DefaultRegisterer would.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ufs",
				Name:      "requests_total",
				Help:      "Total number of requests handled, by component, operation, and status.",
			},
			[]string{"component", "operation", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ufs",
				Name:      "request_duration_seconds",
				Help:      "Request latency in seconds, by component and operation.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
			},
			[]string{"component", "operation"},
		),
		bytesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ufs",
				Name:      "bytes_total",
				Help:      "Total bytes moved, by component and direction (read/write).",
			},
			[]string{"component", "direction"},
		),
		activeConnections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ufs",
				Name:      "active_connections",
				Help:      "Number of currently open connections, by component.",
			},
			[]string{"component"},
		),
	}
	registry.MustRegister(c.requestsTotal, c.requestDuration, c.bytesTotal, c.activeConnections)
	return c
}

// Observe records one completed operation: its latency since start, the
// number of bytes it moved in direction ("read" or "write", empty for
// operations that move none), and whether it succeeded.
func (c *Collector) Observe(component, operation string, start time.Time, direction string, bytes int64, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.requestsTotal.WithLabelValues(component, operation, status).Inc()
	c.requestDuration.WithLabelValues(component, operation).Observe(time.Since(start).Seconds())
	if bytes > 0 && direction != "" {
		c.bytesTotal.WithLabelValues(component, direction).Add(float64(bytes))
	}
}

// ConnOpened increments the active-connections gauge for component.
func (c *Collector) ConnOpened(component string) {
	if c == nil {
		return
	}
	c.activeConnections.WithLabelValues(component).Inc()
}

// ConnClosed decrements the active-connections gauge for component.
func (c *Collector) ConnClosed(component string) {
	if c == nil {
		return
	}
	c.activeConnections.WithLabelValues(component).Dec()
}

// Handler returns an http.Handler serving this Collector's metrics in
// Prometheus exposition format, suitable for mounting at /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
