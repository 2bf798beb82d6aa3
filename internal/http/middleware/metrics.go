// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation. Metrics() measures request
// counts, latencies, in-flight concurrency and response sizes. The path
// label uses the registered Gin route (e.g. /api/v1/listings/:slug), not the
// raw URL, so slugs and ids do not explode label cardinality. Domain-level
// counters for listing lifecycle events live here as well so the handler
// layer has a single registration point.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// httpReqs counts requests by method, route path and status code.
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// httpLat records duration in seconds by method and route path; status
	// is omitted to keep histogram cardinality down.
	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// httpInflight gauges requests currently being processed.
	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// httpRespSize captures response sizes; buckets are tuned for JSON API
	// payloads up to image-upload result envelopes.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_response_size_bytes",
			Help: "Size of HTTP responses in bytes.",
			Buckets: []float64{
				200, 500, 1 << 10, 2 << 10, 5 << 10,
				10 << 10, 25 << 10, 50 << 10,
				100 << 10, 250 << 10, 500 << 10,
				1 << 20, 2 << 20, 5 << 20,
			},
		},
		[]string{"method", "path"},
	)

	// listingEvents counts listing lifecycle outcomes by event name
	// (created, approved, rejected, deleted).
	listingEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaar_listing_events_total",
			Help: "Total listing lifecycle events by type.",
		},
		[]string{"event"},
	)

	// imageUploads counts image upload outcomes per file.
	imageUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bazaar_image_uploads_total",
			Help: "Total listing image upload attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpRespSize,
		listingEvents, imageUploads)
}

// CountListingEvent increments the lifecycle counter for one event
// (created, approved, rejected, deleted).
func CountListingEvent(event string) {
	listingEvents.WithLabelValues(event).Inc()
}

// CountImageUpload increments the upload counter for one per-file outcome
// (stored, failed).
func CountImageUpload(outcome string) {
	imageUploads.WithLabelValues(outcome).Inc()
}

// Metrics returns a Gin middleware that instruments requests with
// Prometheus. Install once near the top of the chain; expose the scrape
// endpoint with gin.WrapH(promhttp.Handler()).
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		dur := time.Since(start).Seconds()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		httpReqs.WithLabelValues(method, path, status).Inc()
		httpLat.WithLabelValues(method, path).Observe(dur)
		// Size is -1 for hijacked connections; skip those.
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
