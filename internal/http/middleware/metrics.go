// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file exposes Prometheus instrumentation for HTTP traffic. Labels are
// kept bounded by using the registered route (c.FullPath()) and falling back
// to the raw path only when nothing matched:
//
//   - method: HTTP method verb
//   - path:   route template, e.g. /api/v1/checks/:id/complete
//   - status: numeric status code as a string
//
// Streaming routes (the SSE feed) stay open for minutes, so they are counted
// in http_streams_open instead of the latency and size histograms.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests, streams excluded.",
		},
	)

	httpStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_streams_open",
			Help: "Currently open streaming responses.",
		},
	)

	// JSON replies here are small: a check list for one day at most.
	httpRespSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: []float64{100, 250, 500, 1 << 10, 4 << 10, 16 << 10, 64 << 10, 256 << 10},
		},
		[]string{"method", "path"},
	)
)

func init() {
	prometheus.MustRegister(httpReqs, httpLat, httpInflight, httpStreams, httpRespSize)
}

// Metrics returns a Gin middleware that instruments requests with Prometheus.
// Routes named in streams are tracked only by the open-streams gauge and the
// request counter.
func Metrics(streams ...string) gin.HandlerFunc {
	streamSet := make(map[string]struct{}, len(streams))
	for _, s := range streams {
		streamSet[s] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		method := c.Request.Method

		if _, ok := streamSet[path]; ok {
			httpStreams.Inc()
			defer httpStreams.Dec()
			c.Next()
			httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
			return
		}

		start := time.Now()
		httpInflight.Inc()
		defer httpInflight.Dec()

		c.Next()

		httpReqs.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpLat.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		if size := c.Writer.Size(); size >= 0 {
			httpRespSize.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}
