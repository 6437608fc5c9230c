package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_CountersAndPathFallback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics())
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "hello") })

	baseOK := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/ok", "200"))
	base404 := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404"))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/ok", "200")); got != baseOK+1 {
		t.Fatalf("ok counter = %v; want %v", got, baseOK+1)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/nope", "404")); got != base404+1 {
		t.Fatalf("404 counter = %v; want %v", got, base404+1)
	}
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("inflight should return to 0, got %v", got)
	}
}

func TestMetrics_StreamsUseGauge(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Metrics("/stream"))

	baseCount := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/stream", "200"))
	var during float64
	r.GET("/stream", func(c *gin.Context) {
		during = testutil.ToFloat64(httpStreams)
		c.Status(http.StatusOK)
	})

	before := testutil.ToFloat64(httpStreams)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/stream", nil))

	if during != before+1 {
		t.Fatalf("open streams during handler = %v; want %v", during, before+1)
	}
	if after := testutil.ToFloat64(httpStreams); after != before {
		t.Fatalf("open streams after = %v; want %v", after, before)
	}
	if got := testutil.ToFloat64(httpReqs.WithLabelValues("GET", "/stream", "200")); got != baseCount+1 {
		t.Fatalf("stream request not counted")
	}
}
