// Package httpapi wires the Gin transport to the check worker. It owns the
// middleware stack and mounts the versioned API under cfg.APIBasePath.
//
// Middleware order:
//  1. OpenTelemetry
//  2. RequestID, Logger, Recovery
//  3. Body size limit
//  4. Metrics (+ /metrics)
//  5. gzip, skipping the event stream
//  6. Rate limiter per client or IP, skipping the event stream
//  7. CORS and security headers
package httpapi

import (
	"net/http"
	"path"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/tbourn/panopto-checks/docs"
	"github.com/tbourn/panopto-checks/internal/config"
	"github.com/tbourn/panopto-checks/internal/http/handlers"
	"github.com/tbourn/panopto-checks/internal/http/middleware"
)

const maxBodyBytes = 1 << 20

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-ID", middleware.ClientIDHeader}
	corsExpose  = []string{"X-Request-ID", "Content-Length"}
)

// RegisterRoutes attaches the middleware stack and every endpoint to r.
// Commands go to bus; broadcasts are read from stream.
func RegisterRoutes(r *gin.Engine, bus handlers.CommandBus, stream handlers.EventStream, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	apiBase := cfg.APIBasePath
	streamPath := path.Join("/", apiBase, "stream")

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger("/health", "/metrics"))
	r.Use(middleware.Recovery())

	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics(streamPath))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{streamPath})))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientOrIP(), streamPath, "/health", "/metrics")
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      true,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	h := handlers.New(bus, stream, cfg.ViewChecksURL)

	api := groupWithPrefix(r, apiBase)
	{
		api.POST("/messages", h.PostMessage)

		api.GET("/checks", h.ListChecks)
		api.POST("/checks/:id/complete", h.CompleteCheck)

		api.POST("/notifications/actions", h.NotificationAction)

		api.GET("/stream", h.Stream)
	}
}

// corsMiddleware allows every origin when none are configured, and echoes
// allowlisted origins otherwise.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	if len(origins) == 0 {
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins: true,
				AllowMethods:    corsMethods,
				AllowHeaders:    corsHeaders,
				ExposeHeaders:   corsExpose,
				MaxAge:          12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:  origins,
			AllowMethods:  corsMethods,
			AllowHeaders:  corsHeaders,
			ExposeHeaders: corsExpose,
			MaxAge:        12 * time.Hour,
		}),
	}
}

// limitBody caps request bodies at maxBytes.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
