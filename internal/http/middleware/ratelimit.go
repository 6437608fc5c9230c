// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements an in-memory token-bucket rate limiter with one
// bucket per client, built on golang.org/x/time/rate. Idle buckets are
// evicted opportunistically. The limiter is process-local, which matches the
// single-process daemon it protects.
package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByClientOrIP keys buckets by the X-Client-ID header when present and by
// the client IP otherwise. Keys are prefixed so the namespaces cannot collide.
func KeyByClientOrIP() keyFunc {
	return func(c *gin.Context) string {
		if id := strings.TrimSpace(c.GetHeader(ClientIDHeader)); id != "" {
			return "client:" + id
		}
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements a per-key token-bucket rate limiter. It is safe for
// concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc
	skip  map[string]struct{}

	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	lookups  uint64
}

// NewRateLimiter constructs a RateLimiter refilling rps tokens per second
// with the given burst (values <= 0 become 1). Requests whose route is in
// skip are never limited; the SSE stream is long-lived and reconnects would
// otherwise burn tokens.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc, skip ...string) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	rl := &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		skip:     make(map[string]struct{}, len(skip)),
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
	for _, p := range skip {
		rl.skip[p] = struct{}{}
	}
	return rl
}

// getVisitor returns the limiter for key, creating it if absent. Every 5000
// lookups, idle buckets are evicted before the requested one is touched.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= 5000 {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Handler returns the Gin middleware. Limited requests get 429 with the
// standard error envelope and Retry-After: 1.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := rl.skip[c.FullPath()]; ok {
			c.Next()
			return
		}
		if rl.getVisitor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
