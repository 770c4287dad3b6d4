package web

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"wealthreactor/infrastructure/observability"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader = "X-Request-ID"
	operatorKey     = "operator"
)

// TokenVerifier resolves a bearer token to an operator name
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// RequestLogger logs every request and records its duration
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		fields := log.Fields{
			"requestId": requestID,
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    status,
			"latency":   latency.String(),
			"clientIp":  c.ClientIP(),
		}
		if status >= http.StatusInternalServerError {
			log.WithFields(fields).Warn("HTTP request")
		} else {
			log.WithFields(fields).Info("HTTP request")
		}

		observability.GetMetrics().RecordHTTPRequest(c.Request.Method, route, status, latency)
	}
}

// AdminAuth requires a valid operator bearer token
func AdminAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   &APIError{Code: CodeUnauthorized, Message: "admin access is not configured"},
			})
			return
		}

		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   &APIError{Code: CodeUnauthorized, Message: "bearer token required"},
			})
			return
		}

		operator, err := verifier.Verify(parts[1])
		if err != nil {
			log.WithFields(log.Fields{
				"path":     c.Request.URL.Path,
				"clientIp": c.ClientIP(),
				"error":    err,
			}).Warn("Rejected admin token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   &APIError{Code: CodeUnauthorized, Message: "invalid or expired token"},
			})
			return
		}

		c.Set(operatorKey, operator)
		c.Next()
	}
}

// RateLimiter throttles requests per client IP with a token bucket each
type RateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	visitors map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing perSecond requests with the given burst per IP
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:    limit,
		burst:    burst,
		idleTTL:  10 * time.Minute,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// Allow reports whether a request from key may proceed
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Sweep forgets visitors idle for longer than the idle TTL
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleTTL)
	removed := 0
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed
}

// Middleware rejects clients over their budget with 429
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			log.WithFields(log.Fields{
				"clientIp": c.ClientIP(),
				"path":     c.Request.URL.Path,
			}).Warn("Rate limit exceeded")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{
				Success: false,
				Error:   &APIError{Code: CodeRateLimited, Message: "too many requests"},
			})
			return
		}
		c.Next()
	}
}
