// Package middleware provides the shared HTTP middleware chain:
// request identification, access logging and rate limiting.
package middleware

import (
	"context"
	"net/http"
	"time"

	"origination_backend/platform/httpkit"
	"origination_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the request correlation ID in and out.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns a correlation ID to every request, honouring one
// supplied by the caller.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, id)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs each request with method, path, status and latency.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := float64(time.Since(start).Microseconds()) / 1000.0
		log.HTTPRequest(c.Request.Method, c.Request.URL.Path, c.Writer.Status(), latency, c.ClientIP())
	}
}

// RateLimit applies a global token-bucket limit to the API surface.
func RateLimit(perSecond float64, burst int, log *logger.Logger) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			log.RateLimitExceeded(c.ClientIP(), c.Request.URL.Path)
			httpkit.Error(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
