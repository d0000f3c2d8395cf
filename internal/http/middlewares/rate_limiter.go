package middlewares

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/geocoder89/authbase/internal/apperr"
	"github.com/geocoder89/authbase/internal/http/respond"
	"github.com/geocoder89/authbase/internal/observability"
	"github.com/geocoder89/authbase/internal/ratelimit"
	"github.com/gin-gonic/gin"
)

type RateLimiter struct {
	limiter ratelimit.Limiter
	prom    *observability.Prom
	log     *slog.Logger
}

func NewRateLimiter(limiter ratelimit.Limiter, prom *observability.Prom, log *slog.Logger) *RateLimiter {
	return &RateLimiter{limiter: limiter, prom: prom, log: log}
}

// RateLimiterMiddleware enforces the limit for a derived key. Limiter errors
// let the request through.
func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		route := c.FullPath()
		decision, err := rl.limiter.Allow(c.Request.Context(), route+"|"+key)
		if err != nil {
			rl.log.WarnContext(c.Request.Context(), "rate_limiter_unavailable", "err", err, "route", route)
			c.Next()
			return
		}

		if decision.Remaining >= 0 {
			c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		}

		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}

			if rl.prom != nil {
				rl.prom.RateLimitedTotal.WithLabelValues(route).Inc()
			}

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			respond.Fail(c, apperr.New(http.StatusTooManyRequests, "Too many requests, please try again later", apperr.CodeRateLimited))
			return
		}

		c.Next()
	}
}

// helper functions

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return "ip:" + clientIP(c)
}

// For authenticated endpoints: rate limit by userID if available
func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok {
		return "user:" + id
	}

	return KeyByIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}
