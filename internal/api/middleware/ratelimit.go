package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/vedhub/mailsync/internal/logger"
)

// limiterIdleTTL is how long an IP's limiter survives without requests
const limiterIdleTTL = 10 * time.Minute

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter manages rate limiters per IP address
type IPRateLimiter struct {
	limiters map[string]*ipLimiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		limiters: make(map[string]*ipLimiter),
		rate:     r,
		burst:    b,
		now:      time.Now,
	}
}

// GetLimiter returns the rate limiter for the given IP
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	entry, exists := i.limiters[ip]
	if !exists {
		entry = &ipLimiter{limiter: rate.NewLimiter(i.rate, i.burst)}
		i.limiters[ip] = entry
	}
	entry.lastSeen = i.now()

	return entry.limiter
}

// CleanupOldEntries drops limiters idle for longer than ttl
func (i *IPRateLimiter) CleanupOldEntries(ttl time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()

	cutoff := i.now().Add(-ttl)
	for ip, entry := range i.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(i.limiters, ip)
		}
	}
}

// Len returns the number of tracked IPs
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.limiters)
}

// RateLimiter returns per-IP rate limiting middleware. Idle entries are swept until ctx is done.
func RateLimiter(ctx context.Context, requestsPerSecond float64, burst int, sec *logger.SecurityLogger) echo.MiddlewareFunc {
	limiter := NewIPRateLimiter(rate.Limit(requestsPerSecond), burst)

	go func() {
		ticker := time.NewTicker(limiterIdleTTL)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.CleanupOldEntries(limiterIdleTTL)
			}
		}
	}()

	return rateLimit(limiter, sec)
}

// RateLimiterWithConfig returns rate limiting middleware without background cleanup
func RateLimiterWithConfig(requestsPerSecond float64, burst int, sec *logger.SecurityLogger) echo.MiddlewareFunc {
	return rateLimit(NewIPRateLimiter(rate.Limit(requestsPerSecond), burst), sec)
}

func rateLimit(limiter *IPRateLimiter, sec *logger.SecurityLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !limiter.GetLimiter(ip).Allow() {
				if sec != nil {
					sec.RateLimitExceeded(ip, c.Path())
				}

				c.Response().Header().Set("Retry-After", "60")
				return echo.NewHTTPError(http.StatusTooManyRequests, map[string]string{
					"error":       "rate limit exceeded",
					"code":        "RATE_LIMITED",
					"retry_after": "60",
				})
			}

			return next(c)
		}
	}
}
