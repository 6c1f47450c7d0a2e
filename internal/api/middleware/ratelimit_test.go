package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_WithinLimit(t *testing.T) {
	e := echo.New()
	// Allow 10 requests per second with burst of 20
	e.Use(RateLimiterWithConfig(10, 20, nil))
	e.GET("/api/mail/messages", func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	})

	// First request should pass
	req := httptest.NewRequest(http.MethodGet, "/api/mail/messages", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_ExceedsLimit(t *testing.T) {
	e := echo.New()
	// Very restrictive: 1 request per second, burst of 1
	e.Use(RateLimiterWithConfig(1, 1, nil))
	e.GET("/api/mail/messages", func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	})

	// First request should pass
	req1 := httptest.NewRequest(http.MethodGet, "/api/mail/messages", nil)
	rec1 := httptest.NewRecorder()
	e.ServeHTTP(rec1, req1)
	assert.Equal(t, http.StatusOK, rec1.Code)

	// Second request should be rate limited
	req2 := httptest.NewRequest(http.MethodGet, "/api/mail/messages", nil)
	rec2 := httptest.NewRecorder()
	e.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
}

func TestRateLimiter_RetryAfterHeader(t *testing.T) {
	e := echo.New()
	// Very restrictive: 1 request per second, burst of 1
	e.Use(RateLimiterWithConfig(1, 1, nil))
	e.GET("/api/mail/messages", func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	})

	// First request
	req1 := httptest.NewRequest(http.MethodGet, "/api/mail/messages", nil)
	rec1 := httptest.NewRecorder()
	e.ServeHTTP(rec1, req1)

	// Second request should have Retry-After header
	req2 := httptest.NewRequest(http.MethodGet, "/api/mail/messages", nil)
	rec2 := httptest.NewRecorder()
	e.ServeHTTP(rec2, req2)

	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
	assert.Equal(t, "60", rec2.Header().Get("Retry-After"))
}

func TestRateLimiter_PerIPIsolation(t *testing.T) {
	e := echo.New()
	// Very restrictive: 1 request per second, burst of 1
	e.Use(RateLimiterWithConfig(1, 1, nil))
	e.GET("/api/mail/messages", func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	})

	// Request from IP 1
	req1 := httptest.NewRequest(http.MethodGet, "/api/mail/messages", nil)
	req1.Header.Set("X-Real-IP", "192.168.1.1")
	rec1 := httptest.NewRecorder()
	e.ServeHTTP(rec1, req1)
	assert.Equal(t, http.StatusOK, rec1.Code)

	// Request from IP 2 should also pass (different IP)
	req2 := httptest.NewRequest(http.MethodGet, "/api/mail/messages", nil)
	req2.Header.Set("X-Real-IP", "192.168.1.2")
	rec2 := httptest.NewRecorder()
	e.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusOK, rec2.Code)

	// Second request from IP 1 should be rate limited
	req3 := httptest.NewRequest(http.MethodGet, "/api/mail/messages", nil)
	req3.Header.Set("X-Real-IP", "192.168.1.1")
	rec3 := httptest.NewRecorder()
	e.ServeHTTP(rec3, req3)
	assert.Equal(t, http.StatusTooManyRequests, rec3.Code)
}

func TestIPRateLimiter_GetLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(10, 20)

	// Get limiter for IP
	l1 := limiter.GetLimiter("192.168.1.1")
	assert.NotNil(t, l1)

	// Same IP should return same limiter (same pointer)
	l2 := limiter.GetLimiter("192.168.1.1")
	assert.Same(t, l1, l2)

	// Different IP should return different limiter (different pointer)
	l3 := limiter.GetLimiter("192.168.1.2")
	assert.NotSame(t, l1, l3)
}

func TestIPRateLimiter_CleanupOldEntries(t *testing.T) {
	limiter := NewIPRateLimiter(10, 20)
	now := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.GetLimiter("192.168.1.1")
	now = now.Add(15 * time.Minute)
	recent := limiter.GetLimiter("192.168.1.2")

	limiter.CleanupOldEntries(10 * time.Minute)

	assert.Equal(t, 1, limiter.Len())
	assert.Same(t, recent, limiter.GetLimiter("192.168.1.2"))
}

func TestRateLimiter_StopsSweeperWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e := echo.New()
	e.Use(RateLimiter(ctx, 1, 1, nil))
	e.GET("/api/mail/messages", func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	})
	cancel()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/mail/messages", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter_BurstAllowed(t *testing.T) {
	e := echo.New()
	// Allow burst of 5
	e.Use(RateLimiterWithConfig(1, 5, nil))
	e.GET("/api/mail/messages", func(c echo.Context) error {
		return c.String(http.StatusOK, "success")
	})

	// First 5 requests should pass (burst)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/mail/messages", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "Request %d should pass", i+1)
	}

	// 6th request should be rate limited
	req := httptest.NewRequest(http.MethodGet, "/api/mail/messages", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
