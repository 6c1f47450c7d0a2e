package middleware

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// RequestID tags each request with an id, reusing a well-formed inbound X-Request-ID
func RequestID() echo.MiddlewareFunc {
	return middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	})
}

// RequestLogger returns a middleware that logs HTTP requests
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// Let echo write the error response so the logged status is the real one
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			attrs := []any{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", res.Status),
				slog.Duration("latency", time.Since(start)),
				slog.String("remote_ip", c.RealIP()),
				slog.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
			}
			if userID := UserID(c); userID != "" {
				attrs = append(attrs, slog.String("user_id", userID))
			}
			logger.Info("request", attrs...)

			return nil
		}
	}
}

// Recover returns a middleware that recovers from panics
func Recover() echo.MiddlewareFunc {
	return middleware.Recover()
}
