package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// DefaultCORSOrigin is allowed when no origins are configured
const DefaultCORSOrigin = "http://localhost:3000"

// SecureCORS returns CORS middleware for the configured origins.
// Wildcards are dropped in production.
func SecureCORS(origins []string, production bool) echo.MiddlewareFunc {
	allowed := make([]string, 0, len(origins))
	for _, origin := range origins {
		if production && origin == "*" {
			continue
		}
		allowed = append(allowed, origin)
	}
	if len(allowed) == 0 {
		allowed = []string{DefaultCORSOrigin}
	}

	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     allowed,
		AllowMethods:     []string{echo.GET, echo.POST, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderXRequestID},
		ExposeHeaders:    []string{echo.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
