// Package middleware provides HTTP middleware for the mail sync API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vedhub/mailsync/internal/logger"
	"github.com/vedhub/mailsync/internal/session"
)

// UserIDKey is the echo context key holding the authenticated user id
const UserIDKey = "user_id"

// SessionVerifier resolves a bearer token to a user id
type SessionVerifier interface {
	Verify(token, audience string) (string, error)
}

// SessionAuth requires a platform session token. Browsers cannot set headers on a
// WebSocket handshake, so the token is also accepted as the "token" query parameter there.
func SessionAuth(verifier SessionVerifier, sec *logger.SecurityLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c.Request())
			if token == "" && websocketUpgrade(c.Request()) {
				token = c.QueryParam("token")
			}

			if token == "" {
				if sec != nil {
					sec.AuthFailure(c.RealIP(), c.Path(), "missing session token")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
					"error": "missing session token",
					"code":  "UNAUTHORIZED",
				})
			}

			userID, err := verifier.Verify(token, session.AudienceSession)
			if err != nil {
				if sec != nil {
					sec.AuthFailure(c.RealIP(), c.Path(), "invalid session token")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, map[string]string{
					"error": "invalid session token",
					"code":  "UNAUTHORIZED",
				})
			}

			c.Set(UserIDKey, userID)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id, or "" outside SessionAuth
func UserID(c echo.Context) string {
	id, _ := c.Get(UserIDKey).(string)
	return id
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get(echo.HeaderAuthorization)
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func websocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
