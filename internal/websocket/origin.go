package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// DefaultAllowedOrigin is accepted when no origins are configured
const DefaultAllowedOrigin = "http://localhost:3000"

// NewSecureUpgrader creates a WebSocket upgrader that only accepts the given origins
func NewSecureUpgrader(allowedOrigins []string, logger *slog.Logger) websocket.Upgrader {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			allowed[origin] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		allowed[DefaultAllowedOrigin] = struct{}{}
	}

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			// Same-origin and non-browser clients send none
			if origin == "" {
				return true
			}
			if _, ok := allowed[origin]; ok {
				return true
			}

			if logger != nil {
				logger.Warn("rejected websocket connection",
					slog.String("origin", origin),
					slog.String("remote_ip", r.RemoteAddr))
			}
			return false
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}
