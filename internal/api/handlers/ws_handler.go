package handlers

import (
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/vedhub/mailsync/internal/api/middleware"
	"github.com/vedhub/mailsync/internal/api/response"
	"github.com/vedhub/mailsync/internal/logger"
	ws "github.com/vedhub/mailsync/internal/websocket"
)

// WSHandler attaches authenticated WebSocket connections to the hub
type WSHandler struct {
	hub            *ws.Hub
	upgrader       websocket.Upgrader
	securityLogger *logger.SecurityLogger
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *ws.Hub, upgrader websocket.Upgrader, securityLogger *logger.SecurityLogger) *WSHandler {
	return &WSHandler{hub: hub, upgrader: upgrader, securityLogger: securityLogger}
}

// Serve handles GET /ws
func (h *WSHandler) Serve(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return response.Unauthorized(c, "session required")
	}

	// A failed upgrade has already been answered by the upgrader
	if err := h.hub.ServeWS(c.Response(), c.Request(), &h.upgrader, userID); err != nil && h.securityLogger != nil {
		h.securityLogger.SecurityEvent("websocket_upgrade_rejected", c.RealIP(), map[string]string{
			"user_id": userID,
			"origin":  c.Request().Header.Get("Origin"),
			"reason":  err.Error(),
		})
	}
	return nil
}
