package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vedhub/mailsync/internal/api/middleware"
	"github.com/vedhub/mailsync/internal/api/response"
	"github.com/vedhub/mailsync/internal/models"
	"github.com/vedhub/mailsync/internal/services"
)

// SyncHandler runs sync passes on request
type SyncHandler struct {
	engine  services.SyncEngine
	timeout time.Duration
}

// NewSyncHandler creates a new SyncHandler. timeout bounds one pass.
func NewSyncHandler(engine services.SyncEngine, timeout time.Duration) *SyncHandler {
	return &SyncHandler{engine: engine, timeout: timeout}
}

// SyncResponse is the flat pass summary returned to clients
type SyncResponse struct {
	Success bool `json:"success"`
	services.Summary
}

// SyncMail handles POST /api/mail/sync
func (h *SyncHandler) SyncMail(c echo.Context) error {
	return h.run(c, models.ScopeMail)
}

// SyncAlerts handles POST /api/alerts/sync
func (h *SyncHandler) SyncAlerts(c echo.Context) error {
	return h.run(c, models.ScopeAlerts)
}

func (h *SyncHandler) run(c echo.Context, scope string) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return response.Unauthorized(c, "session required")
	}

	ctx := c.Request().Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	summary, err := h.engine.RunOnce(ctx, userID, scope)
	if err != nil {
		return response.Error(c, err)
	}

	return c.JSON(http.StatusOK, SyncResponse{Success: true, Summary: *summary})
}
