package handlers

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vedhub/mailsync/internal/api/middleware"
	"github.com/vedhub/mailsync/internal/api/response"
	"github.com/vedhub/mailsync/internal/logger"
	"github.com/vedhub/mailsync/internal/services"
	"github.com/vedhub/mailsync/internal/session"
)

// StateIssuer mints and checks the signed consent state
type StateIssuer interface {
	Sign(userID, audience string, ttl time.Duration) (string, error)
	Verify(token, audience string) (string, error)
}

// OAuthHandler connects a user's mailbox through provider consent
type OAuthHandler struct {
	tokens services.TokenManager
	states StateIssuer
	sec    *logger.SecurityLogger
}

// NewOAuthHandler creates a new OAuthHandler
func NewOAuthHandler(tokens services.TokenManager, states StateIssuer, sec *logger.SecurityLogger) *OAuthHandler {
	return &OAuthHandler{tokens: tokens, states: states, sec: sec}
}

// ConnectResponse reports a completed consent
type ConnectResponse struct {
	Connected bool      `json:"connected"`
	UserID    string    `json:"user_id"`
	Expiry    time.Time `json:"expiry"`
}

// URL handles GET /api/oauth/google/url. The state names the session's user,
// since the provider redirect back carries no session.
func (h *OAuthHandler) URL(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return response.Unauthorized(c, "session required")
	}

	state, err := h.states.Sign(userID, session.AudienceOAuthState, session.OAuthStateTTL)
	if err != nil {
		return response.InternalError(c, "failed to create consent state")
	}
	return response.Success(c, map[string]string{"url": h.tokens.AuthCodeURL(state)})
}

// Callback handles GET /api/oauth/google/callback
func (h *OAuthHandler) Callback(c echo.Context) error {
	if denied := c.QueryParam("error"); denied != "" {
		return response.BadRequest(c, "consent was not granted: "+denied)
	}

	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" || state == "" {
		return response.BadRequest(c, "code and state are required")
	}

	userID, err := h.states.Verify(state, session.AudienceOAuthState)
	if err != nil {
		if h.sec != nil {
			h.sec.OAuthStateMismatch(c.RealIP(), "", "invalid or expired state")
		}
		return response.BadRequest(c, "invalid or expired state")
	}

	cred, err := h.tokens.Exchange(c.Request().Context(), userID, code)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, ConnectResponse{
		Connected: true,
		UserID:    cred.UserID,
		Expiry:    cred.Expiry,
	})
}
