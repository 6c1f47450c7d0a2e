package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vedhub/mailsync/internal/api/middleware"
	"github.com/vedhub/mailsync/internal/api/response"
	"github.com/vedhub/mailsync/internal/gmail"
	"github.com/vedhub/mailsync/internal/models"
	"github.com/vedhub/mailsync/internal/services"
	"github.com/vedhub/mailsync/internal/validator"
)

// MailHandler handles mailbox actions, compose and reads of the local mirror
type MailHandler struct {
	engine services.SyncEngine
}

// NewMailHandler creates a new MailHandler
func NewMailHandler(engine services.SyncEngine) *MailHandler {
	return &MailHandler{engine: engine}
}

// ActionRequest represents the request body for a mailbox action
type ActionRequest struct {
	ID     uint   `json:"id"`
	Action string `json:"action"`
}

// ComposeRequest represents the request body for send and draft
type ComposeRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
	HTML    string `json:"html"`
}

// Action handles POST /api/mail/action
func (h *MailHandler) Action(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return response.Unauthorized(c, "session required")
	}

	var req ActionRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.ID == 0 {
		return response.BadRequest(c, "id is required")
	}
	action, err := services.ParseAction(req.Action)
	if err != nil {
		return response.Error(c, err)
	}

	result, err := h.engine.ApplyAction(c.Request().Context(), userID, req.ID, action)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}

// Send handles POST /api/mail/send
func (h *MailHandler) Send(c echo.Context) error {
	return h.compose(c, h.engine.Send)
}

// Draft handles POST /api/mail/draft
func (h *MailHandler) Draft(c echo.Context) error {
	return h.compose(c, h.engine.SaveDraft)
}

type submitFunc func(ctx context.Context, userID string, msg gmail.Outgoing) (*models.MirroredMessage, error)

func (h *MailHandler) compose(c echo.Context, submit submitFunc) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return response.Unauthorized(c, "session required")
	}

	var req ComposeRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if err := validator.ValidateCompose(req.To, req.Subject, req.Body, req.HTML); err != nil {
		return response.BadRequest(c, err.Error())
	}

	row, err := submit(c.Request().Context(), userID, gmail.Outgoing{
		To:      strings.TrimSpace(req.To),
		Subject: validator.SanitizeString(req.Subject, validator.MaxSubjectLength),
		Text:    req.Body,
		HTML:    req.HTML,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, row)
}

// List handles GET /api/mail/messages
func (h *MailHandler) List(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return response.Unauthorized(c, "session required")
	}

	category := models.CategoryInbox
	if raw := c.QueryParam("category"); raw != "" {
		parsed, ok := models.ParseCategory(strings.ToLower(raw))
		if !ok {
			return response.BadRequest(c, "category must be one of inbox, sent, draft, spam, trash")
		}
		category = parsed
	}

	limit, offset := 0, 0
	if l := c.QueryParam("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}
	if o := c.QueryParam("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil {
			offset = parsed
		}
	}
	limit, offset = validator.ValidatePagination(limit, offset)

	ctx := c.Request().Context()
	items, total, err := h.engine.ListMessages(ctx, userID, category, limit, offset)
	if err != nil {
		return response.Error(c, err)
	}
	unread, err := h.engine.CountUnread(ctx, userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.PaginatedWithUnread(c, items, total, unread, limit, offset)
}

// Get handles GET /api/mail/messages/:id
func (h *MailHandler) Get(c echo.Context) error {
	userID := middleware.UserID(c)
	if userID == "" {
		return response.Unauthorized(c, "session required")
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return response.BadRequest(c, "invalid message ID")
	}

	msg, err := h.engine.GetMessage(c.Request().Context(), userID, uint(id))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, msg)
}
