package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/vedhub/mailsync/internal/errors"
	"github.com/vedhub/mailsync/internal/gmail"
	"github.com/vedhub/mailsync/internal/models"
	"github.com/vedhub/mailsync/internal/repository"
)

// Action is a user mailbox action
type Action string

const (
	ActionStar   Action = "star"
	ActionUnstar Action = "unstar"
	ActionRead   Action = "read"
	ActionUnread Action = "unread"
	ActionTrash  Action = "trash"
	ActionDelete Action = "delete"
)

// ParseAction validates an action name
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionStar, ActionUnstar, ActionRead, ActionUnread, ActionTrash, ActionDelete:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrUnsupportedAction, s)
}

// labelDelta is the label change an action makes, both remotely and locally
func (a Action) labelDelta() gmail.LabelDelta {
	switch a {
	case ActionStar:
		return gmail.LabelDelta{Add: []string{models.LabelStarred}}
	case ActionUnstar:
		return gmail.LabelDelta{Remove: []string{models.LabelStarred}}
	case ActionRead:
		return gmail.LabelDelta{Remove: []string{models.LabelUnread}}
	case ActionUnread:
		return gmail.LabelDelta{Add: []string{models.LabelUnread}}
	case ActionTrash:
		return gmail.LabelDelta{Add: []string{models.LabelTrash}, Remove: []string{models.LabelInbox}}
	}
	return gmail.LabelDelta{}
}

// ActionResult is the mirror state after an action
type ActionResult struct {
	ID      uint                    `json:"id"`
	Action  Action                  `json:"action"`
	Deleted bool                    `json:"deleted"`
	Message *models.MirroredMessage `json:"message,omitempty"`
}

func (e *syncEngine) ApplyAction(ctx context.Context, userID string, id uint, action Action) (*ActionResult, error) {
	if _, err := ParseAction(string(action)); err != nil {
		return nil, err
	}

	row, err := e.ownedMessage(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := e.applyRemote(ctx, userID, row.ExternalID, action); err != nil {
		e.logger.Warn("mailbox action failed",
			slog.String("user_id", userID),
			slog.String("message_id", row.ExternalID),
			slog.String("action", string(action)),
			slog.Any("error", err))
		return nil, err
	}

	result := &ActionResult{ID: row.ID, Action: action}
	if action == ActionDelete {
		if err := e.messages.Delete(ctx, row.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Persistence(err, "delete mirrored message")
		}
		result.Deleted = true
	} else {
		delta := action.labelDelta()
		updated, err := e.messages.UpdateLabels(ctx, row.ID, row.Labels.Apply(delta.Add, delta.Remove))
		if err != nil {
			return nil, apperrors.Persistence(err, "update mirrored labels")
		}
		result.Message = updated
	}

	e.notifier.NotifyMessageChanged(userID, MessageChange{
		ID:         row.ID,
		ExternalID: row.ExternalID,
		Action:     action,
		Deleted:    result.Deleted,
		Message:    result.Message,
	})
	return result, nil
}

func (e *syncEngine) applyRemote(ctx context.Context, userID, externalID string, action Action) error {
	switch action {
	case ActionTrash:
		return e.client.Trash(ctx, userID, externalID)
	case ActionDelete:
		return e.client.Delete(ctx, userID, externalID)
	default:
		return e.client.ModifyLabels(ctx, userID, externalID, action.labelDelta())
	}
}
