package services

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"

	apperrors "github.com/vedhub/mailsync/internal/errors"
	"github.com/vedhub/mailsync/internal/gmail"
	"github.com/vedhub/mailsync/internal/mime"
	"github.com/vedhub/mailsync/internal/models"
)

func (e *syncEngine) Send(ctx context.Context, userID string, msg gmail.Outgoing) (*models.MirroredMessage, error) {
	if err := validateOutgoing(msg); err != nil {
		return nil, err
	}

	res, err := e.client.Send(ctx, userID, msg)
	if err != nil {
		return nil, apperrors.Wrap(err, "send message")
	}
	return e.mirrorComposed(ctx, userID, msg, res.ID, res.ThreadID, models.LabelSent), nil
}

func (e *syncEngine) SaveDraft(ctx context.Context, userID string, msg gmail.Outgoing) (*models.MirroredMessage, error) {
	if err := validateOutgoing(msg); err != nil {
		return nil, err
	}

	res, err := e.client.CreateDraft(ctx, userID, msg)
	if err != nil {
		return nil, apperrors.Wrap(err, "save draft")
	}
	return e.mirrorComposed(ctx, userID, msg, res.MessageID, res.ThreadID, models.LabelDraft), nil
}

// mirrorComposed stores a row for a message the provider already accepted.
// A store failure is logged only; the next pass mirrors the message anyway.
func (e *syncEngine) mirrorComposed(ctx context.Context, userID string, msg gmail.Outgoing, externalID, threadID, label string) *models.MirroredMessage {
	now := e.now().UTC()
	subject := strings.TrimSpace(msg.Subject)
	if subject == "" {
		subject = mime.DefaultSubject
	}
	from := msg.From
	if from == "" {
		from = mime.DefaultTo
	}

	row := &models.MirroredMessage{
		UserID:        userID,
		ExternalID:    externalID,
		ThreadID:      threadID,
		Subject:       subject,
		Sender:        from,
		Recipient:     msg.To,
		Snippet:       mime.Snippet(msg.Text, msg.HTML),
		BodyText:      msg.Text,
		BodyHTML:      msg.HTML,
		ReceivedAt:    now,
		LastFetchedAt: now,
	}
	row.SetLabels(models.Labels{label})

	if externalID == "" {
		return row
	}
	if _, err := e.messages.Upsert(ctx, row); err != nil {
		e.logger.Warn("failed to mirror composed message",
			slog.String("user_id", userID),
			slog.String("message_id", externalID),
			slog.Any("error", err))
	}
	return row
}

func validateOutgoing(msg gmail.Outgoing) error {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return apperrors.NewAppError(apperrors.ErrInvalidInput, "at least one recipient is required", apperrors.CodeInvalidInput)
	}
	if _, err := mail.ParseAddressList(to); err != nil {
		return apperrors.NewAppError(apperrors.ErrInvalidInput, "invalid recipient address", apperrors.CodeInvalidInput)
	}
	return nil
}
