package fixtures

import (
	"fmt"
	"time"

	"github.com/vedhub/mailsync/internal/models"
)

// BaseTime is the reference instant fixtures are built around
var BaseTime = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

// MessageBuilder creates test MirroredMessage instances with fluent API
type MessageBuilder struct {
	message models.MirroredMessage
	labels  []string
}

// NewMessageBuilder creates a new MessageBuilder with an unread inbox message
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{
		message: models.MirroredMessage{
			UserID:        "user-1",
			ExternalID:    "ext-1",
			ThreadID:      "thread-1",
			Subject:       "Weekly schedule",
			Sender:        "Registrar <registrar@campus.edu>",
			Recipient:     "student@campus.edu",
			Snippet:       "Your schedule for next week",
			BodyText:      "Your schedule for next week is attached.",
			ReceivedAt:    BaseTime,
			LastFetchedAt: BaseTime,
		},
		labels: []string{models.LabelInbox, models.LabelUnread},
	}
}

// WithID sets the local ID
func (b *MessageBuilder) WithID(id uint) *MessageBuilder {
	b.message.ID = id
	return b
}

// WithUser sets the owning user
func (b *MessageBuilder) WithUser(userID string) *MessageBuilder {
	b.message.UserID = userID
	return b
}

// WithExternalID sets the provider message id
func (b *MessageBuilder) WithExternalID(id string) *MessageBuilder {
	b.message.ExternalID = id
	return b
}

// WithSubject sets the subject
func (b *MessageBuilder) WithSubject(subject string) *MessageBuilder {
	b.message.Subject = subject
	return b
}

// WithLabels replaces the label set
func (b *MessageBuilder) WithLabels(labels ...string) *MessageBuilder {
	b.labels = labels
	return b
}

// ReceivedAt sets the received time
func (b *MessageBuilder) ReceivedAt(t time.Time) *MessageBuilder {
	b.message.ReceivedAt = t
	return b
}

// Build returns the constructed message with flags derived from its labels
func (b *MessageBuilder) Build() *models.MirroredMessage {
	m := b.message
	m.SetLabels(models.NewLabels(b.labels...))
	return &m
}

// Messages builds n inbox messages for userID, one minute apart, newest last
func Messages(userID string, n int) []*models.MirroredMessage {
	out := make([]*models.MirroredMessage, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, NewMessageBuilder().
			WithUser(userID).
			WithExternalID(fmt.Sprintf("%s-ext-%d", userID, i)).
			WithSubject(fmt.Sprintf("Message %d", i)).
			ReceivedAt(BaseTime.Add(time.Duration(i)*time.Minute)).
			Build())
	}
	return out
}

// NewCredential returns a stored credential whose access token is valid for an hour past BaseTime
func NewCredential(userID string) *models.MailboxCredential {
	return &models.MailboxCredential{
		UserID:       userID,
		Email:        userID + "@campus.edu",
		AccessToken:  "access-" + userID,
		RefreshToken: "refresh-" + userID,
		TokenType:    "Bearer",
		Expiry:       BaseTime.Add(time.Hour),
	}
}
