package gmail

import (
	"context"
	"time"

	"github.com/vedhub/mailsync/internal/mime"
)

// MessageRef identifies a listed message
type MessageRef struct {
	ID       string
	ThreadID string
}

// Message is a fully fetched provider message
type Message struct {
	ID           string
	ThreadID     string
	LabelIDs     []string
	Snippet      string
	InternalDate time.Time
	Payload      *mime.Part
}

// Headers returns the top-level payload headers
func (m *Message) Headers() []mime.Header {
	if m.Payload == nil {
		return nil
	}
	return m.Payload.Headers
}

// LabelDelta is a set of labels to add and remove in one modify call
type LabelDelta struct {
	Add    []string
	Remove []string
}

// Outgoing is a message composed by the user. An empty From is
// resolved to the mailbox's own address.
type Outgoing struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

// SendResult identifies a sent message
type SendResult struct {
	ID       string
	ThreadID string
	LabelIDs []string
}

// DraftResult identifies a saved draft and its underlying message
type DraftResult struct {
	DraftID   string
	MessageID string
	ThreadID  string
	LabelIDs  []string
}

// Client is the narrow mailbox surface the sync engine needs. Every call is
// made on behalf of userID with that user's current access token.
type Client interface {
	ListMessageIDs(ctx context.Context, userID string, maxResults int64, query string) ([]MessageRef, error)
	GetMessage(ctx context.Context, userID, externalID string) (*Message, error)
	ModifyLabels(ctx context.Context, userID, externalID string, delta LabelDelta) error
	Trash(ctx context.Context, userID, externalID string) error
	Delete(ctx context.Context, userID, externalID string) error
	Send(ctx context.Context, userID string, msg Outgoing) (*SendResult, error)
	CreateDraft(ctx context.Context, userID string, msg Outgoing) (*DraftResult, error)
}
