package services

import "github.com/vedhub/mailsync/internal/models"

// MessageChange describes one mirrored message changed by a user action
type MessageChange struct {
	ID         uint                    `json:"id"`
	ExternalID string                  `json:"external_id"`
	Action     Action                  `json:"action"`
	Deleted    bool                    `json:"deleted"`
	Message    *models.MirroredMessage `json:"message,omitempty"`
}

// Notifier receives mailbox events for realtime delivery
type Notifier interface {
	NotifySyncCompleted(userID, scope string, summary Summary)
	NotifyMessageChanged(userID string, change MessageChange)
}

// NopNotifier discards events
type NopNotifier struct{}

// NotifySyncCompleted does nothing
func (NopNotifier) NotifySyncCompleted(string, string, Summary) {}

// NotifyMessageChanged does nothing
func (NopNotifier) NotifyMessageChanged(string, MessageChange) {}
