package models

import (
	"time"
)

// MirroredMessage is the local cached copy of one provider message for one user
type MirroredMessage struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"not null;size:64;uniqueIndex:idx_mirror_user_external;index:idx_mirror_user_category" json:"user_id"`
	ExternalID    string    `gorm:"not null;size:128;uniqueIndex:idx_mirror_user_external" json:"external_id"`
	ThreadID      string    `gorm:"size:128" json:"thread_id,omitempty"`
	Subject       string    `json:"subject"`
	Sender        string    `gorm:"size:512" json:"from"`
	Recipient     string    `gorm:"size:1024" json:"to"`
	Snippet       string    `json:"snippet,omitempty"`
	BodyText      string    `json:"body_text,omitempty"`
	BodyHTML      string    `json:"body_html,omitempty"`
	Labels        Labels    `gorm:"type:text;serializer:json" json:"labels"`
	Unread        bool      `gorm:"default:false" json:"unread"`
	Starred       bool      `gorm:"default:false" json:"starred"`
	Category      Category  `gorm:"size:16;index:idx_mirror_user_category" json:"category"`
	ReceivedAt    time.Time `gorm:"index" json:"received_at"`
	LastFetchedAt time.Time `json:"last_fetched_at"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for MirroredMessage
func (MirroredMessage) TableName() string {
	return "mirrored_messages"
}

// SetLabels replaces the label set and re-derives unread, starred and category from it
func (m *MirroredMessage) SetLabels(labels Labels) {
	m.Labels = NewLabels(labels...)
	m.Unread = m.Labels.Has(LabelUnread)
	m.Starred = m.Labels.Has(LabelStarred)
	m.Category = Classify(m.Labels)
}

// MessageListItem is a lightweight version for list views
type MessageListItem struct {
	ID         uint      `json:"id"`
	ExternalID string    `json:"external_id"`
	ThreadID   string    `json:"thread_id,omitempty"`
	Subject    string    `json:"subject"`
	Sender     string    `json:"from"`
	Recipient  string    `json:"to"`
	Snippet    string    `json:"snippet,omitempty"`
	Unread     bool      `json:"unread"`
	Starred    bool      `json:"starred"`
	Category   Category  `json:"category"`
	ReceivedAt time.Time `json:"received_at"`
}
