package models

import (
	"time"
)

// MailboxCredential is a user's OAuth credential pair for the mail provider
type MailboxCredential struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"not null;size:64;uniqueIndex" json:"user_id"`
	Email        string    `gorm:"size:255" json:"email,omitempty"`
	AccessToken  string    `gorm:"size:4096;not null" json:"-"`
	RefreshToken string    `gorm:"size:4096;not null" json:"-"`
	TokenType    string    `gorm:"size:32" json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for MailboxCredential
func (MailboxCredential) TableName() string {
	return "mailbox_credentials"
}
