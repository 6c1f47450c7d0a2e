package models

import (
	"time"
)

// Sync scopes; each keeps its own cursor
const (
	ScopeMail   = "mail"
	ScopeAlerts = "alerts"
)

// SyncCursor is the per-user, per-scope watermark bounding the next incremental listing
type SyncCursor struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"not null;size:64;uniqueIndex:idx_cursor_user_scope" json:"user_id"`
	Scope     string    `gorm:"not null;size:32;uniqueIndex:idx_cursor_user_scope" json:"scope"`
	Watermark time.Time `json:"watermark"`
	LastRunAt time.Time `json:"last_run_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name for SyncCursor
func (SyncCursor) TableName() string {
	return "sync_cursors"
}
