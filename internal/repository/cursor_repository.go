package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vedhub/mailsync/internal/models"
	"gorm.io/gorm"
)

// CursorRepository stores sync watermarks per user and scope
type CursorRepository interface {
	Get(ctx context.Context, userID, scope string) (*models.SyncCursor, error)
	Advance(ctx context.Context, userID, scope string, watermark, ranAt time.Time) (*models.SyncCursor, error)
}

type cursorRepository struct {
	db *gorm.DB
}

// NewCursorRepository creates a new CursorRepository instance
func NewCursorRepository(db *gorm.DB) CursorRepository {
	return &cursorRepository{db: db}
}

// Get retrieves the cursor for a user and scope
func (r *cursorRepository) Get(ctx context.Context, userID, scope string) (*models.SyncCursor, error) {
	var cursor models.SyncCursor
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND scope = ?", userID, scope).
		First(&cursor)
	if result.Error != nil {
		return nil, notFoundOr(result.Error, func(err error) error {
			return fmt.Errorf("failed to get sync cursor: %w", err)
		})
	}
	return &cursor, nil
}

// Advance records a finished pass. The watermark only moves forward; LastRunAt is always set.
func (r *cursorRepository) Advance(ctx context.Context, userID, scope string, watermark, ranAt time.Time) (*models.SyncCursor, error) {
	var cursor models.SyncCursor
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND scope = ?", userID, scope).First(&cursor).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			cursor = models.SyncCursor{
				UserID:    userID,
				Scope:     scope,
				Watermark: watermark,
				LastRunAt: ranAt,
			}
			return tx.Create(&cursor).Error
		}
		if err != nil {
			return err
		}

		if watermark.After(cursor.Watermark) {
			cursor.Watermark = watermark
		}
		cursor.LastRunAt = ranAt
		return tx.Model(&cursor).Select("watermark", "last_run_at").Updates(&cursor).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to advance sync cursor: %w", err)
	}
	return &cursor, nil
}
