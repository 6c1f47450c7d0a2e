package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vedhub/mailsync/internal/models"
	"gorm.io/gorm"
)

// mirrorColumns are the fields a later sync observation may overwrite
var mirrorColumns = []string{
	"thread_id", "subject", "sender", "recipient", "snippet", "body_text", "body_html",
	"labels", "unread", "starred", "category", "received_at", "last_fetched_at",
}

// MessageRepository defines the interface for the local mirror of provider messages
type MessageRepository interface {
	Upsert(ctx context.Context, message *models.MirroredMessage) (bool, error)
	GetByID(ctx context.Context, id uint) (*models.MirroredMessage, error)
	GetByExternalID(ctx context.Context, userID, externalID string) (*models.MirroredMessage, error)
	ListByCategory(ctx context.Context, userID string, category models.Category, limit, offset int) ([]models.MessageListItem, int64, error)
	UpdateLabels(ctx context.Context, id uint, labels models.Labels) (*models.MirroredMessage, error)
	Delete(ctx context.Context, id uint) error
	CountUnread(ctx context.Context, userID string) (int64, error)
}

// messageRepository implements MessageRepository using GORM
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Upsert inserts the message or, when (user_id, external_id) already exists, overwrites its
// mutable fields in place. It reports whether a new row was created and sets message.ID.
func (r *messageRepository) Upsert(ctx context.Context, message *models.MirroredMessage) (bool, error) {
	if strings.TrimSpace(message.UserID) == "" || strings.TrimSpace(message.ExternalID) == "" {
		return false, ErrInvalidInput
	}
	message.SetLabels(message.Labels)

	existing, err := r.GetByExternalID(ctx, message.UserID, message.ExternalID)
	switch {
	case err == nil:
		return false, r.overwrite(ctx, existing, message)
	case !errors.Is(err, ErrNotFound):
		return false, err
	}

	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		if !isDuplicateKeyError(err) {
			return false, fmt.Errorf("failed to create mirrored message: %w", err)
		}
		// Lost an insert race for the same key; the row exists now.
		existing, err := r.GetByExternalID(ctx, message.UserID, message.ExternalID)
		if err != nil {
			return false, err
		}
		return false, r.overwrite(ctx, existing, message)
	}
	return true, nil
}

func (r *messageRepository) overwrite(ctx context.Context, existing, message *models.MirroredMessage) error {
	message.ID = existing.ID
	message.CreatedAt = existing.CreatedAt
	result := r.db.WithContext(ctx).Model(message).Select(mirrorColumns).Updates(message)
	if result.Error != nil {
		return fmt.Errorf("failed to update mirrored message: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a mirrored message by its local ID
func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.MirroredMessage, error) {
	var message models.MirroredMessage
	result := r.db.WithContext(ctx).First(&message, id)
	if result.Error != nil {
		return nil, notFoundOr(result.Error, func(err error) error {
			return fmt.Errorf("failed to get message by ID: %w", err)
		})
	}
	return &message, nil
}

// GetByExternalID retrieves a mirrored message by its provider id for a user
func (r *messageRepository) GetByExternalID(ctx context.Context, userID, externalID string) (*models.MirroredMessage, error) {
	var message models.MirroredMessage
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND external_id = ?", userID, externalID).
		First(&message)
	if result.Error != nil {
		return nil, notFoundOr(result.Error, func(err error) error {
			return fmt.Errorf("failed to get message by external ID: %w", err)
		})
	}
	return &message, nil
}

// ListByCategory retrieves a user's messages in one category, newest first
func (r *messageRepository) ListByCategory(ctx context.Context, userID string, category models.Category, limit, offset int) ([]models.MessageListItem, int64, error) {
	var total int64

	base := r.db.WithContext(ctx).Model(&models.MirroredMessage{}).
		Where("user_id = ? AND category = ?", userID, category)

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var results []models.MessageListItem
	err := r.db.WithContext(ctx).Model(&models.MirroredMessage{}).
		Select("id, external_id, thread_id, subject, sender, recipient, snippet, unread, starred, category, received_at").
		Where("user_id = ? AND category = ?", userID, category).
		Order("received_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&results).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}

	return results, total, nil
}

// UpdateLabels replaces a row's label set and its derived flags
func (r *messageRepository) UpdateLabels(ctx context.Context, id uint, labels models.Labels) (*models.MirroredMessage, error) {
	message, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	message.SetLabels(labels)

	result := r.db.WithContext(ctx).Model(message).
		Select("labels", "unread", "starred", "category").
		Updates(message)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update labels: %w", result.Error)
	}
	return message, nil
}

// Delete deletes a mirrored message by its local ID
func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.MirroredMessage{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete message: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUnread counts a user's unread inbox messages
func (r *messageRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.MirroredMessage{}).
		Where("user_id = ? AND category = ? AND unread = ?", userID, models.CategoryInbox, true).
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", result.Error)
	}
	return count, nil
}
