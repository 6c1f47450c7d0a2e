package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vedhub/mailsync/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CredentialRepository stores each user's mail provider OAuth credential
type CredentialRepository interface {
	Get(ctx context.Context, userID string) (*models.MailboxCredential, error)
	Save(ctx context.Context, credential *models.MailboxCredential) error
	UpdateAccessToken(ctx context.Context, userID, accessToken string, expiry time.Time) error
}

type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new CredentialRepository instance
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

// Get retrieves the credential stored for a user
func (r *credentialRepository) Get(ctx context.Context, userID string) (*models.MailboxCredential, error) {
	var credential models.MailboxCredential
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&credential)
	if result.Error != nil {
		return nil, notFoundOr(result.Error, func(err error) error {
			return fmt.Errorf("failed to get credential: %w", err)
		})
	}
	return &credential, nil
}

// Save inserts the credential or replaces the one stored for the same user.
// An empty refresh token never overwrites a stored one.
func (r *credentialRepository) Save(ctx context.Context, credential *models.MailboxCredential) error {
	if strings.TrimSpace(credential.UserID) == "" {
		return ErrInvalidInput
	}

	columns := []string{"email", "access_token", "token_type", "expiry", "updated_at"}
	if credential.RefreshToken != "" {
		columns = append(columns, "refresh_token")
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(credential)
	if result.Error != nil {
		return fmt.Errorf("failed to save credential: %w", result.Error)
	}
	return nil
}

// UpdateAccessToken stores a refreshed access token and its expiry
func (r *credentialRepository) UpdateAccessToken(ctx context.Context, userID, accessToken string, expiry time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.MailboxCredential{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"access_token": accessToken,
			"expiry":       expiry,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update access token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
