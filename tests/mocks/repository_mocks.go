package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vedhub/mailsync/internal/models"
)

// MockMessageRepository implements repository.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Upsert inserts or overwrites a mirrored message
func (m *MockMessageRepository) Upsert(ctx context.Context, message *models.MirroredMessage) (bool, error) {
	args := m.Called(ctx, message)
	return args.Bool(0), args.Error(1)
}

// GetByID retrieves a mirrored message by its local ID
func (m *MockMessageRepository) GetByID(ctx context.Context, id uint) (*models.MirroredMessage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MirroredMessage), args.Error(1)
}

// GetByExternalID retrieves a mirrored message by provider id
func (m *MockMessageRepository) GetByExternalID(ctx context.Context, userID, externalID string) (*models.MirroredMessage, error) {
	args := m.Called(ctx, userID, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MirroredMessage), args.Error(1)
}

// ListByCategory lists a user's messages in one category
func (m *MockMessageRepository) ListByCategory(ctx context.Context, userID string, category models.Category, limit, offset int) ([]models.MessageListItem, int64, error) {
	args := m.Called(ctx, userID, category, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.MessageListItem), args.Get(1).(int64), args.Error(2)
}

// UpdateLabels replaces a row's labels
func (m *MockMessageRepository) UpdateLabels(ctx context.Context, id uint, labels models.Labels) (*models.MirroredMessage, error) {
	args := m.Called(ctx, id, labels)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MirroredMessage), args.Error(1)
}

// Delete deletes a mirrored message
func (m *MockMessageRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// CountUnread counts unread inbox messages
func (m *MockMessageRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// MockCredentialRepository implements repository.CredentialRepository
type MockCredentialRepository struct {
	mock.Mock
}

// Get retrieves a user's credential
func (m *MockCredentialRepository) Get(ctx context.Context, userID string) (*models.MailboxCredential, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MailboxCredential), args.Error(1)
}

// Save stores a credential
func (m *MockCredentialRepository) Save(ctx context.Context, credential *models.MailboxCredential) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

// UpdateAccessToken stores a refreshed access token
func (m *MockCredentialRepository) UpdateAccessToken(ctx context.Context, userID, accessToken string, expiry time.Time) error {
	args := m.Called(ctx, userID, accessToken, expiry)
	return args.Error(0)
}

// MockCursorRepository implements repository.CursorRepository
type MockCursorRepository struct {
	mock.Mock
}

// Get retrieves a sync cursor
func (m *MockCursorRepository) Get(ctx context.Context, userID, scope string) (*models.SyncCursor, error) {
	args := m.Called(ctx, userID, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncCursor), args.Error(1)
}

// Advance records a finished pass
func (m *MockCursorRepository) Advance(ctx context.Context, userID, scope string, watermark, ranAt time.Time) (*models.SyncCursor, error) {
	args := m.Called(ctx, userID, scope, watermark, ranAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncCursor), args.Error(1)
}
