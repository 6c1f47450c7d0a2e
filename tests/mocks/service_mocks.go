package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"

	"github.com/vedhub/mailsync/internal/gmail"
	"github.com/vedhub/mailsync/internal/models"
	"github.com/vedhub/mailsync/internal/services"
)

// MockSyncEngine implements services.SyncEngine
type MockSyncEngine struct {
	mock.Mock
}

// RunOnce runs one pass
func (m *MockSyncEngine) RunOnce(ctx context.Context, userID, scope string) (*services.Summary, error) {
	args := m.Called(ctx, userID, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Summary), args.Error(1)
}

// ApplyAction applies a user action
func (m *MockSyncEngine) ApplyAction(ctx context.Context, userID string, id uint, action services.Action) (*services.ActionResult, error) {
	args := m.Called(ctx, userID, id, action)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ActionResult), args.Error(1)
}

// Send sends a composed message
func (m *MockSyncEngine) Send(ctx context.Context, userID string, msg gmail.Outgoing) (*models.MirroredMessage, error) {
	args := m.Called(ctx, userID, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MirroredMessage), args.Error(1)
}

// SaveDraft saves a draft
func (m *MockSyncEngine) SaveDraft(ctx context.Context, userID string, msg gmail.Outgoing) (*models.MirroredMessage, error) {
	args := m.Called(ctx, userID, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MirroredMessage), args.Error(1)
}

// ListMessages lists mirrored messages
func (m *MockSyncEngine) ListMessages(ctx context.Context, userID string, category models.Category, limit, offset int) ([]models.MessageListItem, int64, error) {
	args := m.Called(ctx, userID, category, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.MessageListItem), args.Get(1).(int64), args.Error(2)
}

// CountUnread counts unread inbox rows
func (m *MockSyncEngine) CountUnread(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// GetMessage returns one mirrored message
func (m *MockSyncEngine) GetMessage(ctx context.Context, userID string, id uint) (*models.MirroredMessage, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MirroredMessage), args.Error(1)
}

// MockTokenManager implements services.TokenManager
type MockTokenManager struct {
	mock.Mock
}

// GetValidAccessToken returns a valid access token
func (m *MockTokenManager) GetValidAccessToken(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

// TokenSource returns a token source for userID
func (m *MockTokenManager) TokenSource(ctx context.Context, userID string) oauth2.TokenSource {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(oauth2.TokenSource)
}

// AuthCodeURL returns the consent URL
func (m *MockTokenManager) AuthCodeURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

// Exchange completes consent
func (m *MockTokenManager) Exchange(ctx context.Context, userID, code string) (*models.MailboxCredential, error) {
	args := m.Called(ctx, userID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MailboxCredential), args.Error(1)
}

var (
	_ services.SyncEngine   = (*MockSyncEngine)(nil)
	_ services.TokenManager = (*MockTokenManager)(nil)
)
