package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vedhub/mailsync/internal/gmail"
)

// MockGmailClient implements gmail.Client
type MockGmailClient struct {
	mock.Mock
}

// ListMessageIDs lists one page of message ids
func (m *MockGmailClient) ListMessageIDs(ctx context.Context, userID string, maxResults int64, query string) ([]gmail.MessageRef, error) {
	args := m.Called(ctx, userID, maxResults, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gmail.MessageRef), args.Error(1)
}

// GetMessage fetches one message
func (m *MockGmailClient) GetMessage(ctx context.Context, userID, externalID string) (*gmail.Message, error) {
	args := m.Called(ctx, userID, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gmail.Message), args.Error(1)
}

// ModifyLabels changes labels on one message
func (m *MockGmailClient) ModifyLabels(ctx context.Context, userID, externalID string, delta gmail.LabelDelta) error {
	args := m.Called(ctx, userID, externalID, delta)
	return args.Error(0)
}

// Trash trashes one message
func (m *MockGmailClient) Trash(ctx context.Context, userID, externalID string) error {
	args := m.Called(ctx, userID, externalID)
	return args.Error(0)
}

// Delete permanently deletes one message
func (m *MockGmailClient) Delete(ctx context.Context, userID, externalID string) error {
	args := m.Called(ctx, userID, externalID)
	return args.Error(0)
}

// Send sends a composed message
func (m *MockGmailClient) Send(ctx context.Context, userID string, msg gmail.Outgoing) (*gmail.SendResult, error) {
	args := m.Called(ctx, userID, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gmail.SendResult), args.Error(1)
}

// CreateDraft saves a composed message as a draft
func (m *MockGmailClient) CreateDraft(ctx context.Context, userID string, msg gmail.Outgoing) (*gmail.DraftResult, error) {
	args := m.Called(ctx, userID, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gmail.DraftResult), args.Error(1)
}
