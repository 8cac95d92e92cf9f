package app

import (
	"context"

	"friends_sync_service/internal/messenger/domain"

	"github.com/stretchr/testify/mock"
)

// MockConversationRepository Mock ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// List moke fetch conversation snapshot
func (m *MockConversationRepository) List(ctx context.Context, userID string) ([]domain.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// Create moke open server-side conversation
func (m *MockConversationRepository) Create(ctx context.Context, senderID, receiverID string) (*domain.Conversation, error) {
	args := m.Called(ctx, senderID, receiverID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// Delete moke remove conversation
func (m *MockConversationRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// List moke fetch message history
func (m *MockMessageRepository) List(ctx context.Context, conversationID string) ([]domain.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// Create moke persist message
func (m *MockMessageRepository) Create(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	args := m.Called(ctx, msg)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// Delete moke remove message
func (m *MockMessageRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MarkRead moke flag conversation read
func (m *MockMessageRepository) MarkRead(ctx context.Context, conversationID, userID string) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

// MockEmitter Mock Emitter
type MockEmitter struct {
	mock.Mock
}

// Emit moke publish event on the duplex connection
func (m *MockEmitter) Emit(event string, data interface{}) error {
	args := m.Called(event, data)
	return args.Error(0)
}
