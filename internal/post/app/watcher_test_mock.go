package app

import (
	"context"

	"friends_sync_service/internal/post/domain"
	realtimeapp "friends_sync_service/internal/realtime/app"

	"github.com/stretchr/testify/mock"
)

// MockPostRepository Mock PostRepository
type MockPostRepository struct {
	mock.Mock
}

// Get moke fetch one post
func (m *MockPostRepository) Get(ctx context.Context, id string) (*domain.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Post), args.Error(1)
	}
	return nil, args.Error(1)
}

// Timeline moke fetch visible posts
func (m *MockPostRepository) Timeline(ctx context.Context, userID string) ([]domain.Post, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Post), args.Error(1)
	}
	return nil, args.Error(1)
}

// Create moke persist post
func (m *MockPostRepository) Create(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	args := m.Called(ctx, post)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Post), args.Error(1)
	}
	return nil, args.Error(1)
}

// Delete moke remove post
func (m *MockPostRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Like moke toggle like server-side
func (m *MockPostRepository) Like(ctx context.Context, postID, userID string) error {
	args := m.Called(ctx, postID, userID)
	return args.Error(0)
}

// Comment moke append comment server-side
func (m *MockPostRepository) Comment(ctx context.Context, postID string, comment *domain.Comment) ([]domain.Comment, error) {
	args := m.Called(ctx, postID, comment)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Comment), args.Error(1)
	}
	return nil, args.Error(1)
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

// fakeSubscriber records the registered handler so tests can push patches
type fakeSubscriber struct {
	event        string
	handler      realtimeapp.Handler
	unsubscribed bool
}

func (f *fakeSubscriber) Subscribe(event string, fn realtimeapp.Handler) func() {
	f.event = event
	f.handler = fn
	return func() { f.unsubscribed = true }
}
