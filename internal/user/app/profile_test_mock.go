package app

import (
	"context"

	"friends_sync_service/internal/user/domain"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

// Sync moke upsert profile
func (m *MockUserRepository) Sync(ctx context.Context, profile *domain.Profile) (*domain.User, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// Get moke fetch profile
func (m *MockUserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// AcceptFollowRequest moke approve request
func (m *MockUserRepository) AcceptFollowRequest(ctx context.Context, requesterID, userID string) error {
	args := m.Called(ctx, requesterID, userID)
	return args.Error(0)
}

// DeclineFollowRequest moke reject request
func (m *MockUserRepository) DeclineFollowRequest(ctx context.Context, requesterID, userID string) error {
	args := m.Called(ctx, requesterID, userID)
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
