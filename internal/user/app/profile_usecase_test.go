package app

import (
	"context"
	"errors"
	"testing"

	notificationdomain "friends_sync_service/internal/notification/domain"
	realtimedomain "friends_sync_service/internal/realtime/domain"
	"friends_sync_service/internal/user/domain"
	"friends_sync_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func init() {
	logger.Log = logger.Initialize("user_test", "./log")
}

func viewerProfile() domain.Profile {
	return domain.Profile{ID: "u1", FirstName: "Ana", LastName: "Lima"}
}

func TestSyncProfile_ReturnsStoredRecord(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	u := NewProfileUseCase(viewerProfile(), repo, new(MockEmitter))
	repo.On("Sync", ctx, mock.Anything).Return(&domain.User{ID: "u1", FirstName: "Ana"}, nil)

	stored, err := u.SyncProfile(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "u1", stored.ID)
	repo.AssertExpectations(t)
}

func TestPeer_SecondLookupServedFromCache(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	u := NewProfileUseCase(viewerProfile(), repo, new(MockEmitter))
	repo.On("Get", ctx, "u2").Return(&domain.User{ID: "u2", FirstName: "Bea"}, nil).Once()

	first, err := u.Peer(ctx, "u2")
	assert.NoError(t, err)
	second, err := u.Peer(ctx, "u2")
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	repo.AssertNumberOfCalls(t, "Get", 1)
}

func TestPeer_InvalidateForcesRefetch(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	u := NewProfileUseCase(viewerProfile(), repo, new(MockEmitter))
	repo.On("Get", ctx, "u2").Return(&domain.User{ID: "u2"}, nil)

	_, err := u.Peer(ctx, "u2")
	assert.NoError(t, err)
	u.InvalidatePeer("u2")
	_, err = u.Peer(ctx, "u2")
	assert.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Get", 2)
}

func TestAcceptFollowRequest_EmitsFollowNotification(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	emitter := new(MockEmitter)
	u := NewProfileUseCase(viewerProfile(), repo, emitter)
	repo.On("AcceptFollowRequest", ctx, "u9", "u1").Return(nil)
	emitter.On("Emit", realtimedomain.EventSendNotification, mock.Anything).Return(nil)

	assert.NoError(t, u.AcceptFollowRequest(ctx, "u9"))

	emitter.AssertCalled(t, "Emit", realtimedomain.EventSendNotification,
		notificationdomain.OutboundNotification{
			SenderID:   "u1",
			ReceiverID: "u9",
			Type:       notificationdomain.TypeFollow,
		})
}

func TestAcceptFollowRequest_NoNotificationOnFailure(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	emitter := new(MockEmitter)
	u := NewProfileUseCase(viewerProfile(), repo, emitter)
	repo.On("AcceptFollowRequest", ctx, "u9", "u1").Return(errors.New("status 404"))

	assert.Error(t, u.AcceptFollowRequest(ctx, "u9"))
	emitter.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything)
}

func TestDeclineFollowRequest_StaysSilent(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	emitter := new(MockEmitter)
	u := NewProfileUseCase(viewerProfile(), repo, emitter)
	repo.On("DeclineFollowRequest", ctx, "u9", "u1").Return(nil)

	assert.NoError(t, u.DeclineFollowRequest(ctx, "u9"))
	emitter.AssertNotCalled(t, "Emit", mock.Anything, mock.Anything)
}
