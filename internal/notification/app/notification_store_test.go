package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"friends_sync_service/internal/notification/domain"
	"friends_sync_service/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func init() {
	logger.Log = logger.Initialize("notification_test", "./log")
}

func pushPayload(t *testing.T, n domain.Notification) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(n)
	assert.NoError(t, err)
	return raw
}

// counter must equal the number of unread entries at every observation point
func assertCounterInvariant(t *testing.T, s *NotificationStore) {
	t.Helper()
	items, unread := s.List()
	want := 0
	for _, n := range items {
		if !n.IsRead {
			want++
		}
	}
	assert.Equal(t, want, unread)
}

func TestLoadSnapshot_ReplacesWholesale(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockNotificationRepository)
	mockRepo.On("List", ctx, "u1").Return([]domain.Notification{
		{ID: "n1", Type: domain.TypeLikePost, IsRead: false},
		{ID: "n2", Type: domain.TypeFollow, IsRead: true},
	}, nil)

	s := NewNotificationStore(mockRepo)
	s.OnPush(pushPayload(t, domain.Notification{ID: "stale", IsRead: false}))

	assert.NoError(t, s.LoadSnapshot(ctx, "u1"))

	items, unread := s.List()
	assert.Len(t, items, 2)
	assert.Equal(t, 1, unread)
	mockRepo.AssertExpectations(t)
}

func TestOnPush_PrependsAndCounts(t *testing.T) {
	s := NewNotificationStore(new(MockNotificationRepository))

	s.OnPush(pushPayload(t, domain.Notification{ID: "n1", SenderID: "u2", Type: domain.TypeCommentPost, CreatedAt: time.Now()}))
	s.OnPush(pushPayload(t, domain.Notification{ID: "n2", SenderID: "u3", Type: domain.TypeFollowRequest, CreatedAt: time.Now()}))

	items, unread := s.List()
	assert.Equal(t, "n2", items[0].ID)
	assert.Equal(t, "n1", items[1].ID)
	assert.Equal(t, 2, unread)
	assertCounterInvariant(t, s)
}

func TestOnPush_DedupsById(t *testing.T) {
	s := NewNotificationStore(new(MockNotificationRepository))

	s.OnPush(pushPayload(t, domain.Notification{ID: "n1", Type: domain.TypeLikePost}))
	s.OnPush(pushPayload(t, domain.Notification{ID: "n1", Type: domain.TypeLikePost}))

	items, unread := s.List()
	assert.Len(t, items, 1)
	assert.Equal(t, 1, unread)
}

func TestMarkRead_Idempotent(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockNotificationRepository)
	mockRepo.On("MarkRead", ctx, "n1").Return(nil).Once()

	s := NewNotificationStore(mockRepo)
	s.OnPush(pushPayload(t, domain.Notification{ID: "n1"}))

	assert.NoError(t, s.MarkRead(ctx, "n1"))
	assert.NoError(t, s.MarkRead(ctx, "n1"))

	items, unread := s.List()
	assert.True(t, items[0].IsRead)
	assert.Equal(t, 0, unread)
	// second call is a no-op, only one persistence request goes out
	mockRepo.AssertNumberOfCalls(t, "MarkRead", 1)
}

func TestMarkRead_RevertsOnConfirmedFailure(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockNotificationRepository)
	mockRepo.On("MarkRead", ctx, "n1").Return(errors.New("status 403"))

	s := NewNotificationStore(mockRepo)
	s.OnPush(pushPayload(t, domain.Notification{ID: "n1"}))

	assert.Error(t, s.MarkRead(ctx, "n1"))

	items, unread := s.List()
	assert.False(t, items[0].IsRead)
	assert.Equal(t, 1, unread)
}

func TestMarkAllRead_ZeroesCounterWithOneRequest(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockNotificationRepository)
	mockRepo.On("MarkAllRead", ctx, "u1").Return(nil).Once()

	s := NewNotificationStore(mockRepo)
	s.OnPush(pushPayload(t, domain.Notification{ID: "n1"}))
	s.OnPush(pushPayload(t, domain.Notification{ID: "n2"}))

	assert.NoError(t, s.MarkAllRead(ctx, "u1"))

	items, unread := s.List()
	for _, n := range items {
		assert.True(t, n.IsRead)
	}
	assert.Equal(t, 0, unread)
	mockRepo.AssertExpectations(t)
}

func TestMarkAllRead_RevertsOnFailure(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockNotificationRepository)
	mockRepo.On("MarkRead", ctx, "n2").Return(nil)
	mockRepo.On("MarkAllRead", ctx, "u1").Return(errors.New("status 500"))

	s := NewNotificationStore(mockRepo)
	s.OnPush(pushPayload(t, domain.Notification{ID: "n1"}))
	s.OnPush(pushPayload(t, domain.Notification{ID: "n2"}))
	assert.NoError(t, s.MarkRead(ctx, "n2"))

	assert.Error(t, s.MarkAllRead(ctx, "u1"))

	items, unread := s.List()
	assert.Equal(t, 1, unread)
	for _, n := range items {
		if n.ID == "n2" {
			assert.True(t, n.IsRead)
		} else {
			assert.False(t, n.IsRead)
		}
	}
	assertCounterInvariant(t, s)
}

func TestDelete_UnreadEntryDropsCounter(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockNotificationRepository)
	mockRepo.On("Delete", ctx, "n1").Return(nil)

	s := NewNotificationStore(mockRepo)
	s.OnPush(pushPayload(t, domain.Notification{ID: "n1"}))
	s.OnPush(pushPayload(t, domain.Notification{ID: "n2"}))

	assert.NoError(t, s.Delete(ctx, "n1"))

	items, unread := s.List()
	assert.Len(t, items, 1)
	assert.Equal(t, "n2", items[0].ID)
	assert.Equal(t, 1, unread)
}

func TestDelete_RevertsOnFailure(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockNotificationRepository)
	mockRepo.On("Delete", ctx, "n1").Return(errors.New("status 500"))

	s := NewNotificationStore(mockRepo)
	s.OnPush(pushPayload(t, domain.Notification{ID: "n1"}))

	assert.Error(t, s.Delete(ctx, "n1"))

	items, unread := s.List()
	assert.Len(t, items, 1)
	assert.Equal(t, "n1", items[0].ID)
	assert.Equal(t, 1, unread)
}

func TestCounterInvariant_AcrossOperationSequence(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockNotificationRepository)
	mockRepo.On("MarkRead", ctx, "n1").Return(nil)
	mockRepo.On("Delete", ctx, "n2").Return(nil)
	mockRepo.On("MarkAllRead", ctx, "u1").Return(nil)

	s := NewNotificationStore(mockRepo)

	s.OnPush(pushPayload(t, domain.Notification{ID: "n1"}))
	assertCounterInvariant(t, s)
	s.OnPush(pushPayload(t, domain.Notification{ID: "n2"}))
	assertCounterInvariant(t, s)
	assert.NoError(t, s.MarkRead(ctx, "n1"))
	assertCounterInvariant(t, s)
	assert.NoError(t, s.Delete(ctx, "n2"))
	assertCounterInvariant(t, s)
	s.OnPush(pushPayload(t, domain.Notification{ID: "n3"}))
	assertCounterInvariant(t, s)
	assert.NoError(t, s.MarkAllRead(ctx, "u1"))
	assertCounterInvariant(t, s)

	_, unread := s.List()
	assert.Equal(t, 0, unread)
}
