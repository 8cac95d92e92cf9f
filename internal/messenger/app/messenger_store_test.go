package app

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"friends_sync_service/internal/messenger/domain"
	notificationdomain "friends_sync_service/internal/notification/domain"
	realtimedomain "friends_sync_service/internal/realtime/domain"
	"friends_sync_service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func init() {
	logger.Log = logger.Initialize("messenger_test", "./log")
}

func snapshot(t time.Time) []domain.Conversation {
	return []domain.Conversation{
		{ID: "c1", Members: []string{"u1", "u2"}, UpdatedAt: t.Add(-2 * time.Hour)},
		{ID: "c2", Members: []string{"u1", "u3"}, UpdatedAt: t.Add(-1 * time.Hour)},
		{ID: "c3", Members: []string{"u1", "u4"}, UpdatedAt: t.Add(-3 * time.Hour)},
	}
}

func arrivalPayload(t *testing.T, a domain.ArrivalMessage) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(a)
	assert.NoError(t, err)
	return raw
}

func assertSortedByUpdatedAt(t *testing.T, conversations []domain.Conversation) {
	t.Helper()
	assert.True(t, sort.SliceIsSorted(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	}))
}

func newStore(t *testing.T) (*MessengerStore, *MockConversationRepository, *MockMessageRepository, *MockEmitter) {
	t.Helper()
	convRepo := new(MockConversationRepository)
	msgRepo := new(MockMessageRepository)
	emitter := new(MockEmitter)
	return NewMessengerStore("u1", convRepo, msgRepo, emitter), convRepo, msgRepo, emitter
}

func TestLoadSnapshot_SortsDescending(t *testing.T) {
	ctx := context.Background()
	s, convRepo, _, _ := newStore(t)
	convRepo.On("List", ctx, "u1").Return(snapshot(time.Now()), nil)

	assert.NoError(t, s.LoadSnapshot(ctx))

	conversations := s.Conversations()
	assert.Equal(t, []string{"c2", "c1", "c3"},
		[]string{conversations[0].ID, conversations[1].ID, conversations[2].ID})
	assertSortedByUpdatedAt(t, conversations)
}

func TestOnArrival_ClosedConversation_BumpsUnreadAndMovesToHead(t *testing.T) {
	ctx := context.Background()
	s, convRepo, _, _ := newStore(t)
	convRepo.On("List", ctx, "u1").Return(snapshot(time.Now()), nil)
	assert.NoError(t, s.LoadSnapshot(ctx))

	s.OnArrival(arrivalPayload(t, domain.ArrivalMessage{Sender: "u2", Text: "hey", CreatedAt: time.Now()}))

	conversations := s.Conversations()
	assert.Equal(t, "c1", conversations[0].ID)
	assert.Equal(t, 1, conversations[0].UnreadCount)
	assertSortedByUpdatedAt(t, conversations)
}

func TestOnArrival_OpenConversation_AppendsWithoutUnread(t *testing.T) {
	ctx := context.Background()
	s, convRepo, msgRepo, _ := newStore(t)
	convRepo.On("List", ctx, "u1").Return(snapshot(time.Now()), nil)
	msgRepo.On("MarkRead", mock.Anything, "c1", "u1").Return(nil)
	msgRepo.On("List", mock.Anything, "c1").Return([]domain.Message{}, nil)

	assert.NoError(t, s.LoadSnapshot(ctx))
	_, err := s.Open(ctx, "c1")
	assert.NoError(t, err)

	s.OnArrival(arrivalPayload(t, domain.ArrivalMessage{Sender: "u2", Text: "hello"}))
	s.OnArrival(arrivalPayload(t, domain.ArrivalMessage{Sender: "u2", Text: "there"}))

	conversations := s.Conversations()
	assert.Equal(t, "c1", conversations[0].ID)
	assert.Equal(t, 0, conversations[0].UnreadCount)

	history := s.History()
	if assert.Len(t, history, 2) {
		assert.Equal(t, "hello", history[0].Text)
		assert.Equal(t, "there", history[1].Text)
	}
}

func TestOnArrival_UnknownConversation_RefetchesInsteadOfDropping(t *testing.T) {
	ctx := context.Background()
	s, convRepo, _, _ := newStore(t)
	convRepo.On("List", ctx, "u1").Return([]domain.Conversation{}, nil).Once()
	assert.NoError(t, s.LoadSnapshot(ctx))

	fresh := domain.Conversation{ID: "c9", Members: []string{"u1", "u9"}, UpdatedAt: time.Now()}
	convRepo.On("List", mock.Anything, "u1").Return([]domain.Conversation{fresh}, nil).Once()

	s.OnArrival(arrivalPayload(t, domain.ArrivalMessage{Sender: "u9", Text: "first contact"}))

	conversations := s.Conversations()
	if assert.Len(t, conversations, 1) {
		assert.Equal(t, "c9", conversations[0].ID)
		assert.Equal(t, 1, conversations[0].UnreadCount)
	}
	convRepo.AssertExpectations(t)
}

func TestOnArrival_MergedConversationKeepsServerCounter(t *testing.T) {
	ctx := context.Background()
	s, convRepo, _, _ := newStore(t)
	convRepo.On("List", ctx, "u1").Return([]domain.Conversation{}, nil).Once()
	assert.NoError(t, s.LoadSnapshot(ctx))

	// the refetched snapshot already counts the pushed message
	fresh := domain.Conversation{ID: "c9", Members: []string{"u1", "u9"}, UpdatedAt: time.Now(), UnreadCount: 2}
	convRepo.On("List", mock.Anything, "u1").Return([]domain.Conversation{fresh}, nil).Once()

	s.OnArrival(arrivalPayload(t, domain.ArrivalMessage{Sender: "u9", Text: "counted already"}))

	conversations := s.Conversations()
	if assert.Len(t, conversations, 1) {
		assert.Equal(t, 2, conversations[0].UnreadCount)
	}
}

func TestStartConversation_FirstContactCreatesAndOpens(t *testing.T) {
	ctx := context.Background()
	s, convRepo, msgRepo, emitter := newStore(t)
	convRepo.On("List", ctx, "u1").Return(snapshot(time.Now()), nil)
	convRepo.On("Create", ctx, "u1", "u9").Return(
		&domain.Conversation{ID: "c9", Members: []string{"u1", "u9"}, UpdatedAt: time.Now()}, nil)
	msgRepo.On("MarkRead", mock.Anything, "c9", "u1").Return(nil)
	msgRepo.On("List", mock.Anything, "c9").Return([]domain.Message{}, nil)
	msgRepo.On("Create", mock.Anything, mock.Anything).Return(&domain.Message{ID: "srv-5"}, nil)
	emitter.On("Emit", mock.Anything, mock.Anything).Return(nil)

	assert.NoError(t, s.LoadSnapshot(ctx))

	conv, err := s.StartConversation(ctx, "u9")
	assert.NoError(t, err)
	assert.Equal(t, "c9", conv.ID)
	assert.Equal(t, "c9", s.ActiveID())
	assert.Equal(t, "c9", s.Conversations()[0].ID)

	// first message goes straight into the fresh thread
	sent, err := s.Send(ctx, "hello there", "", nil)
	assert.NoError(t, err)
	assert.Equal(t, "srv-5", sent.ID)
	assert.Equal(t, domain.StatusConfirmed, sent.Status)
	convRepo.AssertExpectations(t)
}

func TestStartConversation_ExistingPeerReusesThread(t *testing.T) {
	ctx := context.Background()
	s, convRepo, msgRepo, _ := newStore(t)
	convRepo.On("List", ctx, "u1").Return(snapshot(time.Now()), nil)
	msgRepo.On("MarkRead", mock.Anything, "c1", "u1").Return(nil)
	msgRepo.On("List", mock.Anything, "c1").Return([]domain.Message{}, nil)

	assert.NoError(t, s.LoadSnapshot(ctx))

	conv, err := s.StartConversation(ctx, "u2")
	assert.NoError(t, err)
	assert.Equal(t, "c1", conv.ID)
	assert.Equal(t, "c1", s.ActiveID())
	convRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestOpen_ZeroesUnreadAndCachesHistory(t *testing.T) {
	ctx := context.Background()
	s, convRepo, msgRepo, _ := newStore(t)
	conversations := snapshot(time.Now())
	conversations[0].UnreadCount = 4
	convRepo.On("List", ctx, "u1").Return(conversations, nil)
	msgRepo.On("MarkRead", mock.Anything, "c1", "u1").Return(nil)
	msgRepo.On("List", mock.Anything, "c1").Return([]domain.Message{
		{ID: "m1", ConversationID: "c1", Sender: "u2", Text: "old"},
	}, nil).Once()

	assert.NoError(t, s.LoadSnapshot(ctx))

	history, err := s.Open(ctx, "c1")
	assert.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Equal(t, "c1", s.ActiveID())

	for _, c := range s.Conversations() {
		if c.ID == "c1" {
			assert.Equal(t, 0, c.UnreadCount)
		}
	}

	// second open must reuse the cached history
	_, err = s.Open(ctx, "c1")
	assert.NoError(t, err)
	msgRepo.AssertNumberOfCalls(t, "List", 1)
}

func TestSend_OptimisticThenAdoptsServerID(t *testing.T) {
	ctx := context.Background()
	s, convRepo, msgRepo, emitter := newStore(t)
	convRepo.On("List", ctx, "u1").Return(snapshot(time.Now()), nil)
	msgRepo.On("MarkRead", mock.Anything, "c1", "u1").Return(nil)
	msgRepo.On("List", mock.Anything, "c1").Return([]domain.Message{}, nil)
	msgRepo.On("Create", mock.Anything, mock.Anything).Return(&domain.Message{ID: "srv-1", CreatedAt: time.Now()}, nil)
	emitter.On("Emit", realtimedomain.EventSendMessage, mock.Anything).Return(nil)

	assert.NoError(t, s.LoadSnapshot(ctx))
	_, err := s.Open(ctx, "c1")
	assert.NoError(t, err)

	sent, err := s.Send(ctx, "hi there", "", nil)
	assert.NoError(t, err)
	assert.Equal(t, "srv-1", sent.ID)
	assert.NotEmpty(t, sent.ClientID)
	assert.Equal(t, domain.StatusConfirmed, sent.Status)

	history := s.History()
	if assert.Len(t, history, 1) {
		assert.Equal(t, "srv-1", history[0].ID)
		assert.Equal(t, domain.StatusConfirmed, history[0].Status)
	}

	conversations := s.Conversations()
	assert.Equal(t, "c1", conversations[0].ID)
	assertSortedByUpdatedAt(t, conversations)

	emitter.AssertCalled(t, "Emit", realtimedomain.EventSendMessage, domain.OutboundMessage{
		SenderID:   "u1",
		ReceiverID: "u2",
		Text:       "hi there",
	})
}

func TestSend_RevertsOnConfirmedFailure(t *testing.T) {
	ctx := context.Background()
	s, convRepo, msgRepo, emitter := newStore(t)
	convRepo.On("List", ctx, "u1").Return(snapshot(time.Now()), nil)
	msgRepo.On("MarkRead", mock.Anything, "c1", "u1").Return(nil)
	msgRepo.On("List", mock.Anything, "c1").Return([]domain.Message{}, nil)
	msgRepo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("status 500"))
	emitter.On("Emit", realtimedomain.EventSendMessage, mock.Anything).Return(nil)

	assert.NoError(t, s.LoadSnapshot(ctx))
	_, err := s.Open(ctx, "c1")
	assert.NoError(t, err)

	sent, err := s.Send(ctx, "lost message", "", nil)
	assert.Error(t, err)
	assert.Equal(t, domain.StatusFailed, sent.Status)
	assert.Empty(t, s.History())
}

func TestSend_CarriesStoryContext(t *testing.T) {
	ctx := context.Background()
	s, convRepo, msgRepo, emitter := newStore(t)
	convRepo.On("List", ctx, "u1").Return(snapshot(time.Now()), nil)
	msgRepo.On("MarkRead", mock.Anything, "c1", "u1").Return(nil)
	msgRepo.On("List", mock.Anything, "c1").Return([]domain.Message{}, nil)
	msgRepo.On("Create", mock.Anything, mock.Anything).Return(&domain.Message{ID: "srv-2"}, nil)
	emitter.On("Emit", mock.Anything, mock.Anything).Return(nil)

	assert.NoError(t, s.LoadSnapshot(ctx))
	_, err := s.Open(ctx, "c1")
	assert.NoError(t, err)

	story := &domain.StoryContext{StoryID: "s1", Thumbnail: "thumb.jpg", AuthorFirstName: "Ana"}
	sent, err := s.Send(ctx, "nice story", "", story)
	assert.NoError(t, err)
	assert.Equal(t, story, sent.StoryContext)

	emitter.AssertCalled(t, "Emit", realtimedomain.EventSendMessage, domain.OutboundMessage{
		SenderID:     "u1",
		ReceiverID:   "u2",
		Text:         "nice story",
		StoryContext: story,
	})
	emitter.AssertCalled(t, "Emit", realtimedomain.EventSendNotification,
		notificationdomain.OutboundNotification{
			SenderID:    "u1",
			ReceiverID:  "u2",
			Type:        notificationdomain.TypeReplyStory,
			ReferenceID: "s1",
		})
}

func TestDeleteMessage_RevertsOnFailure(t *testing.T) {
	ctx := context.Background()
	s, convRepo, msgRepo, _ := newStore(t)
	convRepo.On("List", ctx, "u1").Return(snapshot(time.Now()), nil)
	msgRepo.On("MarkRead", mock.Anything, "c1", "u1").Return(nil)
	msgRepo.On("List", mock.Anything, "c1").Return([]domain.Message{
		{ID: "m1", ConversationID: "c1", Sender: "u2", Text: "keep me"},
	}, nil)
	msgRepo.On("Delete", mock.Anything, "m1").Return(errors.New("status 500"))

	assert.NoError(t, s.LoadSnapshot(ctx))
	_, err := s.Open(ctx, "c1")
	assert.NoError(t, err)

	assert.Error(t, s.DeleteMessage(ctx, "m1"))

	history := s.History()
	if assert.Len(t, history, 1) {
		assert.Equal(t, "m1", history[0].ID)
	}
}

func TestDeleteConversation_ClearsActive(t *testing.T) {
	ctx := context.Background()
	s, convRepo, msgRepo, _ := newStore(t)
	convRepo.On("List", ctx, "u1").Return(snapshot(time.Now()), nil)
	convRepo.On("Delete", mock.Anything, "c1").Return(nil)
	msgRepo.On("MarkRead", mock.Anything, "c1", "u1").Return(nil)
	msgRepo.On("List", mock.Anything, "c1").Return([]domain.Message{}, nil)

	assert.NoError(t, s.LoadSnapshot(ctx))
	_, err := s.Open(ctx, "c1")
	assert.NoError(t, err)

	assert.NoError(t, s.DeleteConversation(ctx, "c1"))
	assert.Empty(t, s.ActiveID())
	for _, c := range s.Conversations() {
		assert.NotEqual(t, "c1", c.ID)
	}
}

func TestOrdering_HoldsAcrossArrivalsAndSends(t *testing.T) {
	ctx := context.Background()
	s, convRepo, msgRepo, emitter := newStore(t)
	convRepo.On("List", ctx, "u1").Return(snapshot(time.Now()), nil)
	msgRepo.On("MarkRead", mock.Anything, "c3", "u1").Return(nil)
	msgRepo.On("List", mock.Anything, "c3").Return([]domain.Message{}, nil)
	msgRepo.On("Create", mock.Anything, mock.Anything).Return(&domain.Message{ID: "srv-9"}, nil)
	emitter.On("Emit", mock.Anything, mock.Anything).Return(nil)

	assert.NoError(t, s.LoadSnapshot(ctx))
	assertSortedByUpdatedAt(t, s.Conversations())

	s.OnArrival(arrivalPayload(t, domain.ArrivalMessage{Sender: "u2", Text: "one"}))
	assertSortedByUpdatedAt(t, s.Conversations())

	_, err := s.Open(ctx, "c3")
	assert.NoError(t, err)
	_, err = s.Send(ctx, "two", "", nil)
	assert.NoError(t, err)

	conversations := s.Conversations()
	assert.Equal(t, "c3", conversations[0].ID)
	assertSortedByUpdatedAt(t, conversations)
}
