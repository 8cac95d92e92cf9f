package app

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"friends_sync_service/internal/messenger/domain"
	"friends_sync_service/internal/messenger/repository"
	notificationdomain "friends_sync_service/internal/notification/domain"
	realtimedomain "friends_sync_service/internal/realtime/domain"
	errprocess "friends_sync_service/pkg/err"
	"friends_sync_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Emitter publishes events over the duplex connection
type Emitter interface {
	Emit(event string, data interface{}) error
}

// MessengerStore keeps the ordered conversation list, per-conversation
// unread counters and the open conversation's history in sync with the
// backend. Arrivals for the open conversation land in the history and never
// raise its unread counter; arrivals for a conversation unknown locally
// trigger a snapshot refetch instead of being dropped.
type MessengerStore struct {
	mu       sync.Mutex
	userID   string
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	emitter  Emitter

	conversations []domain.Conversation
	active        string
	histories     map[string][]domain.Message
}

// NewMessengerStore create the store for the signed-in identity
func NewMessengerStore(
	userID string,
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	emitter Emitter,
) *MessengerStore {
	return &MessengerStore{
		userID:    userID,
		convRepo:  convRepo,
		msgRepo:   msgRepo,
		emitter:   emitter,
		histories: make(map[string][]domain.Message),
	}
}

// LoadSnapshot fetch the conversation list and replace local state wholesale
func (s *MessengerStore) LoadSnapshot(ctx context.Context) error {
	conversations, err := s.convRepo.List(ctx, s.userID)
	if err != nil {
		return errprocess.Wrap("conversation snapshot load failed", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations = conversations
	s.sortLocked()
	logger.Log.Info("conversation snapshot loaded",
		zap.String("userID", s.userID), zap.Int("count", len(conversations)))
	return nil
}

// Open make one conversation the active chat: its unread counter is zeroed,
// the backend is told the messages were read, and the history is fetched
// unless already cached
func (s *MessengerStore) Open(ctx context.Context, id string) ([]domain.Message, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, errprocess.Set("conversation not found: " + id)
	}
	s.active = id
	s.conversations[idx].UnreadCount = 0
	_, cached := s.histories[id]
	s.mu.Unlock()

	if err := s.msgRepo.MarkRead(ctx, id, s.userID); err != nil {
		// the counter stays at zero while the chat is open; only the
		// server-side flag lags behind
		logger.Log.Errorf("mark conversation read failed", err, zap.String("conversationID", id))
	}

	if !cached {
		history, err := s.msgRepo.List(ctx, id)
		if err != nil {
			return nil, errprocess.Wrap("message history load failed", err)
		}
		s.mu.Lock()
		s.histories[id] = history
		s.mu.Unlock()
	}

	return s.History(), nil
}

// CloseActive leave the open chat; unread counting resumes for it
func (s *MessengerStore) CloseActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = ""
}

// OnArrival merge one pushed message. The owning conversation is bumped to
// the list head; its unread counter grows unless it is the open chat, in
// which case the message goes straight into the visible history.
func (s *MessengerStore) OnArrival(data json.RawMessage) {
	var arrival domain.ArrivalMessage
	if err := json.Unmarshal(data, &arrival); err != nil {
		logger.Log.Errorf("pushed message decode failed", err)
		return
	}

	s.mu.Lock()
	idx := s.indexOfMember(arrival.Sender)
	if idx >= 0 {
		s.applyArrivalLocked(idx, arrival, false)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	// no local conversation holds the sender yet; the thread was opened on
	// another device or by the peer's first message, so refetch the list
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conversations, err := s.convRepo.List(ctx, s.userID)
	if err != nil {
		logger.Log.Errorf("arrival for unknown conversation, refetch failed", err,
			zap.String("sender", arrival.Sender))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	merged := make(map[string]bool)
	for _, c := range conversations {
		if c.HasMember(arrival.Sender) && s.indexOf(c.ID) < 0 {
			s.conversations = append(s.conversations, c)
			merged[c.ID] = true
		}
	}
	idx = s.indexOfMember(arrival.Sender)
	if idx < 0 {
		logger.Log.Warn("arrival dropped, sender has no conversation server-side",
			zap.String("sender", arrival.Sender))
		return
	}
	// assumption: a refetched snapshot with a non-zero counter already
	// includes the pushed message; the backend does not document the
	// ordering between persist and push
	counted := merged[s.conversations[idx].ID] && s.conversations[idx].UnreadCount > 0
	s.applyArrivalLocked(idx, arrival, counted)
}

// applyArrivalLocked caller holds s.mu; counted means the unread counter
// already accounts for this message
func (s *MessengerStore) applyArrivalLocked(idx int, arrival domain.ArrivalMessage, counted bool) {
	conv := &s.conversations[idx]
	conv.UpdatedAt = time.Now()

	if s.active == conv.ID {
		msg := domain.Message{
			ConversationID: conv.ID,
			Sender:         arrival.Sender,
			Text:           arrival.Text,
			ImageURL:       arrival.Img,
			StoryContext:   arrival.StoryContext,
			CreatedAt:      arrival.CreatedAt,
			Status:         domain.StatusConfirmed,
		}
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = time.Now()
		}
		s.histories[conv.ID] = append(s.histories[conv.ID], msg)
		conv.UnreadCount = 0
	} else if !counted {
		conv.UnreadCount++
	}
	s.sortLocked()
}

// StartConversation open the thread with peerID, creating it server-side on
// first contact. The backend returns the stored conversation when one already
// exists for the pair, so creating is safe to race with an arrival.
func (s *MessengerStore) StartConversation(ctx context.Context, peerID string) (*domain.Conversation, error) {
	s.mu.Lock()
	var id string
	if idx := s.indexOfMember(peerID); idx >= 0 {
		id = s.conversations[idx].ID
	}
	s.mu.Unlock()

	if id == "" {
		created, err := s.convRepo.Create(ctx, s.userID, peerID)
		if err != nil {
			return nil, errprocess.Wrap("conversation create failed", err)
		}
		s.mu.Lock()
		if s.indexOf(created.ID) < 0 {
			if created.UpdatedAt.IsZero() {
				created.UpdatedAt = time.Now()
			}
			s.conversations = append(s.conversations, *created)
			s.sortLocked()
		}
		id = created.ID
		s.mu.Unlock()
		logger.Log.Info("conversation created",
			zap.String("conversationID", id), zap.String("peer", peerID))
	}

	if _, err := s.Open(ctx, id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return nil, errprocess.Set("conversation not found: " + id)
	}
	conv := s.conversations[idx]
	return &conv, nil
}

// Send apply an optimistic message to the open chat, emit it over the duplex
// connection for low-latency delivery and persist it via REST. A story reply
// additionally pushes a reply_story notification to the peer. The persisted
// record's id is adopted on confirm so later deletion targets the stored
// entry; a confirmed failure removes the optimistic entry again.
func (s *MessengerStore) Send(ctx context.Context, text, imageURL string, story *domain.StoryContext) (*domain.Message, error) {
	s.mu.Lock()
	idx := s.indexOf(s.active)
	if idx < 0 {
		s.mu.Unlock()
		return nil, errprocess.Set("no open conversation to send into")
	}
	conv := s.conversations[idx]
	peer := conv.Peer(s.userID)

	clientID := uuid.New().String()
	optimistic := domain.Message{
		ID:             clientID,
		ClientID:       clientID,
		ConversationID: conv.ID,
		Sender:         s.userID,
		Text:           text,
		ImageURL:       imageURL,
		StoryContext:   story,
		CreatedAt:      time.Now(),
		Status:         domain.StatusPending,
	}
	s.histories[conv.ID] = append(s.histories[conv.ID], optimistic)
	s.conversations[idx].UpdatedAt = optimistic.CreatedAt
	s.sortLocked()
	s.mu.Unlock()

	if err := s.emitter.Emit(realtimedomain.EventSendMessage, domain.OutboundMessage{
		SenderID:     s.userID,
		ReceiverID:   peer,
		Text:         text,
		Img:          imageURL,
		StoryContext: story,
	}); err != nil {
		// socket delivery is best effort, the REST create below is the
		// durable path
		logger.Log.Warn("socket emit failed", zap.Error(err))
	}

	if story != nil {
		if err := s.emitter.Emit(realtimedomain.EventSendNotification, notificationdomain.OutboundNotification{
			SenderID:    s.userID,
			ReceiverID:  peer,
			Type:        notificationdomain.TypeReplyStory,
			ReferenceID: story.StoryID,
		}); err != nil {
			logger.Log.Warn("story reply notification emit failed", zap.Error(err))
		}
	}

	persisted, err := s.msgRepo.Create(ctx, &optimistic)
	if err != nil {
		s.mu.Lock()
		s.removeMessageLocked(conv.ID, clientID)
		s.mu.Unlock()
		optimistic.Status = domain.StatusFailed
		return &optimistic, errprocess.Wrap("message create not confirmed, reverted", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.histories[conv.ID]
	for i := range history {
		if history[i].ClientID == clientID {
			if persisted.ID != "" {
				history[i].ID = persisted.ID
			}
			if !persisted.CreatedAt.IsZero() {
				history[i].CreatedAt = persisted.CreatedAt
			}
			history[i].Status = domain.StatusConfirmed
			confirmed := history[i]
			return &confirmed, nil
		}
	}
	// open chat changed while the create was in flight; nothing to update
	optimistic.Status = domain.StatusConfirmed
	return &optimistic, nil
}

// DeleteMessage remove one message from the open history and persist the
// removal; the entry is restored if the backend rejects it
func (s *MessengerStore) DeleteMessage(ctx context.Context, id string) error {
	s.mu.Lock()
	convID := s.active
	removed, pos := s.removeMessageLocked(convID, id)
	s.mu.Unlock()
	if removed == nil {
		return errprocess.Set("message not found: " + id)
	}

	if err := s.msgRepo.Delete(ctx, id); err != nil {
		s.mu.Lock()
		history := s.histories[convID]
		if pos > len(history) {
			pos = len(history)
		}
		rest := append([]domain.Message{*removed}, history[pos:]...)
		s.histories[convID] = append(history[:pos:pos], rest...)
		s.mu.Unlock()
		return errprocess.Wrap("message delete not confirmed, reverted", err)
	}
	return nil
}

// DeleteConversation remove a whole thread and persist the removal
func (s *MessengerStore) DeleteConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return errprocess.Set("conversation not found: " + id)
	}
	removed := s.conversations[idx]
	s.conversations = append(s.conversations[:idx:idx], s.conversations[idx+1:]...)
	history := s.histories[id]
	delete(s.histories, id)
	wasActive := s.active == id
	if wasActive {
		s.active = ""
	}
	s.mu.Unlock()

	if err := s.convRepo.Delete(ctx, id); err != nil {
		s.mu.Lock()
		s.conversations = append(s.conversations, removed)
		s.sortLocked()
		if history != nil {
			s.histories[id] = history
		}
		if wasActive {
			s.active = id
		}
		s.mu.Unlock()
		return errprocess.Wrap("conversation delete not confirmed, reverted", err)
	}
	return nil
}

// Conversations copy of the list, descending by update time
func (s *MessengerStore) Conversations() []domain.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

// History copy of the open conversation's messages
func (s *MessengerStore) History() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := s.histories[s.active]
	out := make([]domain.Message, len(history))
	copy(out, history)
	return out
}

// ActiveID id of the open conversation, empty when none is open
func (s *MessengerStore) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// TotalUnread sum of the unread counters across conversations
func (s *MessengerStore) TotalUnread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, c := range s.conversations {
		total += c.UnreadCount
	}
	return total
}

// indexOf caller holds s.mu
func (s *MessengerStore) indexOf(id string) int {
	for i := range s.conversations {
		if s.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

// indexOfMember caller holds s.mu; the sender is never the viewer here so
// matching by membership picks the peer's thread
func (s *MessengerStore) indexOfMember(memberID string) int {
	for i := range s.conversations {
		if s.conversations[i].HasMember(memberID) {
			return i
		}
	}
	return -1
}

// removeMessageLocked caller holds s.mu; matches on server id or client id
func (s *MessengerStore) removeMessageLocked(convID, id string) (*domain.Message, int) {
	history := s.histories[convID]
	for i := range history {
		if history[i].ID == id || (history[i].ClientID != "" && history[i].ClientID == id) {
			removed := history[i]
			s.histories[convID] = append(history[:i:i], history[i+1:]...)
			return &removed, i
		}
	}
	return nil, -1
}

// sortLocked caller holds s.mu
func (s *MessengerStore) sortLocked() {
	sort.SliceStable(s.conversations, func(i, j int) bool {
		return s.conversations[i].UpdatedAt.After(s.conversations[j].UpdatedAt)
	})
}
