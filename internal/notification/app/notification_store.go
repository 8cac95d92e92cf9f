package app

import (
	"context"
	"encoding/json"
	"sync"

	"friends_sync_service/internal/notification/domain"
	"friends_sync_service/internal/notification/repository"
	errprocess "friends_sync_service/pkg/err"
	"friends_sync_service/pkg/logger"

	"go.uber.org/zap"
)

// NotificationStore merges the REST snapshot and pushed notification events
// into one ordered list with an unread counter. The counter is recomputed
// from the list after every local mutation, so it can never drift from the
// in-memory state; it may transiently diverge from server truth between a
// mutation and its remote confirmation.
type NotificationStore struct {
	mu     sync.Mutex
	repo   repository.NotificationRepository
	items  []domain.Notification
	unread int
}

// NewNotificationStore create the store
func NewNotificationStore(repo repository.NotificationRepository) *NotificationStore {
	return &NotificationStore{repo: repo}
}

// LoadSnapshot fetch the notification list for userID and replace local
// state wholesale
func (s *NotificationStore) LoadSnapshot(ctx context.Context, userID string) error {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return errprocess.Wrap("notification snapshot load failed", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.recount()
	logger.Log.Info("notification snapshot loaded",
		zap.String("userID", userID), zap.Int("count", len(items)), zap.Int("unread", s.unread))
	return nil
}

// OnPush merge one pushed notification as the newest entry. An id already
// present is refreshed in place instead of duplicated; this assumes the
// gateway pushes the same persisted record the snapshot endpoint returns,
// which the backend does not document.
func (s *NotificationStore) OnPush(data json.RawMessage) {
	var n domain.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		logger.Log.Errorf("pushed notification decode failed", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == n.ID {
			s.items[i] = n
			s.recount()
			return
		}
	}
	s.items = append([]domain.Notification{n}, s.items...)
	s.recount()
}

// MarkRead flip one entry to read and persist the change. Idempotent; the
// optimistic flip is reverted when the backend confirms a failure.
func (s *NotificationStore) MarkRead(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 || s.items[idx].IsRead {
		s.mu.Unlock()
		return nil
	}
	s.items[idx].IsRead = true
	s.recount()
	s.mu.Unlock()

	if err := s.repo.MarkRead(ctx, id); err != nil {
		s.mu.Lock()
		if idx := s.indexOf(id); idx >= 0 {
			s.items[idx].IsRead = false
			s.recount()
		}
		s.mu.Unlock()
		return errprocess.Wrap("mark read not confirmed, reverted", err)
	}
	return nil
}

// MarkAllRead flip every entry to read and persist with one request
func (s *NotificationStore) MarkAllRead(ctx context.Context, userID string) error {
	s.mu.Lock()
	previous := make(map[string]bool, len(s.items))
	for i := range s.items {
		previous[s.items[i].ID] = s.items[i].IsRead
		s.items[i].IsRead = true
	}
	s.recount()
	s.mu.Unlock()

	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		s.mu.Lock()
		for i := range s.items {
			if wasRead, ok := previous[s.items[i].ID]; ok {
				s.items[i].IsRead = wasRead
			}
		}
		s.recount()
		s.mu.Unlock()
		return errprocess.Wrap("mark all read not confirmed, reverted", err)
	}
	return nil
}

// Delete remove one entry and persist the removal
func (s *NotificationStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	removed := s.items[idx]
	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	s.recount()
	s.mu.Unlock()

	if err := s.repo.Delete(ctx, id); err != nil {
		s.mu.Lock()
		if s.indexOf(id) < 0 {
			if idx > len(s.items) {
				idx = len(s.items)
			}
			rest := append([]domain.Notification{removed}, s.items[idx:]...)
			s.items = append(s.items[:idx:idx], rest...)
			s.recount()
		}
		s.mu.Unlock()
		return errprocess.Wrap("notification delete not confirmed, reverted", err)
	}
	return nil
}

// List copy of the current entries plus the unread counter
func (s *NotificationStore) List() ([]domain.Notification, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Notification, len(s.items))
	copy(out, s.items)
	return out, s.unread
}

// indexOf caller holds s.mu
func (s *NotificationStore) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// recount caller holds s.mu
func (s *NotificationStore) recount() {
	unread := 0
	for i := range s.items {
		if !s.items[i].IsRead {
			unread++
		}
	}
	s.unread = unread
}
