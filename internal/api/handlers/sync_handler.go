package handlers

import (
	"strings"
	"sync"

	messengerapp "friends_sync_service/internal/messenger/app"
	messengerdomain "friends_sync_service/internal/messenger/domain"
	notificationapp "friends_sync_service/internal/notification/app"
	postapp "friends_sync_service/internal/post/app"
	postdomain "friends_sync_service/internal/post/domain"
	postrepo "friends_sync_service/internal/post/repository"
	realtimeapp "friends_sync_service/internal/realtime/app"
	userapp "friends_sync_service/internal/user/app"
	"friends_sync_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SyncHandler exposes the reconciled stores to the UI process
type SyncHandler struct {
	viewerID      string
	notifications *notificationapp.NotificationStore
	messenger     *messengerapp.MessengerStore
	conn          *realtimeapp.Connection
	users         *userapp.ProfileUseCase
	posts         postrepo.PostRepository

	mu       sync.Mutex
	watchers map[string]*postapp.Watcher
}

// NewSyncHandler create SyncHandler
func NewSyncHandler(
	viewerID string,
	notifications *notificationapp.NotificationStore,
	messenger *messengerapp.MessengerStore,
	conn *realtimeapp.Connection,
	users *userapp.ProfileUseCase,
	posts postrepo.PostRepository,
) *SyncHandler {
	return &SyncHandler{
		viewerID:      viewerID,
		notifications: notifications,
		messenger:     messenger,
		conn:          conn,
		users:         users,
		posts:         posts,
		watchers:      make(map[string]*postapp.Watcher),
	}
}

func failUpstream(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadGateway
	if strings.Contains(err.Error(), "not found") {
		status = fiber.StatusNotFound
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// Notifications list the reconciled notifications with the unread counter
func (h *SyncHandler) Notifications(c *fiber.Ctx) error {
	items, unread := h.notifications.List()
	return c.JSON(fiber.Map{"items": items, "unread": unread})
}

// Conversations list conversations, newest activity first
func (h *SyncHandler) Conversations(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"items":       h.messenger.Conversations(),
		"totalUnread": h.messenger.TotalUnread(),
		"activeId":    h.messenger.ActiveID(),
	})
}

// Messages history of the open conversation; only the open one is held
func (h *SyncHandler) Messages(c *fiber.Ctx) error {
	id := c.Params("conversationId")
	if id != h.messenger.ActiveID() {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "conversation is not open: " + id,
		})
	}
	return c.JSON(fiber.Map{"items": h.messenger.History()})
}

// Presence identities currently connected to the push gateway
func (h *SyncHandler) Presence(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"online":    h.conn.Online(),
		"connected": h.conn.Connected(),
	})
}

// Peer denormalized profile of one identity
func (h *SyncHandler) Peer(c *fiber.Ctx) error {
	peer, err := h.users.Peer(c.Context(), c.Params("id"))
	if err != nil {
		return failUpstream(c, err)
	}
	return c.JSON(peer)
}

// MarkNotificationRead flag one notification read
func (h *SyncHandler) MarkNotificationRead(c *fiber.Ctx) error {
	if err := h.notifications.MarkRead(c.Context(), c.Params("id")); err != nil {
		return failUpstream(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllNotificationsRead flag every notification read
func (h *SyncHandler) MarkAllNotificationsRead(c *fiber.Ctx) error {
	if err := h.notifications.MarkAllRead(c.Context(), h.viewerID); err != nil {
		return failUpstream(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteNotification remove one notification
func (h *SyncHandler) DeleteNotification(c *fiber.Ctx) error {
	if err := h.notifications.Delete(c.Context(), c.Params("id")); err != nil {
		return failUpstream(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type startConversationRequest struct {
	PeerID string `json:"peerId"`
}

// StartConversation open the thread with a peer, creating it on first contact
func (h *SyncHandler) StartConversation(c *fiber.Ctx) error {
	var req startConversationRequest
	if err := c.BodyParser(&req); err != nil || req.PeerID == "" {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	conv, err := h.messenger.StartConversation(c.Context(), req.PeerID)
	if err != nil {
		return failUpstream(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"conversation": conv,
		"items":        h.messenger.History(),
	})
}

// OpenConversation make one conversation the active chat and return its history
func (h *SyncHandler) OpenConversation(c *fiber.Ctx) error {
	history, err := h.messenger.Open(c.Context(), c.Params("id"))
	if err != nil {
		return failUpstream(c, err)
	}
	return c.JSON(fiber.Map{"items": history})
}

// CloseConversation leave the active chat
func (h *SyncHandler) CloseConversation(c *fiber.Ctx) error {
	h.messenger.CloseActive()
	return c.SendStatus(fiber.StatusNoContent)
}

type sendMessageRequest struct {
	Text         string                        `json:"text"`
	Img          string                        `json:"img,omitempty"`
	StoryContext *messengerdomain.StoryContext `json:"storyContext,omitempty"`
}

// SendMessage optimistic send into the open conversation
func (h *SyncHandler) SendMessage(c *fiber.Ctx) error {
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	sent, err := h.messenger.Send(c.Context(), req.Text, req.Img, req.StoryContext)
	if err != nil {
		if sent != nil {
			// reverted entry goes back so the UI can offer a retry
			return c.Status(fiber.StatusBadGateway).JSON(sent)
		}
		return failUpstream(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sent)
}

// DeleteMessage remove one message from the open history
func (h *SyncHandler) DeleteMessage(c *fiber.Ctx) error {
	if err := h.messenger.DeleteMessage(c.Context(), c.Params("id")); err != nil {
		return failUpstream(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteConversation remove a whole thread
func (h *SyncHandler) DeleteConversation(c *fiber.Ctx) error {
	if err := h.messenger.DeleteConversation(c.Context(), c.Params("id")); err != nil {
		return failUpstream(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Feed timeline posts visible to the viewer
func (h *SyncHandler) Feed(c *fiber.Ctx) error {
	posts, err := h.posts.Timeline(c.Context(), h.viewerID)
	if err != nil {
		return failUpstream(c, err)
	}
	return c.JSON(fiber.Map{"items": posts})
}

type createPostRequest struct {
	Description string `json:"desc,omitempty"`
	Image       string `json:"img,omitempty"`
}

// CreatePost persist a new post by the viewer
func (h *SyncHandler) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}
	post, err := h.posts.Create(c.Context(), &postdomain.Post{
		UserID:      h.viewerID,
		Description: req.Description,
		Image:       req.Image,
	})
	if err != nil {
		return failUpstream(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// DeletePost remove a post and stop watching it
func (h *SyncHandler) DeletePost(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.posts.Delete(c.Context(), id); err != nil {
		return failUpstream(c, err)
	}
	h.mu.Lock()
	w, ok := h.watchers[id]
	delete(h.watchers, id)
	h.mu.Unlock()
	if ok {
		w.Close()
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// WatchPost fetch the post and start merging its pushed patches
func (h *SyncHandler) WatchPost(c *fiber.Ctx) error {
	id := c.Params("id")

	h.mu.Lock()
	if w, ok := h.watchers[id]; ok {
		h.mu.Unlock()
		return c.JSON(w.Engagement())
	}
	h.mu.Unlock()

	post, err := h.posts.Get(c.Context(), id)
	if err != nil {
		return failUpstream(c, err)
	}

	w := postapp.NewWatcher(h.viewerID, *post, h.posts, h.conn, h.conn)
	h.mu.Lock()
	if prior, ok := h.watchers[id]; ok {
		// a concurrent watch won the race, keep the first watcher
		h.mu.Unlock()
		w.Close()
		return c.JSON(prior.Engagement())
	}
	h.watchers[id] = w
	h.mu.Unlock()

	logger.Log.Info("post watch started", zap.String("postID", id))
	return c.JSON(w.Engagement())
}

// UnwatchPost stop merging patches for the post
func (h *SyncHandler) UnwatchPost(c *fiber.Ctx) error {
	id := c.Params("id")
	h.mu.Lock()
	w, ok := h.watchers[id]
	delete(h.watchers, id)
	h.mu.Unlock()
	if ok {
		w.Close()
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PostEngagement snapshot of a watched post's like and comment state
func (h *SyncHandler) PostEngagement(c *fiber.Ctx) error {
	id := c.Params("id")
	h.mu.Lock()
	w, ok := h.watchers[id]
	h.mu.Unlock()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "post is not watched: " + id,
		})
	}
	return c.JSON(w.Engagement())
}

// ToggleLike flip the viewer's like on a watched post
func (h *SyncHandler) ToggleLike(c *fiber.Ctx) error {
	id := c.Params("id")
	h.mu.Lock()
	w, ok := h.watchers[id]
	h.mu.Unlock()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "post is not watched: " + id,
		})
	}
	if err := w.ToggleLike(c.Context()); err != nil {
		return failUpstream(c, err)
	}
	return c.JSON(w.Engagement())
}

type addCommentRequest struct {
	Text string `json:"text"`
}

// AddComment append a comment to a watched post
func (h *SyncHandler) AddComment(c *fiber.Ctx) error {
	id := c.Params("id")
	var req addCommentRequest
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	h.mu.Lock()
	w, ok := h.watchers[id]
	h.mu.Unlock()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "post is not watched: " + id,
		})
	}
	if err := w.AddComment(c.Context(), req.Text); err != nil {
		return failUpstream(c, err)
	}
	return c.JSON(w.Engagement())
}

// AcceptFollowRequest approve a pending follow request
func (h *SyncHandler) AcceptFollowRequest(c *fiber.Ctx) error {
	if err := h.users.AcceptFollowRequest(c.Context(), c.Params("id")); err != nil {
		return failUpstream(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeclineFollowRequest reject a pending follow request
func (h *SyncHandler) DeclineFollowRequest(c *fiber.Ctx) error {
	if err := h.users.DeclineFollowRequest(c.Context(), c.Params("id")); err != nil {
		return failUpstream(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
