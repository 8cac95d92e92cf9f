package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	notificationdomain "friends_sync_service/internal/notification/domain"
	"friends_sync_service/internal/post/domain"
	"friends_sync_service/internal/post/repository"
	realtimeapp "friends_sync_service/internal/realtime/app"
	realtimedomain "friends_sync_service/internal/realtime/domain"
	errprocess "friends_sync_service/pkg/err"
	"friends_sync_service/pkg"
	"friends_sync_service/pkg/logger"

	"go.uber.org/zap"
)

// Subscriber registers handlers on the duplex connection
type Subscriber interface {
	Subscribe(event string, fn realtimeapp.Handler) func()
}

// Emitter publishes events over the duplex connection
type Emitter interface {
	Emit(event string, data interface{}) error
}

// Watcher tracks one post's engagement while it is on screen. Pushed
// post_updated patches for the watched id are authoritative: a like patch
// replaces the count and recomputes the viewer's like flag from the carried
// list, a comment patch replaces the comment list wholesale. The viewer's
// own taps apply optimistically and are reverted on confirmed failure.
type Watcher struct {
	mu       sync.Mutex
	viewerID string
	postID   string
	ownerID  string

	likeCount int
	isLiked   bool
	comments  []domain.Comment

	repo        repository.PostRepository
	emitter     Emitter
	unsubscribe func()
}

// NewWatcher build a watcher seeded from the post and subscribe it to
// post_updated pushes; Close must be called when the view goes away
func NewWatcher(
	viewerID string,
	post domain.Post,
	repo repository.PostRepository,
	emitter Emitter,
	sub Subscriber,
) *Watcher {
	w := &Watcher{
		viewerID:  viewerID,
		postID:    post.ID,
		ownerID:   post.UserID,
		likeCount: len(post.Likes),
		isLiked:   pkg.Contains(post.Likes, viewerID),
		comments:  append([]domain.Comment(nil), post.Comments...),
		repo:      repo,
		emitter:   emitter,
	}
	w.unsubscribe = sub.Subscribe(realtimedomain.EventPostUpdated, w.OnPatch)
	return w
}

// OnPatch merge one pushed patch; patches for other posts are ignored
func (w *Watcher) OnPatch(data json.RawMessage) {
	var patch domain.Patch
	if err := json.Unmarshal(data, &patch); err != nil {
		logger.Log.Errorf("post patch decode failed", err)
		return
	}
	if patch.PostID != w.postID {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	switch patch.Type {
	case domain.PatchTypeLike:
		w.likeCount = len(patch.Likes)
		w.isLiked = pkg.Contains(patch.Likes, w.viewerID)
	case domain.PatchTypeComment:
		w.comments = append([]domain.Comment(nil), patch.Comments...)
	default:
		logger.Log.Warn("post patch with unknown type dropped",
			zap.String("postID", patch.PostID), zap.String("type", string(patch.Type)))
	}
}

// ToggleLike flip the viewer's like optimistically and persist the toggle;
// the flip is undone if the backend rejects it. Liking someone else's post
// also pushes a like notification to the owner.
func (w *Watcher) ToggleLike(ctx context.Context) error {
	w.mu.Lock()
	liked := !w.isLiked
	w.isLiked = liked
	if liked {
		w.likeCount++
	} else {
		w.likeCount--
	}
	w.mu.Unlock()

	if err := w.repo.Like(ctx, w.postID, w.viewerID); err != nil {
		w.mu.Lock()
		w.isLiked = !liked
		if liked {
			w.likeCount--
		} else {
			w.likeCount++
		}
		w.mu.Unlock()
		return errprocess.Wrap("like toggle not confirmed, reverted", err)
	}

	if liked && w.ownerID != w.viewerID {
		w.notifyOwner(notificationdomain.TypeLikePost)
	}
	return nil
}

// AddComment append the comment optimistically and persist it; the server's
// comment list replaces the optimistic one on confirm
func (w *Watcher) AddComment(ctx context.Context, text string) error {
	comment := domain.Comment{
		UserID:    w.viewerID,
		Text:      text,
		CreatedAt: time.Now(),
	}

	w.mu.Lock()
	pos := len(w.comments)
	w.comments = append(w.comments, comment)
	w.mu.Unlock()

	stored, err := w.repo.Comment(ctx, w.postID, &comment)
	if err != nil {
		w.mu.Lock()
		if pos < len(w.comments) {
			w.comments = append(w.comments[:pos:pos], w.comments[pos+1:]...)
		}
		w.mu.Unlock()
		return errprocess.Wrap("comment not confirmed, reverted", err)
	}

	if stored != nil {
		w.mu.Lock()
		w.comments = stored
		w.mu.Unlock()
	}

	if w.ownerID != w.viewerID {
		w.notifyOwner(notificationdomain.TypeCommentPost)
	}
	return nil
}

// notifyOwner best-effort push notification toward the post owner
func (w *Watcher) notifyOwner(notificationType string) {
	err := w.emitter.Emit(realtimedomain.EventSendNotification, notificationdomain.OutboundNotification{
		SenderID:    w.viewerID,
		ReceiverID:  w.ownerID,
		Type:        notificationType,
		ReferenceID: w.postID,
	})
	if err != nil {
		logger.Log.Warn("engagement notification emit failed",
			zap.String("postID", w.postID), zap.Error(err))
	}
}

// Engagement snapshot of the watched post's like and comment state
func (w *Watcher) Engagement() domain.Engagement {
	w.mu.Lock()
	defer w.mu.Unlock()
	return domain.Engagement{
		LikeCount:       w.likeCount,
		IsLikedByViewer: w.isLiked,
		Comments:        append([]domain.Comment(nil), w.comments...),
	}
}

// Close detach from the push channel; later patches are no longer applied
func (w *Watcher) Close() {
	if w.unsubscribe != nil {
		w.unsubscribe()
		w.unsubscribe = nil
	}
}
