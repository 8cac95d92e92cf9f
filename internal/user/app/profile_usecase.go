package app

import (
	"context"
	"sync"

	notificationdomain "friends_sync_service/internal/notification/domain"
	realtimedomain "friends_sync_service/internal/realtime/domain"
	"friends_sync_service/internal/user/domain"
	"friends_sync_service/internal/user/repository"
	errprocess "friends_sync_service/pkg/err"
	"friends_sync_service/pkg/logger"

	"go.uber.org/zap"
)

// Emitter publishes events over the duplex connection
type Emitter interface {
	Emit(event string, data interface{}) error
}

// ProfileUseCase pushes the signed-in profile upstream on startup, resolves
// peer profiles for conversation denormalization and settles follow requests
type ProfileUseCase struct {
	mu      sync.Mutex
	profile domain.Profile
	repo    repository.UserRepository
	emitter Emitter
	peers   map[string]*domain.User
}

// NewProfileUseCase create the use case for the signed-in identity
func NewProfileUseCase(profile domain.Profile, repo repository.UserRepository, emitter Emitter) *ProfileUseCase {
	return &ProfileUseCase{
		profile: profile,
		repo:    repo,
		emitter: emitter,
		peers:   make(map[string]*domain.User),
	}
}

// SyncProfile upsert the local profile server-side; called once on startup
// before any other traffic so the backend can denormalize sender data
func (u *ProfileUseCase) SyncProfile(ctx context.Context) (*domain.User, error) {
	stored, err := u.repo.Sync(ctx, &u.profile)
	if err != nil {
		return nil, errprocess.Wrap("profile sync failed", err)
	}
	logger.Log.Info("profile synced", zap.String("userID", stored.ID))
	return stored, nil
}

// Peer fetch a profile by id, serving repeated lookups from the cache
func (u *ProfileUseCase) Peer(ctx context.Context, id string) (*domain.User, error) {
	u.mu.Lock()
	if cached, ok := u.peers[id]; ok {
		u.mu.Unlock()
		return cached, nil
	}
	u.mu.Unlock()

	peer, err := u.repo.Get(ctx, id)
	if err != nil {
		return nil, errprocess.Wrap("peer lookup failed", err)
	}

	u.mu.Lock()
	u.peers[id] = peer
	u.mu.Unlock()
	return peer, nil
}

// InvalidatePeer drop one cached profile so the next lookup refetches it
func (u *ProfileUseCase) InvalidatePeer(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.peers, id)
}

// AcceptFollowRequest approve a pending request and tell the requester over
// the push channel; the notification is best effort
func (u *ProfileUseCase) AcceptFollowRequest(ctx context.Context, requesterID string) error {
	if err := u.repo.AcceptFollowRequest(ctx, requesterID, u.profile.ID); err != nil {
		return errprocess.Wrap("follow request accept failed", err)
	}

	err := u.emitter.Emit(realtimedomain.EventSendNotification, notificationdomain.OutboundNotification{
		SenderID:   u.profile.ID,
		ReceiverID: requesterID,
		Type:       notificationdomain.TypeFollow,
	})
	if err != nil {
		logger.Log.Warn("follow notification emit failed",
			zap.String("requesterID", requesterID), zap.Error(err))
	}
	return nil
}

// DeclineFollowRequest reject a pending request; the requester is not told
func (u *ProfileUseCase) DeclineFollowRequest(ctx context.Context, requesterID string) error {
	if err := u.repo.DeclineFollowRequest(ctx, requesterID, u.profile.ID); err != nil {
		return errprocess.Wrap("follow request decline failed", err)
	}
	return nil
}
