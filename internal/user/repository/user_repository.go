package repository

import (
	"context"
	"fmt"
	"net/http"

	"friends_sync_service/internal/user/domain"
	"friends_sync_service/pkg/httpretry"
)

// UserRepository remote access to user profiles and follow requests
type UserRepository interface {
	Sync(ctx context.Context, profile *domain.Profile) (*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	AcceptFollowRequest(ctx context.Context, requesterID, userID string) error
	DeclineFollowRequest(ctx context.Context, requesterID, userID string) error
}

type apiUserRepository struct {
	client  *httpretry.Client
	baseURL string
}

// NewAPIUserRepository create the REST-backed user repository
func NewAPIUserRepository(client *httpretry.Client, baseURL string) UserRepository {
	return &apiUserRepository{client: client, baseURL: baseURL}
}

// Sync upsert the signed-in identity's profile
func (r *apiUserRepository) Sync(ctx context.Context, profile *domain.Profile) (*domain.User, error) {
	var out domain.User
	url := fmt.Sprintf("%s/api/users/sync", r.baseURL)
	if err := r.client.SendJSON(ctx, http.MethodPost, url, profile, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetch one profile by id
func (r *apiUserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	var out domain.User
	url := fmt.Sprintf("%s/api/users/%s", r.baseURL, id)
	if err := r.client.GetJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AcceptFollowRequest approve requesterID's pending request against userID
func (r *apiUserRepository) AcceptFollowRequest(ctx context.Context, requesterID, userID string) error {
	url := fmt.Sprintf("%s/api/users/%s/accept", r.baseURL, requesterID)
	body := map[string]string{"userId": userID}
	return r.client.SendJSON(ctx, http.MethodPut, url, body, nil)
}

// DeclineFollowRequest reject requesterID's pending request against userID
func (r *apiUserRepository) DeclineFollowRequest(ctx context.Context, requesterID, userID string) error {
	url := fmt.Sprintf("%s/api/users/%s/decline", r.baseURL, requesterID)
	body := map[string]string{"userId": userID}
	return r.client.SendJSON(ctx, http.MethodPut, url, body, nil)
}
