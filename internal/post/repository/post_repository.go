package repository

import (
	"context"
	"fmt"
	"net/http"

	"friends_sync_service/internal/post/domain"
	"friends_sync_service/pkg/httpretry"
)

// PostRepository remote access to posts and their engagement mutations
type PostRepository interface {
	Get(ctx context.Context, id string) (*domain.Post, error)
	Timeline(ctx context.Context, userID string) ([]domain.Post, error)
	Create(ctx context.Context, post *domain.Post) (*domain.Post, error)
	Delete(ctx context.Context, id string) error
	Like(ctx context.Context, postID, userID string) error
	Comment(ctx context.Context, postID string, comment *domain.Comment) ([]domain.Comment, error)
}

type apiPostRepository struct {
	client  *httpretry.Client
	baseURL string
}

// NewAPIPostRepository create the REST-backed post repository
func NewAPIPostRepository(client *httpretry.Client, baseURL string) PostRepository {
	return &apiPostRepository{client: client, baseURL: baseURL}
}

// Get fetch one post
func (r *apiPostRepository) Get(ctx context.Context, id string) (*domain.Post, error) {
	var out domain.Post
	url := fmt.Sprintf("%s/api/posts/%s", r.baseURL, id)
	if err := r.client.GetJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Timeline fetch the posts visible to userID
func (r *apiPostRepository) Timeline(ctx context.Context, userID string) ([]domain.Post, error) {
	var out []domain.Post
	url := fmt.Sprintf("%s/api/posts/timeline/%s", r.baseURL, userID)
	if err := r.client.GetJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create persist a new post
func (r *apiPostRepository) Create(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	var out domain.Post
	url := fmt.Sprintf("%s/api/posts", r.baseURL)
	if err := r.client.SendJSON(ctx, http.MethodPost, url, post, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete remove a post server-side
func (r *apiPostRepository) Delete(ctx context.Context, id string) error {
	url := fmt.Sprintf("%s/api/posts/%s", r.baseURL, id)
	return r.client.SendJSON(ctx, http.MethodDelete, url, nil, nil)
}

// Like toggle userID's like on the post
func (r *apiPostRepository) Like(ctx context.Context, postID, userID string) error {
	url := fmt.Sprintf("%s/api/posts/%s/like", r.baseURL, postID)
	body := map[string]string{"userId": userID}
	return r.client.SendJSON(ctx, http.MethodPut, url, body, nil)
}

// Comment append a comment and return the stored comment list
func (r *apiPostRepository) Comment(ctx context.Context, postID string, comment *domain.Comment) ([]domain.Comment, error) {
	var out []domain.Comment
	url := fmt.Sprintf("%s/api/posts/%s/comment", r.baseURL, postID)
	if err := r.client.SendJSON(ctx, http.MethodPut, url, comment, &out); err != nil {
		return nil, err
	}
	return out, nil
}
