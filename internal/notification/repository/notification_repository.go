package repository

import (
	"context"
	"fmt"
	"net/http"

	"friends_sync_service/internal/notification/domain"
	"friends_sync_service/pkg/httpretry"
)

// NotificationRepository remote access to the viewer's notification list
type NotificationRepository interface {
	List(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, id string) error
}

type apiNotificationRepository struct {
	client  *httpretry.Client
	baseURL string
}

// NewAPINotificationRepository create the REST-backed repository
func NewAPINotificationRepository(client *httpretry.Client, baseURL string) NotificationRepository {
	return &apiNotificationRepository{client: client, baseURL: baseURL}
}

// List fetch the ordered notification snapshot for userID
func (r *apiNotificationRepository) List(ctx context.Context, userID string) ([]domain.Notification, error) {
	var out []domain.Notification
	url := fmt.Sprintf("%s/api/notifications/%s", r.baseURL, userID)
	if err := r.client.GetJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRead persist the read flag of one notification
func (r *apiNotificationRepository) MarkRead(ctx context.Context, id string) error {
	url := fmt.Sprintf("%s/api/notifications/%s/read", r.baseURL, id)
	return r.client.SendJSON(ctx, http.MethodPut, url, nil, nil)
}

// MarkAllRead persist the read flag of every notification of userID
func (r *apiNotificationRepository) MarkAllRead(ctx context.Context, userID string) error {
	url := fmt.Sprintf("%s/api/notifications/%s/mark-all-read", r.baseURL, userID)
	return r.client.SendJSON(ctx, http.MethodPut, url, nil, nil)
}

// Delete remove one notification server-side
func (r *apiNotificationRepository) Delete(ctx context.Context, id string) error {
	url := fmt.Sprintf("%s/api/notifications/%s", r.baseURL, id)
	return r.client.SendJSON(ctx, http.MethodDelete, url, nil, nil)
}
