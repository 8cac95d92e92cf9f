package repository

import (
	"context"
	"fmt"
	"net/http"

	"friends_sync_service/internal/messenger/domain"
	"friends_sync_service/pkg/httpretry"
)

// ConversationRepository remote access to the viewer's conversation list
type ConversationRepository interface {
	List(ctx context.Context, userID string) ([]domain.Conversation, error)
	Create(ctx context.Context, senderID, receiverID string) (*domain.Conversation, error)
	Delete(ctx context.Context, id string) error
}

// MessageRepository remote access to per-conversation message history
type MessageRepository interface {
	List(ctx context.Context, conversationID string) ([]domain.Message, error)
	Create(ctx context.Context, msg *domain.Message) (*domain.Message, error)
	Delete(ctx context.Context, id string) error
	MarkRead(ctx context.Context, conversationID, userID string) error
}

type apiConversationRepository struct {
	client  *httpretry.Client
	baseURL string
}

// NewAPIConversationRepository create the REST-backed conversation repository
func NewAPIConversationRepository(client *httpretry.Client, baseURL string) ConversationRepository {
	return &apiConversationRepository{client: client, baseURL: baseURL}
}

// List fetch the conversation snapshot for userID
func (r *apiConversationRepository) List(ctx context.Context, userID string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	url := fmt.Sprintf("%s/api/chat/conversations/%s", r.baseURL, userID)
	if err := r.client.GetJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create open (or fetch) the server-side conversation between two identities
func (r *apiConversationRepository) Create(ctx context.Context, senderID, receiverID string) (*domain.Conversation, error) {
	var out domain.Conversation
	url := fmt.Sprintf("%s/api/chat/conversations", r.baseURL)
	body := map[string]string{"senderId": senderID, "receiverId": receiverID}
	if err := r.client.SendJSON(ctx, http.MethodPost, url, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete remove a conversation server-side
func (r *apiConversationRepository) Delete(ctx context.Context, id string) error {
	url := fmt.Sprintf("%s/api/chat/conversations/%s", r.baseURL, id)
	return r.client.SendJSON(ctx, http.MethodDelete, url, nil, nil)
}

type apiMessageRepository struct {
	client  *httpretry.Client
	baseURL string
}

// NewAPIMessageRepository create the REST-backed message repository
func NewAPIMessageRepository(client *httpretry.Client, baseURL string) MessageRepository {
	return &apiMessageRepository{client: client, baseURL: baseURL}
}

// List fetch the full history of one conversation
func (r *apiMessageRepository) List(ctx context.Context, conversationID string) ([]domain.Message, error) {
	var out []domain.Message
	url := fmt.Sprintf("%s/api/chat/messages/%s", r.baseURL, conversationID)
	if err := r.client.GetJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create persist a message and return the stored record
func (r *apiMessageRepository) Create(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	var out domain.Message
	url := fmt.Sprintf("%s/api/chat/messages", r.baseURL)
	if err := r.client.SendJSON(ctx, http.MethodPost, url, msg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete remove a message server-side
func (r *apiMessageRepository) Delete(ctx context.Context, id string) error {
	url := fmt.Sprintf("%s/api/chat/messages/%s", r.baseURL, id)
	return r.client.SendJSON(ctx, http.MethodDelete, url, nil, nil)
}

// MarkRead flag every message of the conversation as read for userID
func (r *apiMessageRepository) MarkRead(ctx context.Context, conversationID, userID string) error {
	url := fmt.Sprintf("%s/api/chat/messages/%s/%s/read", r.baseURL, conversationID, userID)
	return r.client.SendJSON(ctx, http.MethodPut, url, nil, nil)
}
