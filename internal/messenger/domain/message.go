package domain

import "time"

// MessageStatus optimistic delivery state of a locally-originated message
type MessageStatus string

const (
	// StatusPending applied locally, waiting for the backend to confirm
	StatusPending MessageStatus = "pending"
	// StatusConfirmed persisted server-side
	StatusConfirmed MessageStatus = "confirmed"
	// StatusFailed confirmation failed, the entry was reverted
	StatusFailed MessageStatus = "failed"
)

// StoryContext links a message to the story it replies to
type StoryContext struct {
	StoryID         string `json:"storyId"`
	Thumbnail       string `json:"thumbnail"`
	AuthorFirstName string `json:"authorFirstName"`
}

// Message one chat message. ClientID survives the send round trip so an
// optimistic entry can be matched with the persisted record even after the
// server id is adopted.
type Message struct {
	ID             string        `json:"_id"`
	ClientID       string        `json:"clientId,omitempty"`
	ConversationID string        `json:"conversationId"`
	Sender         string        `json:"sender"`
	Text           string        `json:"text"`
	ImageURL       string        `json:"img,omitempty"`
	StoryContext   *StoryContext `json:"storyContext,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	Status         MessageStatus `json:"status,omitempty"`
}

// ArrivalMessage inbound getMessage payload pushed by the gateway
type ArrivalMessage struct {
	Sender       string        `json:"sender"`
	Text         string        `json:"text"`
	Img          string        `json:"img,omitempty"`
	StoryContext *StoryContext `json:"storyContext,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// OutboundMessage payload emitted with sendMessage for low-latency delivery
type OutboundMessage struct {
	SenderID     string        `json:"senderId"`
	ReceiverID   string        `json:"receiverId"`
	Text         string        `json:"text"`
	Img          string        `json:"img,omitempty"`
	StoryContext *StoryContext `json:"storyContext,omitempty"`
}
