package domain

import "time"

// Notification types understood by the client.
const (
	// TypeLikePost someone liked a post
	TypeLikePost = "like_post"
	// TypeCommentPost someone commented on a post
	TypeCommentPost = "comment_post"
	// TypeLikeStory someone liked a story
	TypeLikeStory = "like_story"
	// TypeReplyStory someone replied to a story
	TypeReplyStory = "reply_story"
	// TypeFollow someone started following the viewer
	TypeFollow = "follow"
	// TypeFollowRequest someone asked to follow the viewer
	TypeFollowRequest = "follow_request"
)

// SenderData denormalized profile snapshot carried on a notification
type SenderData struct {
	ID             string `json:"id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	ProfilePicture string `json:"profilePicture"`
}

// Notification one entry of the viewer's notification list
type Notification struct {
	ID          string     `json:"_id"`
	SenderID    string     `json:"senderId"`
	Type        string     `json:"type"`
	ReferenceID string     `json:"referenceId"`
	Sender      SenderData `json:"senderData"`
	IsRead      bool       `json:"isRead"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// OutboundNotification payload emitted with sendNotification
type OutboundNotification struct {
	SenderID    string `json:"senderId"`
	ReceiverID  string `json:"receiverId"`
	Type        string `json:"type"`
	ReferenceID string `json:"referenceId"`
}
