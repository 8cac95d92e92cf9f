package domain

import "time"

// PatchType discriminates post_updated payloads
type PatchType string

const (
	// PatchTypeLike the like list changed
	PatchTypeLike PatchType = "like"
	// PatchTypeComment the comment list changed
	PatchTypeComment PatchType = "comment"
)

// Comment one comment on a post
type Comment struct {
	ID        string    `json:"_id,omitempty"`
	UserID    string    `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Post server-side post record
type Post struct {
	ID          string    `json:"_id"`
	UserID      string    `json:"userId"`
	Description string    `json:"desc,omitempty"`
	Image       string    `json:"img,omitempty"`
	Likes       []string  `json:"likes"`
	Comments    []Comment `json:"comments"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Patch inbound post_updated payload carrying the authoritative lists
type Patch struct {
	PostID   string    `json:"postId"`
	Type     PatchType `json:"type"`
	Likes    []string  `json:"likes,omitempty"`
	Comments []Comment `json:"comments,omitempty"`
}

// Engagement view-local snapshot of a post's like and comment state
type Engagement struct {
	LikeCount       int       `json:"likeCount"`
	IsLikedByViewer bool      `json:"isLikedByViewer"`
	Comments        []Comment `json:"comments"`
}
