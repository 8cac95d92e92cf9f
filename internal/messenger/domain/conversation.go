package domain

import (
	"time"

	"friends_sync_service/pkg"
)

// Conversation one thread between exactly two identities. Ids are minted
// server-side; the client never constructs one locally.
type Conversation struct {
	ID          string    `json:"_id"`
	Members     []string  `json:"members"`
	UpdatedAt   time.Time `json:"updatedAt"`
	UnreadCount int       `json:"unreadCount"`
}

// HasMember check id belongs to the conversation
func (c Conversation) HasMember(id string) bool {
	return pkg.Contains(c.Members, id)
}

// Peer return the member that is not userID
func (c Conversation) Peer(userID string) string {
	for _, m := range c.Members {
		if m != userID {
			return m
		}
	}
	return ""
}
