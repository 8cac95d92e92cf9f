package domain

import "time"

// User profile record as the backend stores it
type User struct {
	ID             string    `json:"_id"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	Followers      []string  `json:"followers,omitempty"`
	Following      []string  `json:"following,omitempty"`
	FollowRequests []string  `json:"followRequests,omitempty"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}

// Profile the slice of the signed-in identity pushed on startup
type Profile struct {
	ID             string `json:"_id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}
