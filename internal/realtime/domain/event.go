package domain

import "encoding/json"

// Push channel event names, matching the gateway contract.
const (
	// EventAddUser outbound presence registration
	EventAddUser = "addUser"
	// EventSendMessage outbound chat message emit
	EventSendMessage = "sendMessage"
	// EventSendNotification outbound notification emit
	EventSendNotification = "sendNotification"

	// EventGetNotification inbound pushed notification
	EventGetNotification = "getNotification"
	// EventGetMessage inbound pushed chat message
	EventGetMessage = "getMessage"
	// EventPostUpdated inbound post engagement patch
	EventPostUpdated = "post_updated"
	// EventGetUsers inbound presence set broadcast
	EventGetUsers = "getUsers"
)

// Envelope is the wire frame exchanged with the push gateway
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// AddUser payload registering the identity after connect
type AddUser struct {
	UserID string `json:"userId"`
}

// OnlineUser one entry of the getUsers presence broadcast
type OnlineUser struct {
	UserID string `json:"userId"`
}
