package router

import (
	"friends_sync_service/internal/api/handlers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes wire the local state and intent routes for the UI process
func RegisterRoutes(app *fiber.App, syncHandler *handlers.SyncHandler, bridge *handlers.Bridge) {
	app.Get("/", handlers.ConnectCheck)
	app.Post("/debug", handlers.DebugLogFlag)

	state := app.Group("/state")
	state.Get("/notifications", syncHandler.Notifications)
	state.Get("/conversations", syncHandler.Conversations)
	state.Get("/messages/:conversationId", syncHandler.Messages)
	state.Get("/presence", syncHandler.Presence)
	state.Get("/peers/:id", syncHandler.Peer)
	state.Get("/posts/:id", syncHandler.PostEngagement)
	state.Get("/feed", syncHandler.Feed)

	intents := app.Group("/intents")
	intents.Post("/notifications/:id/read", syncHandler.MarkNotificationRead)
	intents.Post("/notifications/mark-all-read", syncHandler.MarkAllNotificationsRead)
	intents.Delete("/notifications/:id", syncHandler.DeleteNotification)

	intents.Post("/conversations", syncHandler.StartConversation)
	intents.Post("/conversations/:id/open", syncHandler.OpenConversation)
	intents.Post("/conversations/close", syncHandler.CloseConversation)
	intents.Delete("/conversations/:id", syncHandler.DeleteConversation)
	intents.Post("/messages", syncHandler.SendMessage)
	intents.Delete("/messages/:id", syncHandler.DeleteMessage)

	intents.Post("/posts", syncHandler.CreatePost)
	intents.Delete("/posts/:id", syncHandler.DeletePost)
	intents.Post("/posts/:id/watch", syncHandler.WatchPost)
	intents.Delete("/posts/:id/watch", syncHandler.UnwatchPost)
	intents.Post("/posts/:id/like", syncHandler.ToggleLike)
	intents.Post("/posts/:id/comment", syncHandler.AddComment)

	intents.Post("/follow-requests/:id/accept", syncHandler.AcceptFollowRequest)
	intents.Post("/follow-requests/:id/decline", syncHandler.DeclineFollowRequest)

	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		bridge.HandleConnection(c)
	}))
}
