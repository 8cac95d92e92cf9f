package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"friends_sync_service/internal/api/handlers"
	"friends_sync_service/internal/api/router"
	messengerapp "friends_sync_service/internal/messenger/app"
	messengerrepo "friends_sync_service/internal/messenger/repository"
	notificationapp "friends_sync_service/internal/notification/app"
	notificationrepo "friends_sync_service/internal/notification/repository"
	postrepo "friends_sync_service/internal/post/repository"
	realtimeapp "friends_sync_service/internal/realtime/app"
	realtimedomain "friends_sync_service/internal/realtime/domain"
	userapp "friends_sync_service/internal/user/app"
	userdomain "friends_sync_service/internal/user/domain"
	userrepo "friends_sync_service/internal/user/repository"
	"friends_sync_service/pkg/config"
	"friends_sync_service/pkg/httpretry"
	"friends_sync_service/pkg/logger"
	"friends_sync_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.SyncService, config.EnvConfig.SyncServiceLogPath)
	defer logger.Log.Sync()
	cfg := config.LoadConfig[config.SyncService](config.EnvConfig.SyncService, config.EnvConfig.SyncServiceYAMLPath)

	ctx := context.Background()

	// retrying REST client shared by every repository
	client := httpretry.New(httpretry.Config{
		MaxRetries:     cfg.Retry.MaxRetries,
		InitialBackoff: time.Duration(cfg.Retry.InitialBackoffMS) * time.Millisecond,
		Timeout:        cfg.API.Timeout,
	}, token.Static(cfg.Identity.Token))

	notificationRepo := notificationrepo.NewAPINotificationRepository(client, cfg.API.BaseURL)
	conversationRepo := messengerrepo.NewAPIConversationRepository(client, cfg.API.BaseURL)
	messageRepo := messengerrepo.NewAPIMessageRepository(client, cfg.API.BaseURL)
	postRepo := postrepo.NewAPIPostRepository(client, cfg.API.BaseURL)
	userRepo := userrepo.NewAPIUserRepository(client, cfg.API.BaseURL)

	// duplex connection to the push gateway
	conn := realtimeapp.NewConnection(cfg.Push.URL, realtimeapp.NewGorillaDialer())

	notificationStore := notificationapp.NewNotificationStore(notificationRepo)
	messengerStore := messengerapp.NewMessengerStore(cfg.Identity.UserID, conversationRepo, messageRepo, conn)
	users := userapp.NewProfileUseCase(userdomain.Profile{
		ID:             cfg.Identity.UserID,
		FirstName:      cfg.Identity.FirstName,
		LastName:       cfg.Identity.LastName,
		ProfilePicture: cfg.Identity.ProfilePicture,
	}, userRepo, conn)

	// stores subscribe before the bridge so UI clients always observe state
	// that already includes the event they were told about
	conn.Subscribe(realtimedomain.EventGetNotification, notificationStore.OnPush)
	conn.Subscribe(realtimedomain.EventGetMessage, messengerStore.OnArrival)
	bridge := handlers.NewBridge()
	for _, event := range []string{
		realtimedomain.EventGetNotification,
		realtimedomain.EventGetMessage,
		realtimedomain.EventPostUpdated,
		realtimedomain.EventGetUsers,
	} {
		conn.Subscribe(event, bridge.Forward(event))
	}

	if err := conn.Connect(ctx, cfg.Identity.UserID); err != nil {
		logger.Log.Fatal("push gateway connect failed",
			zap.String("url", cfg.Push.URL), zap.Error(err))
	}
	defer conn.Close()

	if _, err := users.SyncProfile(ctx); err != nil {
		logger.Log.Fatal("profile sync failed", zap.Error(err))
	}

	if err := notificationStore.LoadSnapshot(ctx, cfg.Identity.UserID); err != nil {
		logger.Log.Fatal("notification snapshot failed", zap.Error(err))
	}
	if err := messengerStore.LoadSnapshot(ctx); err != nil {
		logger.Log.Fatal("conversation snapshot failed", zap.Error(err))
	}

	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.SyncServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	syncHandler := handlers.NewSyncHandler(
		cfg.Identity.UserID,
		notificationStore,
		messengerStore,
		conn,
		users,
		postRepo,
	)
	router.RegisterRoutes(r, syncHandler, bridge)

	port := ":" + cfg.Port
	log.Printf("Sync Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
