package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pinpoint-notes/pinpoint/broker"
	"pinpoint-notes/pinpoint/config"
	"pinpoint-notes/pinpoint/database"
	"pinpoint-notes/pinpoint/middleware"
	"pinpoint-notes/pinpoint/routes"
	"pinpoint-notes/pinpoint/services"
	"pinpoint-notes/pinpoint/utils/clock"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()

	db, err := database.Setup(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// The broker is optional at startup. Without it the outbox still fills;
	// events are dispatched once a connection comes back.
	natsAvailable := true
	if err := broker.InitProducer(cfg.NatsURL); err != nil {
		log.Printf("Warning: Failed to connect to NATS at %s: %v", cfg.NatsURL, err)
		log.Println("The application will continue, but event fan-out and push notifications are disabled")
		natsAvailable = false
	} else {
		defer broker.CloseProducer()
	}

	sysClock := clock.System{}

	noteStore := services.NewNoteStore()
	services.NoteStoreInstance = noteStore

	syncService := services.NewSyncService(noteStore, sysClock)
	services.SyncServiceInstance = syncService

	pullService := services.NewPullService(noteStore)
	services.PullServiceInstance = pullService

	deleteService := services.NewDeleteService(noteStore, sysClock, cfg.ClearDeletedPayload)
	services.DeleteServiceInstance = deleteService

	authService := services.NewAuthService(cfg.JWTSecret, cfg.JWTExpirationHours, sysClock)
	services.AuthServiceInstance = authService

	userService := services.NewUserService(authService, sysClock)
	services.UserServiceInstance = userService

	usageService := services.NewUsageService(sysClock, cfg.FreeTierNoteLimit)
	services.UsageServiceInstance = usageService

	deviceService := services.NewDeviceService(sysClock)
	services.DeviceServiceInstance = deviceService

	folderService := services.NewFolderService(sysClock)
	services.FolderServiceInstance = folderService

	reminderService := services.NewReminderService(sysClock)
	services.ReminderServiceInstance = reminderService

	keyService := services.NewEncryptionKeyService(sysClock)
	services.EncryptionKeyServiceInstance = keyService

	subscriptionService := services.NewSubscriptionService(sysClock, cfg.GooglePlayPackage, cfg.GooglePlayVerifyURL)
	services.SubscriptionServiceInstance = subscriptionService

	webSocketService := services.NewWebSocketService(cfg.NatsURL)
	services.WebSocketServiceInstance = webSocketService
	webSocketService.Start()
	defer webSocketService.Stop()

	if natsAvailable {
		eventDispatcher := services.NewEventDispatcherService(db, sysClock, time.Duration(cfg.DispatchPollSeconds)*time.Second)
		services.EventDispatcherServiceInstance = eventDispatcher
		eventDispatcher.Start()
		defer eventDispatcher.Stop()

		reminderDispatcher := services.NewReminderDispatcherService(db, reminderService, sysClock, time.Duration(cfg.ReminderPollSeconds)*time.Second)
		services.ReminderDispatcherServiceInstance = reminderDispatcher
		reminderDispatcher.Start()
		defer reminderDispatcher.Stop()

		notificationService := services.NewNotificationService(db, deviceService, cfg.FCMServerKey)
		services.NotificationServiceInstance = notificationService
		notificationService.Start(cfg.NatsURL)
		defer notificationService.Stop()
	} else {
		log.Println("Event and reminder dispatchers are disabled due to NATS unavailability")
	}

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	// Public endpoints
	routes.RegisterHealthRoutes(router, db)
	routes.RegisterAuthRoutes(router, db, authService, userService)
	routes.RegisterPlayWebhookRoutes(router, db, subscriptionService)

	// Everything under /api/v1 requires a valid token
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(authService))
	{
		routes.RegisterSyncRoutes(api, db, syncService, pullService, deleteService, usageService, userService, deviceService)
		routes.RegisterUserRoutes(api, db, userService)
		routes.RegisterDeviceRoutes(api, db, deviceService)
		routes.RegisterFolderRoutes(api, db, folderService)
		routes.RegisterReminderRoutes(api, db, reminderService)
		routes.RegisterUsageRoutes(api, db, usageService, userService)
		routes.RegisterEncryptionRoutes(api, db, keyService)
		routes.RegisterSubscriptionRoutes(api, db, subscriptionService)
	}

	routes.RegisterWebSocketRoutes(router, authService, webSocketService)

	if cfg.AppEnv == "development" {
		routes.SetupDebugRoutes(router, db)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down server...")
		broker.CloseAllConsumers()
		broker.CloseProducer()
		os.Exit(0)
	}()

	log.Printf("API server is running on port %s", cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
