package main

import (
	"context"
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"trueka/internal/adapter/api"
	"trueka/internal/adapter/api/handler"
	apimiddleware "trueka/internal/adapter/api/middleware"
	"trueka/internal/adapter/api/router"
	"trueka/internal/infrastructure/docstore"
	"trueka/internal/infrastructure/storage"
	ws "trueka/internal/infrastructure/websocket"
	"trueka/internal/usecase"
	"trueka/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	store, err := docstore.Open(cfg.DBFile, cfg.DBStrictLoad)
	if err != nil {
		log.Fatalf("Failed to open document store: %v", err)
	}

	storageClient, err := storage.NewLocalStorageClient(cfg.UploadDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize attachment storage: %v", err)
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	sessionTTL := time.Duration(cfg.SessionTTLHours) * time.Hour
	authUseCase := usecase.NewAuthUseCase(store, sessionTTL)
	userUseCase := usecase.NewUserUseCase(store, hub)
	listingUseCase := usecase.NewListingUseCase(store, hub)
	swapUseCase := usecase.NewSwapUseCase(store, hub)
	chatUseCase := usecase.NewChatUseCase(store, hub, storageClient, swapUseCase)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authUseCase)

	router.Setup(e, router.Handlers{
		Auth:      handler.NewAuthHandler(authUseCase, userUseCase),
		User:      handler.NewUserHandler(userUseCase),
		Listing:   handler.NewListingHandler(listingUseCase),
		Chat:      handler.NewChatHandler(chatUseCase),
		Swap:      handler.NewSwapHandler(swapUseCase),
		WebSocket: handler.NewWebSocketHandler(hub, authUseCase),
		Health:    handler.NewHealthHandler(),
	}, authMiddleware)

	// Attachments are served straight off the upload directory.
	e.Static("/uploads", storageClient.Dir())

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
