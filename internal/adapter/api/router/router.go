package router

import (
	"github.com/labstack/echo/v4"

	"trueka/internal/adapter/api/handler"
	"trueka/internal/adapter/api/middleware"
)

type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Listing   *handler.ListingHandler
	Chat      *handler.ChatHandler
	Swap      *handler.SwapHandler
	WebSocket *handler.WebSocketHandler
	Health    *handler.HealthHandler
}

func Setup(e *echo.Echo, h Handlers, authMiddleware *middleware.AuthMiddleware) {
	SetupAuthRouter(e, h.Auth, authMiddleware)
	SetupUserRouter(e, h.User, authMiddleware)
	SetupListingRouter(e, h.Listing, authMiddleware)
	SetupChatRouter(e, h.Chat, authMiddleware)
	SetupSwapRouter(e, h.Swap, authMiddleware)
	SetupWebSocketRouter(e, h.WebSocket)
	SetupHealthRouter(e, h.Health)
}
