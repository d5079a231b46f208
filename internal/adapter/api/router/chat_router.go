package router

import (
	"github.com/labstack/echo/v4"

	"trueka/internal/adapter/api/handler"
	"trueka/internal/adapter/api/middleware"
)

func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	conversations := e.Group("/v1/conversations")
	conversations.Use(authMiddleware.Authenticate)

	conversations.POST("", chatHandler.StartConversation)
	conversations.GET("", chatHandler.ListConversations)
	conversations.GET("/:id", chatHandler.GetConversation)
	conversations.DELETE("/:id", chatHandler.Remove)

	conversations.POST("/:id/messages", chatHandler.SendMessage)
	conversations.PUT("/:id/read", chatHandler.MarkRead)
	conversations.POST("/:id/complete", chatHandler.Complete)
}
