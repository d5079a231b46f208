package router

import (
	"github.com/labstack/echo/v4"

	"trueka/internal/adapter/api/handler"
	"trueka/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, userHandler *handler.UserHandler, authMiddleware *middleware.AuthMiddleware) {
	users := e.Group("/v1/users")

	users.GET("/:id", userHandler.GetPublicProfile)

	me := e.Group("/v1/me")
	me.Use(authMiddleware.Authenticate)
	me.PUT("", userHandler.UpdateProfile)
	me.POST("/verification", userHandler.SubmitVerification)
	me.GET("/blocked", userHandler.ListBlocked)

	blocks := e.Group("/v1/users/:id")
	blocks.Use(authMiddleware.Authenticate)
	blocks.POST("/block", userHandler.Block)
	blocks.DELETE("/block", userHandler.Unblock)
	blocks.PUT("/verification", userHandler.DecideVerification) // admin only, enforced in usecase
}
