package router

import (
	"github.com/labstack/echo/v4"

	"trueka/internal/adapter/api/handler"
	"trueka/internal/adapter/api/middleware"
)

func SetupAuthRouter(e *echo.Echo, authHandler *handler.AuthHandler, authMiddleware *middleware.AuthMiddleware) {
	auth := e.Group("/v1/auth")

	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout, authMiddleware.Authenticate)
	auth.GET("/me", authHandler.Me, authMiddleware.Authenticate)
}
