package router

import (
	"github.com/labstack/echo/v4"

	"trueka/internal/adapter/api/handler"
	"trueka/internal/adapter/api/middleware"
)

func SetupSwapRouter(e *echo.Echo, swapHandler *handler.SwapHandler, authMiddleware *middleware.AuthMiddleware) {
	swaps := e.Group("/v1/swaps")
	swaps.Use(authMiddleware.Authenticate)

	swaps.POST("", swapHandler.Propose)
	swaps.GET("", swapHandler.List)
	swaps.GET("/:id", swapHandler.GetByID)
	swaps.POST("/:id/accept", swapHandler.Accept)
	swaps.POST("/:id/reject", swapHandler.Reject)
	swaps.POST("/:id/cancel", swapHandler.Cancel)
	swaps.PUT("/:id/read", swapHandler.MarkRead)
}
