package router

import (
	"github.com/labstack/echo/v4"

	"trueka/internal/adapter/api/handler"
	"trueka/internal/adapter/api/middleware"
)

func SetupListingRouter(e *echo.Echo, listingHandler *handler.ListingHandler, authMiddleware *middleware.AuthMiddleware) {
	listings := e.Group("/v1/listings")

	listings.GET("", listingHandler.Browse)
	listings.GET("/:id", listingHandler.GetByID)

	authed := e.Group("/v1/listings")
	authed.Use(authMiddleware.Authenticate)
	authed.POST("", listingHandler.Create)
	authed.PUT("/:id", listingHandler.Update)
	authed.PUT("/:id/status", listingHandler.SetStatus)

	mine := e.Group("/v1/my/listings")
	mine.Use(authMiddleware.Authenticate)
	mine.GET("", listingHandler.MyListings)
}
