package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"trueka/internal/usecase"
	"trueka/pkg/response"
)

type ListingHandler struct {
	listingUseCase *usecase.ListingUseCase
}

func NewListingHandler(listingUseCase *usecase.ListingUseCase) *ListingHandler {
	return &ListingHandler{
		listingUseCase: listingUseCase,
	}
}

type listingRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Images      []string `json:"images" validate:"omitempty,dive,url"`
}

type updateListingRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Images      []string `json:"images" validate:"omitempty,dive,url"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active paused removed finalizado suspended"`
}

func (h *ListingHandler) Create(c echo.Context) error {
	var req listingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	listing, err := h.listingUseCase.Create(c.Request().Context(), userID, usecase.ListingInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Images:      req.Images,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, listing)
}

func (h *ListingHandler) Update(c echo.Context) error {
	var req updateListingRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	listing, err := h.listingUseCase.Update(c.Request().Context(), userID, c.Param("id"), usecase.ListingInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Images:      req.Images,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *ListingHandler) SetStatus(c echo.Context) error {
	var req setStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	listing, err := h.listingUseCase.SetStatus(c.Request().Context(), userID, c.Param("id"), req.Status)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, listing)
}

func (h *ListingHandler) Browse(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if pageSize < 1 {
		pageSize = 20
	}

	listings, total, err := h.listingUseCase.Browse(c.Request().Context(), page, pageSize)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, listings, total, page, pageSize)
}

func (h *ListingHandler) GetByID(c echo.Context) error {
	listing, err := h.listingUseCase.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listing)
}

func (h *ListingHandler) MyListings(c echo.Context) error {
	userID := c.Get("uid").(string)
	listings, err := h.listingUseCase.ListByOwner(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, listings)
}
