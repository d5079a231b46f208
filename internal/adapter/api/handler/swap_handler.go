package handler

import (
	"github.com/labstack/echo/v4"

	"trueka/internal/usecase"
	"trueka/pkg/response"
)

type SwapHandler struct {
	swapUseCase *usecase.SwapUseCase
}

func NewSwapHandler(swapUseCase *usecase.SwapUseCase) *SwapHandler {
	return &SwapHandler{
		swapUseCase: swapUseCase,
	}
}

type proposeSwapRequest struct {
	ListingID       string  `json:"listing_id" validate:"required"`
	ItemDescription string  `json:"item_description" validate:"required"`
	ItemImageURL    string  `json:"item_image_url" validate:"omitempty,url"`
	Message         string  `json:"message"`
	CashAmount      float64 `json:"cash_amount" validate:"omitempty,min=0"`
	CashDirection   string  `json:"cash_direction" validate:"omitempty,oneof=to_sender to_receiver"`
}

type rejectSwapRequest struct {
	Reason string `json:"reason"`
}

func (h *SwapHandler) Propose(c echo.Context) error {
	var req proposeSwapRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	swap, err := h.swapUseCase.Propose(c.Request().Context(), userID, usecase.ProposeSwapInput{
		ListingID:       req.ListingID,
		ItemDescription: req.ItemDescription,
		ItemImageURL:    req.ItemImageURL,
		Message:         req.Message,
		CashAmount:      req.CashAmount,
		CashDirection:   req.CashDirection,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, swap)
}

func (h *SwapHandler) List(c echo.Context) error {
	userID := c.Get("uid").(string)
	swaps, err := h.swapUseCase.ListForUser(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, swaps)
}

func (h *SwapHandler) GetByID(c echo.Context) error {
	userID := c.Get("uid").(string)
	swap, err := h.swapUseCase.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, swap)
}

func (h *SwapHandler) Accept(c echo.Context) error {
	userID := c.Get("uid").(string)
	result, err := h.swapUseCase.Accept(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}

func (h *SwapHandler) Reject(c echo.Context) error {
	var req rejectSwapRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	swap, err := h.swapUseCase.Reject(c.Request().Context(), userID, c.Param("id"), req.Reason)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, swap)
}

func (h *SwapHandler) Cancel(c echo.Context) error {
	userID := c.Get("uid").(string)
	swap, err := h.swapUseCase.Cancel(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, swap)
}

func (h *SwapHandler) MarkRead(c echo.Context) error {
	userID := c.Get("uid").(string)
	swap, err := h.swapUseCase.MarkRead(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, swap)
}
