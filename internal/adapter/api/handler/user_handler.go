package handler

import (
	"github.com/labstack/echo/v4"

	"trueka/internal/usecase"
	"trueka/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url" validate:"omitempty,url"`
}

type decideVerificationRequest struct {
	Approve bool `json:"approve"`
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	user, err := h.userUseCase.UpdateProfile(c.Request().Context(), userID, usecase.UpdateProfileInput{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}

func (h *UserHandler) GetPublicProfile(c echo.Context) error {
	profile, err := h.userUseCase.GetPublicProfile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, profile)
}

func (h *UserHandler) Block(c echo.Context) error {
	userID := c.Get("uid").(string)
	if err := h.userUseCase.Block(c.Request().Context(), userID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"status": "blocked"})
}

func (h *UserHandler) Unblock(c echo.Context) error {
	userID := c.Get("uid").(string)
	if err := h.userUseCase.Unblock(c.Request().Context(), userID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"status": "unblocked"})
}

func (h *UserHandler) ListBlocked(c echo.Context) error {
	userID := c.Get("uid").(string)
	blocked, err := h.userUseCase.ListBlocked(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, blocked)
}

func (h *UserHandler) SubmitVerification(c echo.Context) error {
	userID := c.Get("uid").(string)
	if err := h.userUseCase.SubmitVerification(c.Request().Context(), userID); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"status": "pending"})
}

func (h *UserHandler) DecideVerification(c echo.Context) error {
	var req decideVerificationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	adminID := c.Get("uid").(string)
	if err := h.userUseCase.DecideVerification(c.Request().Context(), adminID, c.Param("id"), req.Approve); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"status": "decided"})
}
