package handler

import (
	"encoding/base64"

	"github.com/labstack/echo/v4"

	"trueka/internal/usecase"
	"trueka/pkg/errors"
	"trueka/pkg/response"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type startConversationRequest struct {
	RecipientID string   `json:"recipient_id" validate:"required"`
	ListingID   string   `json:"listing_id"`
	Body        string   `json:"body"`
	Attachments []string `json:"attachments"`
}

type sendMessageRequest struct {
	Body        string   `json:"body"`
	Attachments []string `json:"attachments"`
}

func (h *ChatHandler) StartConversation(c echo.Context) error {
	var req startConversationRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	attachments, err := decodeAttachments(req.Attachments)
	if err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	conversation, err := h.chatUseCase.Start(c.Request().Context(), userID, usecase.StartConversationInput{
		ToUserID:    req.RecipientID,
		ListingID:   req.ListingID,
		Body:        req.Body,
		Attachments: attachments,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, conversation)
}

func (h *ChatHandler) ListConversations(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversations, err := h.chatUseCase.List(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, conversations)
}

func (h *ChatHandler) GetConversation(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversation, err := h.chatUseCase.Get(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, conversation)
}

func (h *ChatHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	attachments, err := decodeAttachments(req.Attachments)
	if err != nil {
		return response.Error(c, err)
	}

	userID := c.Get("uid").(string)
	conversation, err := h.chatUseCase.SendMessage(c.Request().Context(), userID, c.Param("id"), usecase.SendMessageInput{
		Body:        req.Body,
		Attachments: attachments,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, conversation)
}

func (h *ChatHandler) MarkRead(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversation, err := h.chatUseCase.MarkRead(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, conversation)
}

func (h *ChatHandler) Remove(c echo.Context) error {
	userID := c.Get("uid").(string)
	if err := h.chatUseCase.Remove(c.Request().Context(), userID, c.Param("id")); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"status": "removed"})
}

func (h *ChatHandler) Complete(c echo.Context) error {
	userID := c.Get("uid").(string)
	tx, err := h.chatUseCase.Complete(c.Request().Context(), userID, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, tx)
}

func decodeAttachments(encoded []string) ([][]byte, error) {
	if len(encoded) == 0 {
		return nil, nil
	}
	decoded := make([][]byte, 0, len(encoded))
	for _, item := range encoded {
		raw, err := base64.StdEncoding.DecodeString(item)
		if err != nil {
			return nil, errors.BadRequest("attachments must be base64 encoded", err)
		}
		decoded = append(decoded, raw)
	}
	return decoded, nil
}
