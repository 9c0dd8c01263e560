package handlers

import (
	"healthmate/internal/core/domain"
	"healthmate/internal/core/services"
	"healthmate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LocalStateHandler serves on-device preferences, reminders and chats
type LocalStateHandler struct {
	state *services.LocalStateService
}

// NewLocalStateHandler creates a new local state handler
func NewLocalStateHandler(state *services.LocalStateService) *LocalStateHandler {
	return &LocalStateHandler{state: state}
}

// ThemeRequest represents the theme preference body
type ThemeRequest struct {
	DarkMode *bool `json:"dark_mode"`
}

// GetTheme handles GET /preferences/theme
func (h *LocalStateHandler) GetTheme(c *fiber.Ctx) error {
	dark, err := h.state.IsDarkMode(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "OK", fiber.Map{"dark_mode": dark})
}

// SetTheme handles PUT /preferences/theme
func (h *LocalStateHandler) SetTheme(c *fiber.Ctx) error {
	var req ThemeRequest
	if err := c.BodyParser(&req); err != nil || req.DarkMode == nil {
		return response.BadRequest(c, "dark_mode is required")
	}
	if err := h.state.SetDarkMode(c.UserContext(), *req.DarkMode); err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Theme saved", fiber.Map{"dark_mode": *req.DarkMode})
}

// ListAlerts handles GET /alerts
func (h *LocalStateHandler) ListAlerts(c *fiber.Ctx) error {
	alerts, err := h.state.Alerts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "OK", alerts)
}

// SaveAlert handles PUT /alerts and PUT /alerts/:id
func (h *LocalStateHandler) SaveAlert(c *fiber.Ctx) error {
	var alert domain.HealthAlert
	if err := c.BodyParser(&alert); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if id := c.Params("id"); id != "" {
		alert.ID = id
	}

	saved, err := h.state.UpsertAlert(c.UserContext(), alert)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Alert saved", saved)
}

// DeleteAlert handles DELETE /alerts/:id
func (h *LocalStateHandler) DeleteAlert(c *fiber.Ctx) error {
	if err := h.state.DeleteAlert(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Alert deleted", nil)
}

// ListChats handles GET /chats
func (h *LocalStateHandler) ListChats(c *fiber.Ctx) error {
	chats, err := h.state.ChatHistory(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "OK", chats)
}

// SaveChat handles PUT /chats and PUT /chats/:id
func (h *LocalStateHandler) SaveChat(c *fiber.Ctx) error {
	var conversation domain.ChatConversation
	if err := c.BodyParser(&conversation); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if id := c.Params("id"); id != "" {
		conversation.ID = id
	}
	if len(conversation.Messages) == 0 {
		return response.BadRequest(c, "messages are required")
	}

	saved, err := h.state.SaveConversation(c.UserContext(), conversation)
	if err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Conversation saved", saved)
}

// DeleteChat handles DELETE /chats/:id
func (h *LocalStateHandler) DeleteChat(c *fiber.Ctx) error {
	if err := h.state.DeleteConversation(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Conversation deleted", nil)
}

// ClearChats handles DELETE /chats
func (h *LocalStateHandler) ClearChats(c *fiber.Ctx) error {
	if err := h.state.ClearChatHistory(c.UserContext()); err != nil {
		return respondError(c, err)
	}
	return response.Success(c, "Chat history cleared", nil)
}
