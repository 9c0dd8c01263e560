package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"healthmate/internal/core/domain"
	"healthmate/internal/core/services"
	"healthmate/internal/pkg/response"
	"healthmate/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SSEHeartbeat is the interval between keepalive comments on the event stream
var SSEHeartbeat = 30 * time.Second

// SessionHandler exposes the session lifecycle
type SessionHandler struct {
	session *services.SessionService
	hub     *services.SessionHub
	logger  *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(session *services.SessionService, hub *services.SessionHub, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		session: session,
		hub:     hub,
		logger:  logger.Named("session_handler"),
	}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"omitempty,eqfield=Password"`
	Username        string `json:"username" validate:"omitempty,max=150"`
	FirstName       string `json:"first_name" validate:"omitempty,max=150"`
	LastName        string `json:"last_name" validate:"omitempty,max=150"`
	Phone           string `json:"phone" validate:"omitempty,max=32"`
}

// GetSession returns the current session snapshot
func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	return response.Success(c, "Session", h.session.Snapshot())
}

// Validate revalidates the stored tokens against the backend
func (h *SessionHandler) Validate(c *fiber.Ctx) error {
	valid := h.session.ValidateToken(c.UserContext())
	return response.Success(c, "Session validated", fiber.Map{
		"valid":   valid,
		"session": h.session.Snapshot(),
	})
}

// HasPermission reports whether the signed in user's role grants :permission
func (h *SessionHandler) HasPermission(c *fiber.Ctx) error {
	permission := c.Params("permission")
	return response.Success(c, "OK", fiber.Map{
		"permission": permission,
		"granted":    h.session.HasPermission(permission),
	})
}

// AcknowledgeNotice dismisses the pending session notice
func (h *SessionHandler) AcknowledgeNotice(c *fiber.Ctx) error {
	redirect, ok := h.session.AcknowledgeNotice()
	if !ok {
		return response.NotFound(c, "No pending notice")
	}
	return response.Success(c, "Notice acknowledged", fiber.Map{"redirect": redirect})
}

// Login signs a user in
func (h *SessionHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Email = strings.TrimSpace(req.Email)
	if err := validation.Struct(req); err != nil {
		return response.BadRequest(c, err.Error())
	}

	result := h.session.Login(c.UserContext(), req.Email, req.Password)
	if !result.Success {
		return response.Unauthorized(c, result.Error)
	}
	return response.Success(c, "Login successful", result)
}

// Register creates an account and signs it in
func (h *SessionHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	req.Email = strings.TrimSpace(req.Email)
	if err := validation.Struct(req); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if err := validation.Password(req.Password); err != nil {
		return response.BadRequest(c, err.Error())
	}

	result := h.session.Register(c.UserContext(), domain.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		Username:  strings.TrimSpace(req.Username),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Phone:     strings.TrimSpace(req.Phone),
	})
	if !result.Success {
		return response.BadRequest(c, result.Error)
	}
	return response.Created(c, "Registration successful", result)
}

// Logout ends the session. Local state is cleared even when the backend
// call fails.
func (h *SessionHandler) Logout(c *fiber.Ctx) error {
	if err := h.session.Logout(c.UserContext()); err != nil {
		h.logger.Warn("logout finished with error", zap.Error(err))
	}
	return response.Success(c, "Logout successful", nil)
}

// Events streams session changes as Server-Sent Events
func (h *SessionHandler) Events(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	clientID := uuid.New().String()
	initial := h.session.Snapshot()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		client := &services.SessionClient{
			ID:      clientID,
			Channel: make(chan services.SessionEvent, 16),
		}
		h.hub.Register(client)
		defer h.hub.Unregister(clientID)

		if err := writeSSEEvent(w, services.SessionEvent{Event: services.EventSessionChanged, Data: initial}); err != nil {
			return
		}

		heartbeat := time.NewTicker(SSEHeartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-client.Channel:
				if !ok {
					return
				}
				if err := writeSSEEvent(w, event); err != nil {
					h.logger.Debug("event stream closed", zap.String("client_id", clientID), zap.Error(err))
					return
				}
			case <-heartbeat.C:
				fmt.Fprintf(w, ": heartbeat\n\n")
				if err := w.Flush(); err != nil {
					h.logger.Debug("event stream closed", zap.String("client_id", clientID))
					return
				}
			}
		}
	})

	return nil
}

// writeSSEEvent writes one event and flushes it
func writeSSEEvent(w *bufio.Writer, event services.SessionEvent) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
	return w.Flush()
}
