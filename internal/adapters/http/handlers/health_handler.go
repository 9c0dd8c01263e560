package handlers

import (
	"context"
	"time"

	"healthmate/internal/core/services"

	"github.com/gofiber/fiber/v2"
)

// Pinger checks a dependency
type Pinger func(ctx context.Context) error

// HealthHandler handles health check endpoints
type HealthHandler struct {
	mode    string
	backend string
	session *services.SessionService
	storage Pinger
}

// NewHealthHandler creates a new health handler. storage may be nil.
func NewHealthHandler(mode, backend string, session *services.SessionService, storage Pinger) *HealthHandler {
	return &HealthHandler{
		mode:    mode,
		backend: backend,
		session: session,
		storage: storage,
	}
}

// Root handles root endpoint
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "healthmate companion API is running",
		"mode":    h.mode,
		"backend": h.backend,
	})
}

// HealthCheck reports companion and storage health
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	storageStatus := "healthy"
	if h.storage != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := h.storage(ctx); err != nil {
			storageStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	if storageStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status": "ok",
		"checks": fiber.Map{
			"api":     "healthy",
			"storage": storageStatus,
		},
		"session": h.session.Snapshot().Status,
	})
}

// APIInfo handles API v1 info
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "healthmate companion API v1",
		"version": "1.0.0",
		"backend": h.backend,
	})
}
