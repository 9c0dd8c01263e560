// Package response writes the JSON envelope every companion endpoint uses.
package response

import "github.com/gofiber/fiber/v2"

// Response is the envelope. Data and Meta are omitted when empty; a failed
// request may still carry Data, e.g. the pending session notice on a 401.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

// Success sends a 200 response
func Success(c *fiber.Ctx, message string, data any) error {
	return c.JSON(Response{Success: true, Message: message, Data: data})
}

// SuccessWithMeta sends a 200 response carrying pagination metadata
func SuccessWithMeta(c *fiber.Ctx, message string, data, meta any) error {
	return c.JSON(Response{Success: true, Message: message, Data: data, Meta: meta})
}

// Created sends a 201 response
func Created(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusCreated).JSON(Response{Success: true, Message: message, Data: data})
}

// Error sends a failure response
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return ErrorWithData(c, statusCode, message, nil)
}

// ErrorWithData sends a failure response with a payload the client can act on
func ErrorWithData(c *fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(Response{Success: false, Error: message, Data: data})
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// BadGateway reports a failure of the upstream backend
func BadGateway(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadGateway, message)
}

func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}
