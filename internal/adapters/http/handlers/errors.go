package handlers

import (
	"errors"

	"healthmate/internal/core/domain"
	"healthmate/internal/pkg/response"
	"healthmate/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// respondError maps service errors onto the response envelope
func respondError(c *fiber.Ctx, err error) error {
	var apiErr *domain.APIError
	switch {
	case validation.IsValidationError(err):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrUnknownResource), errors.Is(err, domain.ErrInvalidInput):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, domain.ErrNotAuthenticated):
		return response.Unauthorized(c, "Not signed in")
	case domain.IsAuthError(err):
		return response.Unauthorized(c, "Session is no longer valid")
	case errors.Is(err, domain.ErrNotFound):
		return response.NotFound(c, "Resource not found")
	case errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		return response.Error(c, apiErr.StatusCode, apiErr.Message)
	case errors.Is(err, domain.ErrUnexpectedPayload):
		return response.BadGateway(c, "Unexpected response from backend")
	case apiErr != nil:
		return response.BadGateway(c, "Backend request failed")
	default:
		return response.InternalServerError(c, "Request failed")
	}
}
