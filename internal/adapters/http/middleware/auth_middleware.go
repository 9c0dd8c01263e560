package middleware

import (
	"healthmate/internal/core/services"
	"healthmate/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// RequireSession rejects requests while no user is signed in and exposes
// the user id to handlers as the "userID" local. After a forced logout the
// 401 carries the pending notice so the client can show it and redirect.
func RequireSession(session *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snap := session.Snapshot()
		if !snap.IsAuthenticated {
			if snap.Notice != nil {
				return response.ErrorWithData(c, fiber.StatusUnauthorized, snap.Notice.Message, fiber.Map{"notice": snap.Notice})
			}
			return response.Unauthorized(c, "Sign in required")
		}
		c.Locals("userID", session.CurrentUserID())
		return c.Next()
	}
}
