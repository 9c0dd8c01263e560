package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// CacheControl sets a private max-age on successful GET responses
func CacheControl(maxAge time.Duration) fiber.Handler {
	value := "private, max-age=" + strconv.Itoa(int(maxAge.Seconds()))
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if c.Method() == fiber.MethodGet && c.Response().StatusCode() == fiber.StatusOK {
			c.Set(fiber.HeaderCacheControl, value)
		}
		return err
	}
}

// NoStore marks responses as uncacheable; session and health data must
// not outlive the session in a cache.
func NoStore() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Next()
	}
}

// HealthTipsCache caches the read-only health tips for 10 minutes
func HealthTipsCache() fiber.Handler {
	cache := CacheControl(10 * time.Minute)
	return func(c *fiber.Ctx) error {
		if c.Params("resource") != "health-tips" {
			return c.Next()
		}
		return cache(c)
	}
}
