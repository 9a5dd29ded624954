package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// NewAuthMiddleware trusts the user id header set by the auth gateway
// in front of this service and makes it available as Locals("userId").
func NewAuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("X-User-ID")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: missed header"})
		}

		userId, err := strconv.ParseInt(header, 10, 64)
		if err != nil || userId <= 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized: invalid user id"})
		}

		c.Locals("userId", userId)
		return c.Next()
	}
}
