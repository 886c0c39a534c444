package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/morphlyhq/morphly/internal/pkg/env"
)

// InternalKeyMiddleware guards operator-only endpoints with the shared key
// from INTERNAL_API_KEY. An unset key locks the endpoints rather than leaving
// them open.
func InternalKeyMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := env.GetEnv("INTERNAL_API_KEY", "")
		given := extractInternalKey(c)
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(given)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
		}
		return c.Next()
	}
}

func extractInternalKey(c *fiber.Ctx) string {
	return c.Get("X-Internal-Key")
}
