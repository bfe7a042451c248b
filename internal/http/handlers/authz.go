package handlers

import (
	applog "vintagestore/internal/log"
	"vintagestore/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AttachUser puts the session user, if any, into Locals for logs and guards.
func AttachUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := auth.CurrentUser(c.UserContext(), sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	}
}

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return fail(c, fiber.StatusUnauthorized, "Login required")
		}
		u, err := auth.CurrentUser(c.UserContext(), sid)
		if err != nil || u == nil || !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"sid": sid})
			return fail(c, fiber.StatusForbidden, "Access denied")
		}
		c.Locals("user", u)
		return c.Next()
	}
}
