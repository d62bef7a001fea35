package middleware

import (
	"propertyops-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const userLocal = "user"

// RequireAuth ensures a user is in the session. Returns 401 with standard error format if not.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Locals(userLocal)
		if user == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		c.Locals("auth", user)
		return c.Next()
	}
}

// GetUser returns the session user from Locals (nil if not logged in).
func GetUser(c *fiber.Ctx) interface{} {
	return c.Locals(userLocal)
}

// ActorID is the session user's id, recorded as the audit actor.
func ActorID(c *fiber.Ctx) string {
	return userField(GetUser(c), "user_id")
}

// Role is the session user's role, or "" without a session.
func Role(c *fiber.Ctx) string {
	return userField(GetUser(c), "role")
}

func userField(user interface{}, key string) string {
	m, ok := user.(map[string]interface{})
	if !ok {
		return ""
	}
	v, _ := m[key].(string)
	return v
}
