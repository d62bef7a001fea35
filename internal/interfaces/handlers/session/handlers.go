package session

import (
	"propertyops-backend/internal/middleware"
	"propertyops-backend/internal/pkg/constants"
	"propertyops-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	Rdb    *redis.Client
	Config middleware.SessionConfig
}

// Me GET /api/v1/session/me returns the session user.
func (h *Handlers) Me(c *fiber.Ctx) error {
	userID := middleware.ActorID(c)
	role := middleware.Role(c)
	if userID == "" || !constants.IsValidRole(role) {
		log.Debug().Bool("session_id_present", middleware.GetSessionID(c) != "").Msg("session/me: not authenticated")
		return response.Error(c, "Not authenticated", fiber.StatusUnauthorized, nil)
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": middleware.GetUser(c)}, nil)
}

// Logout DELETE /api/v1/session deletes the session and clears the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if sid := middleware.GetSessionID(c); sid != "" && h.Rdb != nil {
		if err := h.Rdb.Del(c.UserContext(), middleware.SessionRedisPrefix+sid).Err(); err != nil {
			log.Warn().Err(err).Msg("session delete failed")
		}
	}
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.Config.IsProduction,
	})
	return response.Success(c, "Logged out successfully", nil, nil)
}
