package middleware

import (
	"propertyops-backend/internal/infrastructure/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics counts responses by method, route pattern and status code.
func Metrics(rec *metrics.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		code := c.Response().StatusCode()
		if err != nil {
			code = StatusOf(err)
		}
		rec.Request(c.Method(), c.Route().Path, code)
		return err
	}
}
