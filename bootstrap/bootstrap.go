package bootstrap

import (
	"propertyops-backend/internal/config"
	"propertyops-backend/internal/interfaces/router"
	"propertyops-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for the serverless entry (the api handler imports
// this package, not internal). Cron jobs are not started here; schedule the
// sweeps through the platform or leasectl instead.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Env)
	app, _, _, err := router.CreateApp(cfg)
	return app, err
}
