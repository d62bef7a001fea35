package router

import (
	"errors"

	"propertyops-backend/internal/app"
	"propertyops-backend/internal/config"
	"propertyops-backend/internal/infrastructure/database"
	"propertyops-backend/internal/infrastructure/metrics"
	audithandler "propertyops-backend/internal/interfaces/handlers/audit"
	healthhandler "propertyops-backend/internal/interfaces/handlers/health"
	holdhandler "propertyops-backend/internal/interfaces/handlers/holds"
	integrityhandler "propertyops-backend/internal/interfaces/handlers/integrity"
	leasehandler "propertyops-backend/internal/interfaces/handlers/leases"
	mainthandler "propertyops-backend/internal/interfaces/handlers/maintenance"
	payhandler "propertyops-backend/internal/interfaces/handlers/payments"
	prophandler "propertyops-backend/internal/interfaces/handlers/properties"
	sessionhandler "propertyops-backend/internal/interfaces/handlers/session"
	"propertyops-backend/internal/middleware"
	"propertyops-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp connects to Postgres and Redis and builds the fiber app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil, nil, errors.New("database url is not configured")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opt)
	}
	svc := app.NewServices(cfg, db, rdb, metrics.New())
	return New(cfg, svc), db, rdb, nil
}

// New registers middleware and routes over already-built services.
func New(cfg *config.Config, svc *app.Services) *fiber.App {
	fapp := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.NewErrorHandler(svc.Rdb),
		EnableTrustedProxyCheck: true,
	})

	fapp.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	fapp.Use(middleware.Tracing())
	fapp.Use(middleware.RouteLogger())
	fapp.Use(middleware.Metrics(svc.Metrics))
	if svc.Rdb != nil {
		fapp.Use(middleware.SessionWithClient(svc.Rdb))
	}
	fapp.Use(middleware.HealthMarker(svc.Rdb))

	hh := &healthhandler.Handlers{Rdb: svc.Rdb, HealthAdminKey: cfg.HealthAdminKey}
	if svc.DB != nil {
		if sqlDB, err := svc.DB.DB(); err == nil {
			hh.DB = sqlDB
		}
	}
	fapp.Get("/health/json", hh.JSON)
	fapp.Get("/health/errors", hh.Errors)
	fapp.Post("/health/reset", hh.Reset)
	if svc.Metrics != nil {
		fapp.Get("/metrics", adaptor.HTTPHandler(svc.Metrics.Handler()))
	}

	api := fapp.Group("/api/v1", middleware.RequireAuth())
	perm := middleware.AuthorizePermission

	sh := &sessionhandler.Handlers{Rdb: svc.Rdb, Config: middleware.SessionConfig{
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}}
	api.Get("/session/me", sh.Me)
	api.Delete("/session", sh.Logout)

	holdh := &holdhandler.Handlers{Service: svc.Holds}
	api.Post("/holds", perm(constants.PlaceHold), holdh.PlaceHold)
	api.Post("/holds/release-expired", perm(constants.RepairStatuses), holdh.ReleaseExpired)
	api.Delete("/holds/:id", perm(constants.PlaceHold), holdh.ReleaseHold)

	lh := &leasehandler.Handlers{Service: svc.Leases}
	api.Post("/leases/confirm", perm(constants.ConfirmLease), lh.ConfirmLease)
	api.Post("/leases/drafts", perm(constants.ConfirmLease), lh.CreateDraft)
	api.Get("/leases/schedule", perm(constants.ViewData), lh.Schedule)
	api.Get("/leases", perm(constants.ViewData), lh.List)
	api.Get("/leases/:id", perm(constants.ViewData), lh.Get)
	api.Post("/leases/:id/terminate", perm(constants.TerminateLease), lh.Terminate)

	ph := &payhandler.Handlers{Service: svc.Payments}
	api.Get("/payments/late-fee", perm(constants.ViewData), ph.LateFee)
	api.Post("/payments/process-overdue", perm(constants.ProcessOverdue), ph.ProcessOverdue)
	api.Get("/payments", perm(constants.ViewData), ph.List)
	api.Post("/payments/:id/post", perm(constants.PostPayment), ph.Post)

	ih := &integrityhandler.Handlers{Service: svc.Integrity}
	api.Get("/integrity/mismatches", perm(constants.RepairStatuses), ih.Mismatches)
	api.Post("/integrity/repair", perm(constants.RepairStatuses), ih.Repair)
	api.Post("/integrity/check", perm(constants.RepairStatuses), ih.Check)

	ah := &audithandler.Handlers{Service: svc.AuditQuery}
	api.Get("/audit/logs", perm(constants.ViewAudit), ah.Logs)
	api.Get("/audit/stream", perm(constants.ViewAudit), ah.Stream)

	prh := &prophandler.Handlers{Service: svc.Properties}
	api.Post("/properties", perm(constants.ManageProperties), prh.CreateProperty)
	api.Get("/properties", perm(constants.ViewData), prh.ListProperties)
	api.Get("/properties/:id", perm(constants.ViewData), prh.GetProperty)
	api.Delete("/properties/:id", perm(constants.ManageProperties), prh.DeleteProperty)
	api.Post("/properties/:id/units", perm(constants.ManageProperties), prh.CreateUnit)
	api.Get("/units", perm(constants.ViewData), prh.ListUnits)
	api.Post("/units/:id/deactivate", perm(constants.ManageProperties), prh.DeactivateUnit)
	api.Post("/units/:id/reactivate", perm(constants.ManageProperties), prh.ReactivateUnit)
	api.Post("/tenants", perm(constants.ConfirmLease), prh.CreateTenant)
	api.Get("/tenants", perm(constants.ViewData), prh.ListTenants)
	api.Get("/tenants/:id", perm(constants.ViewData), prh.GetTenant)

	mh := &mainthandler.Handlers{Service: svc.Maintenance}
	api.Post("/maintenance", perm(constants.RequestRepair), mh.Create)
	api.Get("/maintenance", perm(constants.ViewData), mh.List)
	api.Patch("/maintenance/:id/status", perm(constants.ManageMaintenance), mh.UpdateStatus)

	return fapp
}
