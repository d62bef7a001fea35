// Package app assembles the services shared by the HTTP server, the cron
// scheduler and the operator CLI.
package app

import (
	"propertyops-backend/internal/application/audit"
	"propertyops-backend/internal/application/events"
	"propertyops-backend/internal/application/holds"
	"propertyops-backend/internal/application/integrity"
	"propertyops-backend/internal/application/leases"
	"propertyops-backend/internal/application/maintenance"
	"propertyops-backend/internal/application/notifications"
	"propertyops-backend/internal/application/payments"
	"propertyops-backend/internal/application/properties"
	"propertyops-backend/internal/config"
	"propertyops-backend/internal/infrastructure/metrics"
	"propertyops-backend/internal/infrastructure/redisstream"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services is every application service wired to one database, Redis client
// and metrics registry. Rdb may be nil; feeds and events are then skipped.
type Services struct {
	DB      *gorm.DB
	Rdb     *redis.Client
	Metrics *metrics.Recorder

	Audit       *audit.Recorder
	AuditQuery  *audit.Service
	Events      *events.Publisher
	Holds       *holds.Service
	Leases      *leases.Service
	Payments    *payments.Service
	Integrity   *integrity.Service
	Properties  *properties.Service
	Maintenance *maintenance.Service
}

// NewServices builds the services from configuration.
func NewServices(cfg *config.Config, db *gorm.DB, rdb *redis.Client, m *metrics.Recorder) *Services {
	feed := &redisstream.Stream{Rdb: rdb, Key: audit.FeedKey, MaxLen: cfg.AuditStreamMaxLen}
	rec := &audit.Recorder{DB: db, Feed: feed, Metrics: m}
	pub := &events.Publisher{Stream: &redisstream.Stream{Rdb: rdb, Key: cfg.EventStreamKey, MaxLen: cfg.AuditStreamMaxLen}}

	var notifier notifications.Notifier
	if cfg.SendinblueAPIKey != "" && cfg.OpsEmail != "" {
		notifier = &notifications.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom, OpsEmail: cfg.OpsEmail}
	}

	return &Services{
		DB:          db,
		Rdb:         rdb,
		Metrics:     m,
		Audit:       rec,
		AuditQuery:  &audit.Service{DB: db, Feed: feed},
		Events:      pub,
		Holds:       &holds.Service{DB: db, Audit: rec, Events: pub, DefaultMinutes: cfg.HoldDefaultMinutes},
		Leases:      &leases.Service{DB: db, Audit: rec, Events: pub},
		Payments:    &payments.Service{DB: db, Audit: rec, Events: pub, Policy: PolicyFrom(cfg)},
		Integrity:   &integrity.Service{DB: db, Audit: rec, Events: pub},
		Properties:  &properties.Service{DB: db, Audit: rec},
		Maintenance: &maintenance.Service{DB: db, Audit: rec, Events: pub, Notifier: notifier},
	}
}

// PolicyFrom reads the late fee policy from configuration.
func PolicyFrom(cfg *config.Config) payments.LateFeePolicy {
	return payments.LateFeePolicy{GraceDays: cfg.LateFeeGraceDays, Rate: cfg.LateFeeRate}
}
