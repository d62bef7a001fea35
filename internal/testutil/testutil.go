// Package testutil builds in-memory stores and seed rows for package tests.
package testutil

import (
	"testing"
	"time"

	"propertyops-backend/internal/application/audit"
	"propertyops-backend/internal/application/events"
	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/infrastructure/database"
	"propertyops-backend/internal/infrastructure/metrics"
	"propertyops-backend/internal/infrastructure/redisstream"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Epoch is the fixed "now" used by service tests.
var Epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// Clock returns a controllable time source.
type Clock struct{ T time.Time }

func (c *Clock) Now() time.Time { return c.T }

func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

func NewClock() *Clock { return &Clock{T: Epoch} }

// NewDB opens a migrated in-memory SQLite database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// NewRedis starts a miniredis server and a client bound to it.
func NewRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return rdb, mr
}

// Env bundles the collaborators every transactional service needs.
type Env struct {
	DB      *gorm.DB
	Rdb     *redis.Client
	Clock   *Clock
	Audit   *audit.Recorder
	Events  *events.Publisher
	Metrics *metrics.Recorder
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	db := NewDB(t)
	rdb, _ := NewRedis(t)
	clock := NewClock()
	m := metrics.New()
	return &Env{
		DB:      db,
		Rdb:     rdb,
		Clock:   clock,
		Metrics: m,
		Audit: &audit.Recorder{
			DB:      db,
			Feed:    &redisstream.Stream{Rdb: rdb, Key: "audit_log"},
			Metrics: m,
			Now:     clock.Now,
			Backoff: time.Millisecond,
		},
		Events: &events.Publisher{Stream: &redisstream.Stream{Rdb: rdb, Key: "propertyops:events"}, Now: clock.Now},
	}
}

// SeedUnit creates a property and one unit with the given rent and status.
func SeedUnit(t *testing.T, db *gorm.DB, rent string, status domain.UnitStatus) domain.Unit {
	t.Helper()
	prop := domain.Property{OwnerID: "owner-1", Address: "1 Main St", City: "Springfield", State: "IL", ZipCode: "62701",
		Type: domain.PropertyResidential, Status: domain.PropertyActive}
	require.NoError(t, db.Create(&prop).Error)
	unit := domain.Unit{PropertyID: prop.PropertyID, Name: "Unit 1A", RentAmount: decimal.RequireFromString(rent), Bedrooms: 2, Bathrooms: 1, Status: status}
	require.NoError(t, db.Create(&unit).Error)
	return unit
}

func SeedTenant(t *testing.T, db *gorm.DB) domain.Tenant {
	t.Helper()
	tenant := domain.Tenant{FullName: "Dana Reyes", Email: "dana@example.com"}
	require.NoError(t, db.Create(&tenant).Error)
	return tenant
}

// Reload fetches the current unit row.
func Reload(t *testing.T, db *gorm.DB, unit domain.Unit) domain.Unit {
	t.Helper()
	var out domain.Unit
	require.NoError(t, db.First(&out, "unit_id = ?", unit.UnitID).Error)
	return out
}

// AuditRows returns every audit row for an operation name, oldest first.
func AuditRows(t *testing.T, db *gorm.DB, op string) []domain.AuditLog {
	t.Helper()
	var rows []domain.AuditLog
	require.NoError(t, db.Where("op = ?", op).Order("id").Find(&rows).Error)
	return rows
}

func Count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}
