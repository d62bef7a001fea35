package app

import (
	"context"
	"testing"

	"propertyops-backend/internal/application/audit"
	"propertyops-backend/internal/application/holds"
	"propertyops-backend/internal/config"
	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/infrastructure/metrics"
	"propertyops-backend/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		HoldDefaultMinutes: 20,
		LateFeeGraceDays:   3,
		LateFeeRate:        decimal.RequireFromString("0.1"),
		AuditStreamMaxLen:  100,
		EventStreamKey:     "test:events",
	}
}

func TestNewServices_UsesConfig(t *testing.T) {
	db := testutil.NewDB(t)
	rdb, mr := testutil.NewRedis(t)
	svc := NewServices(testConfig(), db, rdb, metrics.New())

	assert.Equal(t, 20, svc.Holds.DefaultMinutes)
	assert.Equal(t, 3, svc.Payments.Policy.GraceDays)
	assert.True(t, svc.Payments.Policy.Rate.Equal(decimal.RequireFromString("0.1")))
	assert.Nil(t, svc.Maintenance.Notifier)

	unit := testutil.SeedUnit(t, db, "1200.00", domain.UnitAvailable)
	_, err := svc.Holds.PlaceHold(context.Background(), holds.PlaceHoldRequest{UnitID: unit.UnitID, RequesterID: "ops-1"})
	require.NoError(t, err)

	assert.True(t, mr.Exists(audit.FeedKey))
	assert.True(t, mr.Exists("test:events"))
}

func TestNewServices_BrevoNeedsKeyAndMailbox(t *testing.T) {
	cfg := testConfig()
	cfg.SendinblueAPIKey = "key"
	assert.Nil(t, NewServices(cfg, nil, nil, nil).Maintenance.Notifier)

	cfg.OpsEmail = "ops@example.com"
	assert.NotNil(t, NewServices(cfg, nil, nil, nil).Maintenance.Notifier)
}
