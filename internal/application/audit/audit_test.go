package audit_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"propertyops-backend/internal/application/audit"
	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/testutil"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLogOperation(t *testing.T) {
	db := testutil.NewDB(t)
	rows := int64(3)

	id, err := audit.LogOperation(context.Background(), db, audit.Entry{
		Scope: "holds", Op: "release_expired_holds", Params: map[string]int{"minutes": 15},
		SQL: strings.Repeat("x", 9000), RowsAffected: &rows, Actor: "ops",
	})
	require.NoError(t, err)
	assert.NotZero(t, id)

	var got domain.AuditLog
	require.NoError(t, db.First(&got, id).Error)
	assert.Equal(t, domain.AuditSuccess, got.Status)
	assert.Len(t, *got.SQLStatement, 8000)
	assert.EqualValues(t, 3, *got.RowsAffected)
	assert.Nil(t, got.CorrelationID)
	assert.JSONEq(t, `{"minutes":15}`, string(got.Params))
}

func TestTracker_SuccessWritesInsideTransaction(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	unit := testutil.SeedUnit(t, env.DB, "1000", domain.UnitAvailable)

	tr := env.Audit.Start(audit.Op{Scope: "holds", Name: "place_hold", Actor: "user-a", CorrelationID: "c-1"})
	err := env.DB.Transaction(func(tx *gorm.DB) error {
		res := tr.Exec(tx.Model(&domain.Unit{}).Where("unit_id = ?", unit.UnitID).Update("status", domain.UnitHold))
		if res.Error != nil {
			return res.Error
		}
		tr.SetObject("unit", unit.UnitID.String())
		tr.Succeed(tx)
		return nil
	})
	require.NoError(t, err)
	tr.Finish(ctx, nil)

	rows := testutil.AuditRows(t, env.DB, "place_hold")
	require.Len(t, rows, 1)
	assert.Equal(t, unit.UnitID.String(), *rows[0].ObjectID)
	assert.EqualValues(t, 1, *rows[0].RowsAffected)
	assert.Contains(t, *rows[0].SQLStatement, "UPDATE")
	assert.True(t, rows[0].CreatedAt.Equal(testutil.Epoch))

	msgs, err := env.Audit.Feed.Read(ctx, "0", 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, audit.FeedEventType, msgs[0].Type)
	var published domain.AuditLog
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &published))
	assert.Equal(t, rows[0].ID, published.ID)

	n, err := promtest.GatherAndCount(env.Metrics.Registry(), "propertyops_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTracker_RollbackLeavesOnlyErrorRow(t *testing.T) {
	env := testutil.NewEnv(t)
	unit := testutil.SeedUnit(t, env.DB, "1000", domain.UnitAvailable)
	boom := errors.New("boom")

	tr := env.Audit.Start(audit.Op{Scope: "holds", Name: "place_hold"})
	err := env.DB.Transaction(func(tx *gorm.DB) error {
		tr.Exec(tx.Model(&domain.Unit{}).Where("unit_id = ?", unit.UnitID).Update("status", domain.UnitHold))
		tr.Succeed(tx)
		return boom
	})
	require.ErrorIs(t, err, boom)
	tr.Finish(context.Background(), err)

	assert.Equal(t, domain.UnitAvailable, testutil.Reload(t, env.DB, unit).Status)
	rows := testutil.AuditRows(t, env.DB, "place_hold")
	require.Len(t, rows, 1)
	assert.Equal(t, domain.AuditError, rows[0].Status)
	assert.Equal(t, "boom", *rows[0].Error)
	require.NotNil(t, rows[0].SQLStatement)
	assert.Contains(t, *rows[0].SQLStatement, "UPDATE")
}

func TestTracker_ErrorRowSurvivesCancelledContext(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr := env.Audit.Start(audit.Op{Scope: "payments", Name: "post_payment"})
	tr.Finish(ctx, context.Canceled)

	rows := testutil.AuditRows(t, env.DB, "post_payment")
	require.Len(t, rows, 1)
	assert.Equal(t, domain.AuditError, rows[0].Status)
}

func TestTracker_SuccessWithoutTransaction(t *testing.T) {
	env := testutil.NewEnv(t)

	tr := env.Audit.Start(audit.Op{Scope: "payments", Name: "process_overdue_payments"})
	tr.Finish(context.Background(), nil)

	rows := testutil.AuditRows(t, env.DB, "process_overdue_payments")
	require.Len(t, rows, 1)
	assert.Equal(t, domain.AuditSuccess, rows[0].Status)
	assert.Nil(t, rows[0].SQLStatement)
	assert.Zero(t, *rows[0].RowsAffected)
}

func TestService_List(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	for i, e := range []audit.Entry{
		{Scope: "holds", Op: "place_hold", CorrelationID: "a"},
		{Scope: "holds", Op: "place_hold", Status: domain.AuditError, Error: "held", CorrelationID: "b"},
		{Scope: "leases", Op: "confirm_lease", CorrelationID: "b"},
	} {
		_, err := audit.LogOperation(ctx, env.DB, e)
		require.NoError(t, err, "entry %d", i)
	}
	svc := &audit.Service{DB: env.DB, Feed: env.Audit.Feed}

	all, err := svc.List(ctx, audit.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "confirm_lease", all[0].Op)

	holds, err := svc.List(ctx, audit.ListFilter{Scope: "holds", Status: domain.AuditError})
	require.NoError(t, err)
	require.Len(t, holds, 1)
	assert.Equal(t, "held", *holds[0].Error)

	byTrace, err := svc.List(ctx, audit.ListFilter{CorrelationID: "b", Limit: 1})
	require.NoError(t, err)
	require.Len(t, byTrace, 1)
	assert.Equal(t, "leases", byTrace[0].Scope)
}
