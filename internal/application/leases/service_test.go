package leases

import (
	"context"
	"errors"
	"testing"
	"time"

	"propertyops-backend/internal/application/holds"
	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/pkg/apperr"
	"propertyops-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	env    *testutil.Env
	svc    *Service
	holds  *holds.Service
	unit   domain.Unit
	tenant domain.Tenant
}

func setup(t *testing.T) *fixture {
	env := testutil.NewEnv(t)
	return &fixture{
		env:    env,
		svc:    &Service{DB: env.DB, Audit: env.Audit, Events: env.Events, Now: env.Clock.Now},
		holds:  &holds.Service{DB: env.DB, Audit: env.Audit, Events: env.Events, Now: env.Clock.Now, DefaultMinutes: 15},
		unit:   testutil.SeedUnit(t, env.DB, "1500.00", domain.UnitAvailable),
		tenant: testutil.SeedTenant(t, env.DB),
	}
}

func (f *fixture) request() ConfirmLeaseRequest {
	return ConfirmLeaseRequest{
		UnitID:        f.unit.UnitID,
		TenantID:      f.tenant.TenantID,
		StartDate:     date(2024, 1, 15),
		EndDate:       date(2025, 1, 15),
		RequesterID:   "owner-1",
		CorrelationID: "trace-confirm",
	}
}

func TestConfirmLease_CreatesLeaseAndSchedule(t *testing.T) {
	f := setup(t)
	res, err := f.svc.ConfirmLease(context.Background(), f.request())
	require.NoError(t, err)
	assert.Equal(t, 12, res.PaymentsCreated)

	assert.Equal(t, domain.UnitLeased, testutil.Reload(t, f.env.DB, f.unit).Status)

	lease, err := f.svc.GetLease(context.Background(), res.LeaseID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeaseActive, lease.Status)
	assert.True(t, lease.Deposit.Equal(decimal.RequireFromString("1500")))
	require.Len(t, lease.Payments, 12)
	for i, p := range lease.Payments {
		assert.Equal(t, 15, p.DueDate.Day())
		assert.Equal(t, time.Month(i+1), p.DueDate.Month())
		assert.Equal(t, domain.PaymentPending, p.Status)
		assert.True(t, p.Amount.Equal(decimal.RequireFromString("1500")))
	}

	rows := testutil.AuditRows(t, f.env.DB, "confirm_lease")
	require.Len(t, rows, 1)
	assert.Equal(t, domain.AuditSuccess, rows[0].Status)
	assert.Equal(t, res.LeaseID.String(), *rows[0].ObjectID)
	assert.EqualValues(t, 14, *rows[0].RowsAffected) // lease + unit + 12 payments
}

func TestConfirmLease_ExplicitDeposit(t *testing.T) {
	f := setup(t)
	req := f.request()
	dep := decimal.RequireFromString("750.555")
	req.Deposit = &dep
	res, err := f.svc.ConfirmLease(context.Background(), req)
	require.NoError(t, err)
	lease, err := f.svc.GetLease(context.Background(), res.LeaseID)
	require.NoError(t, err)
	assert.Equal(t, "750.56", lease.Deposit.StringFixed(2))
}

func TestConfirmLease_RejectsLeasedUnit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.ConfirmLease(ctx, f.request())
	require.NoError(t, err)

	_, err = f.svc.ConfirmLease(ctx, f.request())
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.True(t, errors.Is(err, apperr.ErrUnitUnavailable))

	assert.EqualValues(t, 1, testutil.Count(t, f.env.DB, &domain.Lease{}, ""))
	assert.EqualValues(t, 12, testutil.Count(t, f.env.DB, &domain.Payment{}, ""))
	rows := testutil.AuditRows(t, f.env.DB, "confirm_lease")
	require.Len(t, rows, 2)
	assert.Equal(t, domain.AuditError, rows[1].Status)
}

func TestConfirmLease_ValidationAndLookups(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req := f.request()
	req.EndDate = req.StartDate
	_, err := f.svc.ConfirmLease(ctx, req)
	assert.True(t, errors.Is(err, apperr.ErrInvalidDateRange))

	req = f.request()
	req.TenantID = uuid.New()
	_, err = f.svc.ConfirmLease(ctx, req)
	assert.True(t, errors.Is(err, apperr.ErrTenantNotFound))

	req = f.request()
	req.UnitID = uuid.New()
	_, err = f.svc.ConfirmLease(ctx, req)
	assert.True(t, errors.Is(err, apperr.ErrUnitNotFound))

	assert.Equal(t, domain.UnitAvailable, testutil.Reload(t, f.env.DB, f.unit).Status)
	assert.Len(t, testutil.AuditRows(t, f.env.DB, "confirm_lease"), 3)
}

func TestConfirmLease_RollsBackOnMidTransactionFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.holds.PlaceHold(ctx, holds.PlaceHoldRequest{UnitID: f.unit.UnitID, RequesterID: "owner-1"})
	require.NoError(t, err)

	require.NoError(t, f.env.DB.Callback().Create().Before("gorm:create").Register("test:fail_payments", func(db *gorm.DB) {
		if db.Statement.Table == "payments" {
			db.AddError(errors.New("disk full"))
		}
	}))

	_, err = f.svc.ConfirmLease(ctx, f.request())
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	assert.Zero(t, testutil.Count(t, f.env.DB, &domain.Lease{}, ""))
	assert.Zero(t, testutil.Count(t, f.env.DB, &domain.Payment{}, ""))
	assert.EqualValues(t, 1, testutil.Count(t, f.env.DB, &domain.Hold{}, ""))
	assert.Equal(t, domain.UnitHold, testutil.Reload(t, f.env.DB, f.unit).Status)

	rows := testutil.AuditRows(t, f.env.DB, "confirm_lease")
	require.Len(t, rows, 1)
	assert.Equal(t, domain.AuditError, rows[0].Status)
	assert.Contains(t, *rows[0].Error, "disk full")
}

func TestConfirmLease_HoldOwnership(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.holds.PlaceHold(ctx, holds.PlaceHoldRequest{UnitID: f.unit.UnitID, RequesterID: "someone-else"})
	require.NoError(t, err)

	_, err = f.svc.ConfirmLease(ctx, f.request())
	assert.True(t, errors.Is(err, apperr.ErrAlreadyHeld))

	// once the foreign hold expires the unit is available again
	f.env.Clock.Advance(16 * time.Minute)
	res, err := f.svc.ConfirmLease(ctx, f.request())
	require.NoError(t, err)
	assert.Equal(t, 12, res.PaymentsCreated)
	assert.Zero(t, testutil.Count(t, f.env.DB, &domain.Hold{}, ""))
}

func TestConfirmLease_ConsumesOwnHold(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.holds.PlaceHold(ctx, holds.PlaceHoldRequest{UnitID: f.unit.UnitID, RequesterID: "owner-1"})
	require.NoError(t, err)

	_, err = f.svc.ConfirmLease(ctx, f.request())
	require.NoError(t, err)
	assert.Zero(t, testutil.Count(t, f.env.DB, &domain.Hold{}, ""))
	assert.Equal(t, domain.UnitLeased, testutil.Reload(t, f.env.DB, f.unit).Status)
}

func TestConfirmLease_ActivatesDraft(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	terms := "no pets"
	draft, err := f.svc.CreateDraftLease(ctx, DraftLeaseRequest{
		UnitID: f.unit.UnitID, TenantID: f.tenant.TenantID,
		StartDate: date(2024, 1, 15), EndDate: date(2025, 1, 15), Terms: &terms,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LeaseDraft, draft.Status)
	assert.Equal(t, domain.UnitAvailable, testutil.Reload(t, f.env.DB, f.unit).Status)

	req := f.request()
	req.DraftLeaseID = &draft.LeaseID
	res, err := f.svc.ConfirmLease(ctx, req)
	require.NoError(t, err)

	_, err = f.svc.GetLease(ctx, draft.LeaseID)
	assert.True(t, errors.Is(err, apperr.ErrLeaseNotFound))
	lease, err := f.svc.GetLease(ctx, res.LeaseID)
	require.NoError(t, err)
	require.NotNil(t, lease.Terms)
	assert.Equal(t, "no pets", *lease.Terms)
}

func TestConfirmLease_DraftMustMatch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := testutil.SeedUnit(t, f.env.DB, "900", domain.UnitAvailable)
	draft, err := f.svc.CreateDraftLease(ctx, DraftLeaseRequest{
		UnitID: other.UnitID, TenantID: f.tenant.TenantID,
		StartDate: date(2024, 1, 15), EndDate: date(2025, 1, 15),
	})
	require.NoError(t, err)

	req := f.request()
	req.DraftLeaseID = &draft.LeaseID
	_, err = f.svc.ConfirmLease(ctx, req)
	assert.True(t, errors.Is(err, apperr.ErrInvalidDraft))
	assert.Equal(t, domain.UnitAvailable, testutil.Reload(t, f.env.DB, f.unit).Status)
}

func TestTerminateLease(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	res, err := f.svc.ConfirmLease(ctx, f.request())
	require.NoError(t, err)

	require.NoError(t, f.svc.TerminateLease(ctx, TerminateLeaseRequest{LeaseID: res.LeaseID, RequesterID: "owner-1"}))
	assert.Equal(t, domain.UnitAvailable, testutil.Reload(t, f.env.DB, f.unit).Status)
	lease, err := f.svc.GetLease(ctx, res.LeaseID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeaseTerminated, lease.Status)
	assert.Len(t, lease.Payments, 12)

	err = f.svc.TerminateLease(ctx, TerminateLeaseRequest{LeaseID: res.LeaseID})
	assert.True(t, errors.Is(err, apperr.ErrLeaseNotActive))
	err = f.svc.TerminateLease(ctx, TerminateLeaseRequest{LeaseID: uuid.New()})
	assert.True(t, errors.Is(err, apperr.ErrLeaseNotFound))

	// unit can be leased again
	req := f.request()
	req.StartDate, req.EndDate = date(2025, 2, 1), date(2025, 8, 1)
	again, err := f.svc.ConfirmLease(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 6, again.PaymentsCreated)

	rows := testutil.AuditRows(t, f.env.DB, "terminate_lease")
	require.Len(t, rows, 3)
	assert.Equal(t, domain.AuditSuccess, rows[0].Status)
}

func TestTerminateLease_KeepsInactiveUnit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	res, err := f.svc.ConfirmLease(ctx, f.request())
	require.NoError(t, err)
	require.NoError(t, f.env.DB.Model(&domain.Unit{}).Where("unit_id = ?", f.unit.UnitID).Update("status", domain.UnitInactive).Error)

	require.NoError(t, f.svc.TerminateLease(ctx, TerminateLeaseRequest{LeaseID: res.LeaseID}))
	assert.Equal(t, domain.UnitInactive, testutil.Reload(t, f.env.DB, f.unit).Status)
}

func TestListLeases(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_, err := f.svc.ConfirmLease(ctx, f.request())
	require.NoError(t, err)
	_, err = f.svc.CreateDraftLease(ctx, DraftLeaseRequest{UnitID: f.unit.UnitID, TenantID: f.tenant.TenantID, StartDate: date(2025, 2, 1), EndDate: date(2026, 2, 1)})
	require.NoError(t, err)

	active, err := f.svc.ListLeases(ctx, ListFilter{Status: domain.LeaseActive})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := f.svc.ListLeases(ctx, ListFilter{UnitID: &f.unit.UnitID})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
