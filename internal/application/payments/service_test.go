package payments

import (
	"context"
	"errors"
	"testing"
	"time"

	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/pkg/apperr"
	"propertyops-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*Service, *testutil.Env) {
	env := testutil.NewEnv(t)
	return &Service{DB: env.DB, Audit: env.Audit, Events: env.Events, Policy: DefaultPolicy(), Now: env.Clock.Now}, env
}

func seedPayment(t *testing.T, db *gorm.DB, due time.Time, amount string) domain.Payment {
	t.Helper()
	lease := domain.Lease{UnitID: uuid.New(), TenantID: uuid.New(), StartDate: domain.DateOnly(due), EndDate: domain.DateOnly(due).AddDate(1, 0, 0),
		MonthlyRent: decimal.RequireFromString(amount), Deposit: decimal.Zero, Status: domain.LeaseActive}
	require.NoError(t, db.Create(&lease).Error)
	p := domain.Payment{
		LeaseID: lease.LeaseID,
		Amount:  decimal.RequireFromString(amount),
		DueDate: domain.DateOnly(due),
		Status:  domain.PaymentPending,
		LateFee: decimal.Zero,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func reload(t *testing.T, db *gorm.DB, id uuid.UUID) domain.Payment {
	t.Helper()
	var p domain.Payment
	require.NoError(t, db.First(&p, "payment_id = ?", id).Error)
	return p
}

func TestPostPayment_OnTime(t *testing.T) {
	svc, env := newService(t)
	p := seedPayment(t, env.DB, testutil.Epoch.AddDate(0, 0, -5), "1000")

	res, err := svc.PostPayment(context.Background(), PostPaymentRequest{PaymentID: p.PaymentID, Amount: decimal.NewFromInt(1000), Method: domain.MethodCard, Actor: "ops-1"})
	require.NoError(t, err)
	assert.True(t, res.LateFee.IsZero())
	assert.Equal(t, domain.PaymentPaid, res.Status)

	stored := reload(t, env.DB, p.PaymentID)
	assert.Equal(t, domain.PaymentPaid, stored.Status)
	require.NotNil(t, stored.Method)
	assert.Equal(t, domain.MethodCard, *stored.Method)
	require.NotNil(t, stored.PaidAt)
	assert.True(t, stored.PaidAt.Equal(testutil.Epoch))
}

func TestPostPayment_LateAppliesFee(t *testing.T) {
	svc, env := newService(t)
	p := seedPayment(t, env.DB, testutil.Epoch.AddDate(0, 0, -10), "1000")
	notes := "paid at front desk"

	res, err := svc.PostPayment(context.Background(), PostPaymentRequest{PaymentID: p.PaymentID, Amount: decimal.NewFromInt(1000), Method: domain.MethodCash, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "50.00", res.LateFee.StringFixed(2))

	stored := reload(t, env.DB, p.PaymentID)
	assert.Equal(t, "50.00", stored.LateFee.StringFixed(2))
	require.NotNil(t, stored.Notes)
	assert.Equal(t, notes, *stored.Notes)
}

func TestPostPayment_SecondPostConflicts(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	p := seedPayment(t, env.DB, testutil.Epoch.AddDate(0, 0, -10), "1000")

	_, err := svc.PostPayment(ctx, PostPaymentRequest{PaymentID: p.PaymentID, Amount: decimal.NewFromInt(1000), Method: domain.MethodOnline})
	require.NoError(t, err)
	after := reload(t, env.DB, p.PaymentID)

	env.Clock.Advance(48 * time.Hour)
	_, err = svc.PostPayment(ctx, PostPaymentRequest{PaymentID: p.PaymentID, Amount: decimal.NewFromInt(5), Method: domain.MethodCheck})
	assert.True(t, errors.Is(err, apperr.ErrPaymentAlreadyPosted))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	again := reload(t, env.DB, p.PaymentID)
	assert.True(t, after.Amount.Equal(again.Amount))
	assert.Equal(t, *after.Method, *again.Method)
	assert.True(t, after.PaidAt.Equal(*again.PaidAt))
	assert.True(t, after.LateFee.Equal(again.LateFee))

	rows := testutil.AuditRows(t, env.DB, "post_payment")
	require.Len(t, rows, 2)
	assert.Equal(t, domain.AuditSuccess, rows[0].Status)
	assert.Equal(t, domain.AuditError, rows[1].Status)
}

func TestPostPayment_Validation(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	p := seedPayment(t, env.DB, testutil.Epoch, "1000")

	_, err := svc.PostPayment(ctx, PostPaymentRequest{PaymentID: p.PaymentID, Amount: decimal.Zero, Method: domain.MethodCash})
	assert.True(t, errors.Is(err, apperr.ErrInvalidAmount))

	_, err = svc.PostPayment(ctx, PostPaymentRequest{PaymentID: p.PaymentID, Amount: decimal.NewFromInt(10), Method: "wire"})
	assert.True(t, errors.Is(err, apperr.ErrInvalidMethod))

	_, err = svc.PostPayment(ctx, PostPaymentRequest{PaymentID: uuid.New(), Amount: decimal.NewFromInt(10), Method: domain.MethodCash})
	assert.True(t, errors.Is(err, apperr.ErrPaymentNotFound))

	assert.Equal(t, domain.PaymentPending, reload(t, env.DB, p.PaymentID).Status)
	assert.Len(t, testutil.AuditRows(t, env.DB, "post_payment"), 3)
}

func TestProcessOverduePayments(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	late := seedPayment(t, env.DB, testutil.Epoch.AddDate(0, 0, -10), "1000")
	graced := seedPayment(t, env.DB, testutil.Epoch.AddDate(0, 0, -3), "1000")
	paid := seedPayment(t, env.DB, testutil.Epoch.AddDate(0, 0, -20), "800")
	require.NoError(t, env.DB.Model(&domain.Payment{}).Where("payment_id = ?", paid.PaymentID).Update("status", domain.PaymentPaid).Error)

	results, err := svc.ProcessOverduePayments(ctx, "scheduler", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, late.PaymentID, results[0].PaymentID)
	assert.Equal(t, "50.00", results[0].LateFee.StringFixed(2))
	assert.Equal(t, domain.PaymentPending, results[0].Status)

	assert.True(t, reload(t, env.DB, graced.PaymentID).LateFee.IsZero())
	assert.Equal(t, "50.00", reload(t, env.DB, late.PaymentID).LateFee.StringFixed(2))

	// already assessed rows are skipped on the next sweep
	results, err = svc.ProcessOverduePayments(ctx, "scheduler", "")
	require.NoError(t, err)
	assert.Empty(t, results)

	rows := testutil.AuditRows(t, env.DB, "process_overdue_payments")
	require.Len(t, rows, 2)
	assert.EqualValues(t, 1, *rows[0].RowsAffected)
}

func TestListPayments(t *testing.T) {
	svc, env := newService(t)
	ctx := context.Background()
	p1 := seedPayment(t, env.DB, testutil.Epoch.AddDate(0, 1, 0), "1000")
	seedPayment(t, env.DB, testutil.Epoch, "1000")

	all, err := svc.ListPayments(ctx, ListFilter{Status: domain.PaymentPending})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].DueDate.Before(all[1].DueDate))

	one, err := svc.ListPayments(ctx, ListFilter{LeaseID: &p1.LeaseID})
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestLateFeeUsesServiceClock(t *testing.T) {
	svc, _ := newService(t)
	fee := svc.LateFee(testutil.Epoch.AddDate(0, 0, -10), decimal.NewFromInt(1000))
	assert.Equal(t, "50.00", fee.StringFixed(2))
}
