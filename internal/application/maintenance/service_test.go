package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"

	"propertyops-backend/internal/application/events"
	"propertyops-backend/internal/application/notifications"
	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/pkg/apperr"
	"propertyops-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notifications.MaintenanceNotice
	err  error
}

func (f *fakeNotifier) MaintenanceCreated(_ context.Context, n notifications.MaintenanceNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return f.err
}

func newService(t *testing.T) (*Service, *testutil.Env, *fakeNotifier) {
	env := testutil.NewEnv(t)
	n := &fakeNotifier{}
	return &Service{DB: env.DB, Audit: env.Audit, Events: env.Events, Notifier: n, Now: env.Clock.Now}, env, n
}

func TestCreateRequest(t *testing.T) {
	svc, env, notifier := newService(t)
	ctx := context.Background()
	unit := testutil.SeedUnit(t, env.DB, "1000", domain.UnitLeased)

	req, err := svc.CreateRequest(ctx, CreateRequestInput{UnitID: unit.UnitID, Category: domain.CategoryPlumbing, Description: "Leak under sink"})
	require.NoError(t, err)
	assert.Equal(t, 3, req.Priority)
	assert.Equal(t, domain.MaintenanceOpen, req.Status)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "Unit 1A", notifier.sent[0].UnitName)
	assert.Equal(t, "1 Main St, Springfield", notifier.sent[0].Address)

	msgs, err := svc.Events.Stream.Read(ctx, "0", 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, events.MaintenanceCreated, msgs[0].Type)
	assert.Len(t, testutil.AuditRows(t, env.DB, "create_maintenance_request"), 1)
}

func TestCreateRequest_NotificationFailureIsSwallowed(t *testing.T) {
	svc, env, notifier := newService(t)
	notifier.err = errors.New("smtp down")
	unit := testutil.SeedUnit(t, env.DB, "1000", domain.UnitLeased)

	_, err := svc.CreateRequest(context.Background(), CreateRequestInput{UnitID: unit.UnitID, Priority: 1, Description: "No heat"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, testutil.Count(t, env.DB, &domain.MaintenanceRequest{}, ""))
}

func TestCreateRequest_Errors(t *testing.T) {
	svc, env, notifier := newService(t)
	ctx := context.Background()

	_, err := svc.CreateRequest(ctx, CreateRequestInput{UnitID: uuid.New(), Description: "x"})
	assert.True(t, errors.Is(err, apperr.ErrUnitNotFound))

	_, err = svc.CreateRequest(ctx, CreateRequestInput{UnitID: uuid.New(), Description: "x", Priority: 9})
	assert.True(t, errors.Is(err, apperr.ErrInvalidRequest))

	_, err = svc.CreateRequest(ctx, CreateRequestInput{UnitID: uuid.New()})
	assert.Contains(t, err.Error(), "description (required)")

	assert.Empty(t, notifier.sent)
	assert.Len(t, testutil.AuditRows(t, env.DB, "create_maintenance_request"), 3)
}

func TestUpdateStatus_Lifecycle(t *testing.T) {
	svc, env, _ := newService(t)
	ctx := context.Background()
	unit := testutil.SeedUnit(t, env.DB, "1000", domain.UnitLeased)
	req, err := svc.CreateRequest(ctx, CreateRequestInput{UnitID: unit.UnitID, Description: "Broken lock"})
	require.NoError(t, err)

	tech := "tech-4"
	got, err := svc.UpdateStatus(ctx, UpdateStatusInput{RequestID: req.RequestID, Status: domain.MaintenanceAssigned, AssignedTo: &tech})
	require.NoError(t, err)
	assert.Equal(t, "tech-4", *got.AssignedTo)

	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{RequestID: req.RequestID, Status: domain.MaintenanceResolved})
	assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))

	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{RequestID: req.RequestID, Status: domain.MaintenanceInProgress})
	require.NoError(t, err)

	cost := decimal.RequireFromString("84.999")
	got, err = svc.UpdateStatus(ctx, UpdateStatusInput{RequestID: req.RequestID, Status: domain.MaintenanceResolved, ActualCost: &cost})
	require.NoError(t, err)
	assert.Equal(t, domain.MaintenanceResolved, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(testutil.Epoch))
	require.NotNil(t, got.ActualCost)
	assert.Equal(t, "85", got.ActualCost.String())

	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{RequestID: req.RequestID, Status: domain.MaintenanceCancelled})
	assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))

	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{RequestID: uuid.New(), Status: domain.MaintenanceCancelled})
	assert.True(t, errors.Is(err, apperr.ErrRequestNotFound))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(domain.MaintenanceOpen, domain.MaintenanceCancelled))
	assert.True(t, CanTransition(domain.MaintenanceAssigned, domain.MaintenanceInProgress))
	assert.False(t, CanTransition(domain.MaintenanceOpen, domain.MaintenanceResolved))
	assert.False(t, CanTransition(domain.MaintenanceCancelled, domain.MaintenanceOpen))
	assert.False(t, CanTransition(domain.MaintenanceResolved, domain.MaintenanceCancelled))
}

func TestList(t *testing.T) {
	svc, env, _ := newService(t)
	ctx := context.Background()
	unit := testutil.SeedUnit(t, env.DB, "1000", domain.UnitLeased)
	for _, p := range []int{4, 1, 2} {
		_, err := svc.CreateRequest(ctx, CreateRequestInput{UnitID: unit.UnitID, Priority: p, Description: "task"})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, ListFilter{UnitID: &unit.UnitID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{1, 2, 4}, []int{all[0].Priority, all[1].Priority, all[2].Priority})

	open, err := svc.List(ctx, ListFilter{Status: domain.MaintenanceResolved})
	require.NoError(t, err)
	assert.Empty(t, open)

	_, err = svc.List(ctx, ListFilter{Status: "bogus"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
