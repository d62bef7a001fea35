package leases

import (
	"context"
	"errors"
	"time"

	"propertyops-backend/internal/application/audit"
	"propertyops-backend/internal/application/events"
	"propertyops-backend/internal/application/holds"
	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/infrastructure/database"
	"propertyops-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TerminateLeaseRequest struct {
	LeaseID       uuid.UUID
	RequesterID   string
	CorrelationID string
}

// TerminateLease ends an active lease and frees its unit atomically.
// Payments are left as they are.
func (s *Service) TerminateLease(ctx context.Context, req TerminateLeaseRequest) error {
	tr := s.Audit.Start(audit.Op{
		Scope:         Scope,
		Name:          "terminate_lease",
		ObjectType:    "lease",
		ObjectID:      req.LeaseID.String(),
		Actor:         req.RequesterID,
		CorrelationID: req.CorrelationID,
		Params:        map[string]interface{}{"lease_id": req.LeaseID},
	})
	var unitID uuid.UUID
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.BoundLockWait(tx); err != nil {
			return err
		}
		var lease domain.Lease
		if err := database.ForUpdate(tx).Where("lease_id = ?", req.LeaseID).First(&lease).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrLeaseNotFound
			}
			return err
		}
		if lease.Status != domain.LeaseActive {
			return apperr.ErrLeaseNotActive
		}
		unit, err := holds.LockUnit(tx, lease.UnitID)
		if err != nil {
			return err
		}
		unitID = unit.UnitID
		if err := tr.Exec(tx.Model(&lease).Update("status", domain.LeaseTerminated)).Error; err != nil {
			return err
		}
		if unit.Status != domain.UnitInactive {
			if err := tr.Exec(tx.Model(unit).Update("status", domain.UnitAvailable)).Error; err != nil {
				return err
			}
		}
		tr.Succeed(tx)
		return nil
	})
	err = database.Classify(err)
	tr.Finish(ctx, err)
	if err == nil {
		s.Events.Publish(ctx, events.LeaseTerminated, map[string]interface{}{"lease_id": req.LeaseID, "unit_id": unitID})
	}
	return err
}

type DraftLeaseRequest struct {
	UnitID        uuid.UUID
	TenantID      uuid.UUID
	StartDate     time.Time
	EndDate       time.Time
	Deposit       *decimal.Decimal
	Terms         *string
	RequesterID   string
	CorrelationID string
}

// CreateDraftLease records a prospective lease without touching the unit.
// Drafts are activated later through ConfirmLease with DraftLeaseID.
func (s *Service) CreateDraftLease(ctx context.Context, req DraftLeaseRequest) (*domain.Lease, error) {
	start, end := domain.DateOnly(req.StartDate), domain.DateOnly(req.EndDate)
	tr := s.Audit.Start(audit.Op{
		Scope:         Scope,
		Name:          "create_draft_lease",
		ObjectType:    "unit",
		ObjectID:      req.UnitID.String(),
		Actor:         req.RequesterID,
		CorrelationID: req.CorrelationID,
		Params: map[string]interface{}{
			"unit_id":    req.UnitID,
			"tenant_id":  req.TenantID,
			"start_date": start.Format(time.DateOnly),
			"end_date":   end.Format(time.DateOnly),
		},
	})
	var lease domain.Lease
	err := validateTerm(start, end, req.Deposit)
	if err == nil {
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var unit domain.Unit
			if err := tx.Where("unit_id = ?", req.UnitID).First(&unit).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.ErrUnitNotFound
				}
				return err
			}
			if err := tenantExists(tx, req.TenantID); err != nil {
				return err
			}
			if err := rentPositive(&unit); err != nil {
				return err
			}
			deposit := unit.RentAmount
			if req.Deposit != nil {
				deposit = *req.Deposit
			}
			lease = domain.Lease{
				UnitID:      unit.UnitID,
				TenantID:    req.TenantID,
				StartDate:   start,
				EndDate:     end,
				MonthlyRent: unit.RentAmount,
				Deposit:     deposit.Round(2),
				Status:      domain.LeaseDraft,
				Terms:       req.Terms,
			}
			if err := tr.Exec(tx.Create(&lease)).Error; err != nil {
				return err
			}
			tr.SetObject("lease", lease.LeaseID.String())
			tr.Succeed(tx)
			return nil
		})
		err = database.Classify(err)
	}
	tr.Finish(ctx, err)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ctx, events.LeaseDrafted, map[string]interface{}{"lease_id": lease.LeaseID, "unit_id": lease.UnitID})
	return &lease, nil
}

// GetLease returns a lease with its payments ordered by due date.
func (s *Service) GetLease(ctx context.Context, id uuid.UUID) (*domain.Lease, error) {
	var lease domain.Lease
	err := s.DB.WithContext(ctx).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("due_date ASC") }).
		Where("lease_id = ?", id).First(&lease).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.ErrLeaseNotFound
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return &lease, nil
}

type ListFilter struct {
	Status   domain.LeaseStatus
	UnitID   *uuid.UUID
	TenantID *uuid.UUID
}

func (s *Service) ListLeases(ctx context.Context, f ListFilter) ([]domain.Lease, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Lease{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.UnitID != nil {
		q = q.Where("unit_id = ?", *f.UnitID)
	}
	if f.TenantID != nil {
		q = q.Where("tenant_id = ?", *f.TenantID)
	}
	var out []domain.Lease
	if err := q.Order("start_date DESC").Find(&out).Error; err != nil {
		return nil, database.Classify(err)
	}
	return out, nil
}
