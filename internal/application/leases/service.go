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

const Scope = "leases"

type Service struct {
	DB     *gorm.DB
	Audit  *audit.Recorder
	Events *events.Publisher
	Now    func() time.Time
}

type ConfirmLeaseRequest struct {
	UnitID        uuid.UUID
	TenantID      uuid.UUID
	StartDate     time.Time
	EndDate       time.Time
	Deposit       *decimal.Decimal
	RequesterID   string
	DraftLeaseID  *uuid.UUID
	CorrelationID string
}

type ConfirmLeaseResult struct {
	LeaseID         uuid.UUID `json:"lease_id"`
	PaymentsCreated int       `json:"payments_created"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// ConfirmLease activates a lease on a unit and materialises its payment
// schedule in one transaction. Either the lease, the LEASED unit status and
// every payment row exist afterwards, or none of them do.
func (s *Service) ConfirmLease(ctx context.Context, req ConfirmLeaseRequest) (*ConfirmLeaseResult, error) {
	start, end := domain.DateOnly(req.StartDate), domain.DateOnly(req.EndDate)
	params := map[string]interface{}{
		"unit_id":    req.UnitID,
		"tenant_id":  req.TenantID,
		"start_date": start.Format(time.DateOnly),
		"end_date":   end.Format(time.DateOnly),
	}
	if req.Deposit != nil {
		params["deposit"] = req.Deposit.StringFixed(2)
	}
	if req.DraftLeaseID != nil {
		params["draft_lease_id"] = req.DraftLeaseID
	}
	tr := s.Audit.Start(audit.Op{
		Scope:         Scope,
		Name:          "confirm_lease",
		ObjectType:    "unit",
		ObjectID:      req.UnitID.String(),
		Actor:         req.RequesterID,
		CorrelationID: req.CorrelationID,
		Params:        params,
	})

	var result *ConfirmLeaseResult
	err := validateTerm(start, end, req.Deposit)
	if err == nil {
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			unit, err := holds.LockUnit(tx, req.UnitID)
			if err != nil {
				return err
			}
			if err := tenantExists(tx, req.TenantID); err != nil {
				return err
			}
			if err := s.ensureLeasable(tx, tr, unit, req.RequesterID); err != nil {
				return err
			}

			var draft *domain.Lease
			if req.DraftLeaseID != nil {
				if draft, err = loadDraft(tx, *req.DraftLeaseID, unit.UnitID, req.TenantID); err != nil {
					return err
				}
			}

			if err := rentPositive(unit); err != nil {
				return err
			}
			deposit := unit.RentAmount
			if req.Deposit != nil {
				deposit = *req.Deposit
			}
			lease := domain.Lease{
				UnitID:      unit.UnitID,
				TenantID:    req.TenantID,
				StartDate:   start,
				EndDate:     end,
				MonthlyRent: unit.RentAmount,
				Deposit:     deposit.Round(2),
				Status:      domain.LeaseActive,
			}
			if draft != nil {
				lease.Terms = draft.Terms
			}
			if err := tr.Exec(tx.Create(&lease)).Error; err != nil {
				return err
			}
			if err := tr.Exec(tx.Model(unit).Update("status", domain.UnitLeased)).Error; err != nil {
				return err
			}
			if err := tr.Exec(tx.Where("unit_id = ?", unit.UnitID).Delete(&domain.Hold{})).Error; err != nil {
				return err
			}

			schedule := GenerateSchedule(start, end, lease.MonthlyRent)
			payments := make([]domain.Payment, 0, len(schedule))
			for _, inst := range schedule {
				payments = append(payments, domain.Payment{
					LeaseID: lease.LeaseID,
					Amount:  inst.Amount,
					DueDate: inst.DueDate,
					Status:  domain.PaymentPending,
					LateFee: decimal.Zero,
				})
			}
			if len(payments) > 0 {
				if err := tr.Exec(tx.Create(&payments)).Error; err != nil {
					return err
				}
			}
			if draft != nil {
				if err := tr.Exec(tx.Where("lease_id = ?", draft.LeaseID).Delete(&domain.Lease{})).Error; err != nil {
					return err
				}
			}

			tr.SetObject("lease", lease.LeaseID.String())
			tr.Succeed(tx)
			result = &ConfirmLeaseResult{LeaseID: lease.LeaseID, PaymentsCreated: len(payments)}
			return nil
		})
		err = database.Classify(err)
		if errors.Is(err, apperr.ErrUniqueViolation) {
			err = apperr.Wrap(apperr.ErrUnitUnavailable, err)
		}
	}
	tr.Finish(ctx, err)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ctx, events.LeaseConfirmed, map[string]interface{}{
		"lease_id":         result.LeaseID,
		"unit_id":          req.UnitID,
		"tenant_id":        req.TenantID,
		"payments_created": result.PaymentsCreated,
	})
	return result, nil
}

// ensureLeasable releases stale holds and rejects units that are leased,
// inactive, or held by someone other than the requester.
func (s *Service) ensureLeasable(tx *gorm.DB, tr *audit.Tracker, unit *domain.Unit, requester string) error {
	now := s.now()
	if _, err := holds.ReleaseExpired(tx, tr, unit, now); err != nil {
		return err
	}
	if unit.Status == domain.UnitLeased || unit.Status == domain.UnitInactive {
		return apperr.ErrUnitUnavailable
	}
	var active int64
	if err := tx.Model(&domain.Lease{}).Where("unit_id = ? AND status = ?", unit.UnitID, domain.LeaseActive).Count(&active).Error; err != nil {
		return err
	}
	if active > 0 {
		return apperr.ErrDuplicateActiveLease
	}
	hold, held, err := holds.ActiveHold(tx, unit.UnitID, now)
	if err != nil {
		return err
	}
	if held && (requester == "" || hold.UserID != requester) {
		return apperr.ErrAlreadyHeld
	}
	return nil
}

func validateTerm(start, end time.Time, deposit *decimal.Decimal) error {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return apperr.ErrInvalidDateRange
	}
	if deposit != nil && deposit.IsNegative() {
		return apperr.WithMessage(apperr.ErrInvalidAmount, "deposit must not be negative")
	}
	return nil
}

func rentPositive(unit *domain.Unit) error {
	if !unit.RentAmount.IsPositive() {
		return apperr.WithMessage(apperr.ErrInvalidAmount, "monthly_rent must be greater than zero")
	}
	return nil
}

func tenantExists(tx *gorm.DB, tenantID uuid.UUID) error {
	var n int64
	if err := tx.Model(&domain.Tenant{}).Where("tenant_id = ?", tenantID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrTenantNotFound
	}
	return nil
}

func loadDraft(tx *gorm.DB, id, unitID, tenantID uuid.UUID) (*domain.Lease, error) {
	var draft domain.Lease
	if err := database.ForUpdate(tx).Where("lease_id = ?", id).First(&draft).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrLeaseNotFound
		}
		return nil, err
	}
	if draft.Status != domain.LeaseDraft || draft.UnitID != unitID || draft.TenantID != tenantID {
		return nil, apperr.ErrInvalidDraft
	}
	return &draft, nil
}
