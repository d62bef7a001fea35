package payments

import (
	"context"
	"errors"
	"time"

	"propertyops-backend/internal/application/audit"
	"propertyops-backend/internal/application/events"
	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/infrastructure/database"
	"propertyops-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const Scope = "payments"

type Service struct {
	DB     *gorm.DB
	Audit  *audit.Recorder
	Events *events.Publisher
	Policy LateFeePolicy
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// LateFee evaluates the configured policy at the current time.
func (s *Service) LateFee(due time.Time, amount decimal.Decimal) decimal.Decimal {
	return CalculateLateFee(s.Policy, due, s.now(), amount)
}

type PostPaymentRequest struct {
	PaymentID     uuid.UUID
	Amount        decimal.Decimal
	Method        domain.PaymentMethod
	Notes         *string
	Actor         string
	CorrelationID string
}

type PostPaymentResult struct {
	PaymentID uuid.UUID            `json:"payment_id"`
	LateFee   decimal.Decimal      `json:"late_fee"`
	Status    domain.PaymentStatus `json:"status"`
	PaidAt    time.Time            `json:"paid_at"`
}

// PostPayment marks a pending payment paid and applies the late fee owed at
// the posting time. A payment can be posted once; later attempts fail with
// ErrPaymentAlreadyPosted and leave the row untouched.
func (s *Service) PostPayment(ctx context.Context, req PostPaymentRequest) (*PostPaymentResult, error) {
	tr := s.Audit.Start(audit.Op{
		Scope:         Scope,
		Name:          "post_payment",
		ObjectType:    "payment",
		ObjectID:      req.PaymentID.String(),
		Actor:         req.Actor,
		CorrelationID: req.CorrelationID,
		Params:        map[string]interface{}{"payment_id": req.PaymentID, "amount": req.Amount.StringFixed(2), "method": req.Method},
	})

	var result *PostPaymentResult
	var err error
	switch {
	case !req.Amount.IsPositive():
		err = apperr.ErrInvalidAmount
	case !req.Method.Valid():
		err = apperr.ErrInvalidMethod
	default:
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := database.BoundLockWait(tx); err != nil {
				return err
			}
			var p domain.Payment
			if err := database.ForUpdate(tx).Where("payment_id = ?", req.PaymentID).First(&p).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.ErrPaymentNotFound
				}
				return err
			}
			if p.Status != domain.PaymentPending {
				return apperr.ErrPaymentAlreadyPosted
			}

			now := s.now()
			amount := req.Amount.Round(2)
			fee := CalculateLateFee(s.Policy, p.DueDate, now, amount)
			updates := map[string]interface{}{
				"status":   domain.PaymentPaid,
				"amount":   amount,
				"method":   req.Method,
				"late_fee": fee,
				"paid_at":  now,
			}
			if req.Notes != nil {
				updates["notes"] = *req.Notes
			}
			if err := tr.Exec(tx.Model(&p).Updates(updates)).Error; err != nil {
				return err
			}
			tr.Succeed(tx)
			result = &PostPaymentResult{PaymentID: p.PaymentID, LateFee: fee, Status: domain.PaymentPaid, PaidAt: now}
			return nil
		})
		err = database.Classify(err)
	}
	tr.Finish(ctx, err)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ctx, events.PaymentPosted, result)
	return result, nil
}

// OverdueResult is one row touched by ProcessOverduePayments.
type OverdueResult struct {
	PaymentID uuid.UUID            `json:"payment_id"`
	LateFee   decimal.Decimal      `json:"late_fee"`
	Status    domain.PaymentStatus `json:"status"`
	Error     string               `json:"error,omitempty"`
}

// ProcessOverduePayments assesses the late fee on every pending payment past
// its grace period that has none yet. Each payment is updated in its own
// transaction so one failure does not stop the sweep; failures are reported
// per row. The sweep is audited once.
func (s *Service) ProcessOverduePayments(ctx context.Context, actor, correlationID string) ([]OverdueResult, error) {
	now := s.now()
	cutoff := domain.DateOnly(now).AddDate(0, 0, -s.Policy.GraceDays)
	tr := s.Audit.Start(audit.Op{
		Scope:         Scope,
		Name:          "process_overdue_payments",
		ObjectType:    "payment",
		Actor:         actor,
		CorrelationID: correlationID,
		Params:        map[string]interface{}{"cutoff": cutoff.Format(time.DateOnly), "grace_days": s.Policy.GraceDays, "rate": s.Policy.Rate.String()},
	})

	var ids []uuid.UUID
	err := s.DB.WithContext(ctx).Model(&domain.Payment{}).
		Where("status = ? AND due_date < ?", domain.PaymentPending, cutoff).
		Order("due_date ASC").
		Pluck("payment_id", &ids).Error
	if err != nil {
		err = database.Classify(err)
		tr.Finish(ctx, err)
		return nil, err
	}

	results := make([]OverdueResult, 0, len(ids))
	failed := 0
	for _, id := range ids {
		res, err := s.assessLateFee(ctx, tr, id, now)
		if err != nil {
			failed++
			log.Warn().Err(err).Str("payment_id", id.String()).Msg("overdue payment not processed")
			results = append(results, OverdueResult{PaymentID: id, Status: domain.PaymentPending, Error: err.Error()})
			continue
		}
		if res != nil {
			results = append(results, *res)
		}
	}

	var sweepErr error
	if failed > 0 && failed == len(ids) {
		sweepErr = apperr.Internal(errors.New("every overdue payment failed to process"))
	}
	tr.Finish(ctx, sweepErr)
	if sweepErr != nil {
		return results, sweepErr
	}
	s.Events.Publish(ctx, events.OverdueProcessed, map[string]interface{}{"processed": len(results) - failed, "failed": failed})
	return results, nil
}

func (s *Service) assessLateFee(ctx context.Context, tr *audit.Tracker, id uuid.UUID, now time.Time) (*OverdueResult, error) {
	var out *OverdueResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.BoundLockWait(tx); err != nil {
			return err
		}
		var p domain.Payment
		if err := database.ForUpdate(tx).Where("payment_id = ?", id).First(&p).Error; err != nil {
			return err
		}
		// Posted or already assessed since the candidate query ran.
		if p.Status != domain.PaymentPending || !p.LateFee.IsZero() {
			return nil
		}
		fee := CalculateLateFee(s.Policy, p.DueDate, now, p.Amount)
		if fee.IsZero() {
			return nil
		}
		if err := tr.Exec(tx.Model(&p).Update("late_fee", fee)).Error; err != nil {
			return err
		}
		out = &OverdueResult{PaymentID: p.PaymentID, LateFee: fee, Status: p.Status}
		return nil
	})
	return out, database.Classify(err)
}

type ListFilter struct {
	LeaseID *uuid.UUID
	Status  domain.PaymentStatus
}

func (s *Service) ListPayments(ctx context.Context, f ListFilter) ([]domain.Payment, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Payment{})
	if f.LeaseID != nil {
		q = q.Where("lease_id = ?", *f.LeaseID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []domain.Payment
	if err := q.Order("due_date ASC").Find(&out).Error; err != nil {
		return nil, database.Classify(err)
	}
	return out, nil
}
