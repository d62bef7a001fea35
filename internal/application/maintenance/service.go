package maintenance

import (
	"context"
	"errors"
	"time"

	"propertyops-backend/internal/application/audit"
	"propertyops-backend/internal/application/events"
	"propertyops-backend/internal/application/notifications"
	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/infrastructure/database"
	"propertyops-backend/internal/pkg/apperr"
	"propertyops-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	Scope           = "maintenance"
	defaultPriority = 3
	notifyTimeout   = 10 * time.Second
)

type Service struct {
	DB       *gorm.DB
	Audit    *audit.Recorder
	Events   *events.Publisher
	Notifier notifications.Notifier
	Now      func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

type CreateRequestInput struct {
	UnitID        uuid.UUID
	TenantID      *uuid.UUID
	Category      domain.MaintenanceCategory `validate:"omitempty,oneof=plumbing electrical hvac general"`
	Priority      int                        `validate:"omitempty,min=1,max=5"`
	Description   string                     `validate:"required,max=4000"`
	EstimatedCost *decimal.Decimal

	Actor         string
	CorrelationID string
}

func (s *Service) CreateRequest(ctx context.Context, in CreateRequestInput) (*domain.MaintenanceRequest, error) {
	tr := s.Audit.Start(audit.Op{Scope: Scope, Name: "create_maintenance_request", ObjectType: "maintenance_request", Actor: in.Actor, CorrelationID: in.CorrelationID,
		Params: map[string]interface{}{"unit_id": in.UnitID, "category": in.Category, "priority": in.Priority}})
	req := &domain.MaintenanceRequest{
		UnitID:        in.UnitID,
		TenantID:      in.TenantID,
		Category:      in.Category,
		Priority:      in.Priority,
		Status:        domain.MaintenanceOpen,
		Description:   in.Description,
		EstimatedCost: in.EstimatedCost,
	}
	if req.Category == "" {
		req.Category = domain.CategoryGeneral
	}
	if req.Priority == 0 {
		req.Priority = defaultPriority
	}
	var unit domain.Unit
	err := validation.Check(ctx, in)
	if err == nil && in.EstimatedCost != nil && in.EstimatedCost.IsNegative() {
		err = apperr.WithMessage(apperr.ErrInvalidAmount, "estimated_cost must not be negative")
	}
	if err == nil {
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Preload("Property").Where("unit_id = ?", in.UnitID).First(&unit).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.ErrUnitNotFound
				}
				return err
			}
			req.CreatedAt = s.now()
			if err := tr.Exec(tx.Create(req)).Error; err != nil {
				return err
			}
			tr.SetObject("maintenance_request", req.RequestID.String())
			tr.Succeed(tx)
			return nil
		})
		err = database.Classify(err)
	}
	tr.Finish(ctx, err)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ctx, events.MaintenanceCreated, req)
	s.notify(ctx, req, &unit)
	return req, nil
}

func (s *Service) notify(ctx context.Context, req *domain.MaintenanceRequest, unit *domain.Unit) {
	if s.Notifier == nil {
		return
	}
	notice := notifications.MaintenanceNotice{
		RequestID:   req.RequestID.String(),
		UnitName:    unit.Name,
		Category:    string(req.Category),
		Priority:    req.Priority,
		Description: req.Description,
		CreatedAt:   req.CreatedAt,
	}
	if unit.Property != nil {
		notice.Address = unit.Property.Address + ", " + unit.Property.City
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := s.Notifier.MaintenanceCreated(nctx, notice); err != nil {
		log.Warn().Err(err).Str("request_id", notice.RequestID).Msg("maintenance notification failed")
	}
}

var transitions = map[domain.MaintenanceStatus][]domain.MaintenanceStatus{
	domain.MaintenanceOpen:       {domain.MaintenanceAssigned, domain.MaintenanceInProgress, domain.MaintenanceCancelled},
	domain.MaintenanceAssigned:   {domain.MaintenanceInProgress, domain.MaintenanceCancelled},
	domain.MaintenanceInProgress: {domain.MaintenanceResolved, domain.MaintenanceCancelled},
}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to domain.MaintenanceStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type UpdateStatusInput struct {
	RequestID  uuid.UUID
	Status     domain.MaintenanceStatus `validate:"required,oneof=assigned in_progress resolved cancelled"`
	AssignedTo *string                  `validate:"omitempty,max=200"`
	ActualCost *decimal.Decimal

	Actor         string
	CorrelationID string
}

func (s *Service) UpdateStatus(ctx context.Context, in UpdateStatusInput) (*domain.MaintenanceRequest, error) {
	tr := s.Audit.Start(audit.Op{Scope: Scope, Name: "update_maintenance_status", ObjectType: "maintenance_request", ObjectID: in.RequestID.String(),
		Actor: in.Actor, CorrelationID: in.CorrelationID, Params: map[string]interface{}{"status": in.Status}})
	var req domain.MaintenanceRequest
	var from domain.MaintenanceStatus
	err := validation.Check(ctx, in)
	if err == nil && in.ActualCost != nil && in.ActualCost.IsNegative() {
		err = apperr.WithMessage(apperr.ErrInvalidAmount, "actual_cost must not be negative")
	}
	if err == nil {
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := database.BoundLockWait(tx); err != nil {
				return err
			}
			if err := database.ForUpdate(tx).Where("request_id = ?", in.RequestID).First(&req).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperr.ErrRequestNotFound
				}
				return err
			}
			from = req.Status
			if !CanTransition(from, in.Status) {
				return apperr.WithMessage(apperr.ErrInvalidTransition, "cannot move maintenance request from "+string(from)+" to "+string(in.Status))
			}
			updates := map[string]interface{}{"status": in.Status}
			if in.AssignedTo != nil {
				updates["assigned_to"] = *in.AssignedTo
			}
			if in.Status == domain.MaintenanceResolved {
				now := s.now()
				updates["completed_at"] = now
				if in.ActualCost != nil {
					updates["actual_cost"] = in.ActualCost.Round(2)
				}
			}
			if err := tr.Exec(tx.Model(&req).Updates(updates)).Error; err != nil {
				return err
			}
			tr.Succeed(tx)
			return tx.Where("request_id = ?", in.RequestID).First(&req).Error
		})
		err = database.Classify(err)
	}
	tr.Finish(ctx, err)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ctx, events.MaintenanceUpdated, map[string]interface{}{"request_id": req.RequestID, "from": from, "to": req.Status})
	return &req, nil
}

type ListFilter struct {
	UnitID *uuid.UUID
	Status domain.MaintenanceStatus
}

// List returns requests most urgent first.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.MaintenanceRequest, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.WithMessage(apperr.ErrInvalidRequest, "unknown maintenance status "+string(f.Status))
	}
	q := s.DB.WithContext(ctx).Order("priority ASC").Order("created_at ASC")
	if f.UnitID != nil {
		q = q.Where("unit_id = ?", *f.UnitID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []domain.MaintenanceRequest
	if err := q.Find(&out).Error; err != nil {
		return nil, database.Classify(err)
	}
	return out, nil
}
