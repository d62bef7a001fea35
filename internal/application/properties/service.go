package properties

import (
	"context"
	"errors"
	"time"

	"propertyops-backend/internal/application/audit"
	"propertyops-backend/internal/application/holds"
	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/infrastructure/database"
	"propertyops-backend/internal/pkg/apperr"
	"propertyops-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const Scope = "properties"

type Service struct {
	DB    *gorm.DB
	Audit *audit.Recorder
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

type CreatePropertyInput struct {
	OwnerID     string              `validate:"required"`
	Address     string              `validate:"required,max=255"`
	City        string              `validate:"required,max=100"`
	State       string              `validate:"required,max=64"`
	ZipCode     string              `validate:"omitempty,max=16"`
	Type        domain.PropertyType `validate:"omitempty,oneof=residential commercial industrial"`
	Description *string             `validate:"omitempty,max=2000"`
	Latitude    *float64            `validate:"omitempty,latitude"`
	Longitude   *float64            `validate:"omitempty,longitude"`

	Actor         string
	CorrelationID string
}

func (s *Service) CreateProperty(ctx context.Context, in CreatePropertyInput) (*domain.Property, error) {
	tr := s.Audit.Start(audit.Op{Scope: Scope, Name: "create_property", ObjectType: "property", Actor: in.Actor, CorrelationID: in.CorrelationID,
		Params: map[string]interface{}{"owner_id": in.OwnerID, "city": in.City}})
	prop := &domain.Property{
		OwnerID:     in.OwnerID,
		Address:     in.Address,
		City:        in.City,
		State:       in.State,
		ZipCode:     in.ZipCode,
		Type:        in.Type,
		Status:      domain.PropertyActive,
		Description: in.Description,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
	}
	if prop.Type == "" {
		prop.Type = domain.PropertyResidential
	}
	err := validation.Check(ctx, in)
	if err == nil {
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tr.Exec(tx.Create(prop)).Error; err != nil {
				return err
			}
			tr.SetObject("property", prop.PropertyID.String())
			tr.Succeed(tx)
			return nil
		})
		err = database.Classify(err)
	}
	tr.Finish(ctx, err)
	if err != nil {
		return nil, err
	}
	return prop, nil
}

func (s *Service) GetProperty(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	var prop domain.Property
	if err := s.DB.WithContext(ctx).Where("property_id = ?", id).First(&prop).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrPropertyNotFound
		}
		return nil, database.Classify(err)
	}
	return &prop, nil
}

// ListProperties returns every property, or only ownerID's when set.
func (s *Service) ListProperties(ctx context.Context, ownerID string) ([]domain.Property, error) {
	q := s.DB.WithContext(ctx).Order("created_at DESC")
	if ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	var out []domain.Property
	if err := q.Find(&out).Error; err != nil {
		return nil, database.Classify(err)
	}
	return out, nil
}

type DeletePropertyResult struct {
	Units       int64 `json:"units"`
	Leases      int64 `json:"leases"`
	Payments    int64 `json:"payments"`
	Holds       int64 `json:"holds"`
	Maintenance int64 `json:"maintenance_requests"`
}

// DeleteProperty removes a property with its units and everything hanging off
// them, in one transaction.
func (s *Service) DeleteProperty(ctx context.Context, id uuid.UUID, actor, correlationID string) (*DeletePropertyResult, error) {
	tr := s.Audit.Start(audit.Op{Scope: Scope, Name: "delete_property", ObjectType: "property", ObjectID: id.String(), Actor: actor, CorrelationID: correlationID})
	var out DeletePropertyResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := database.BoundLockWait(tx); err != nil {
			return err
		}
		var prop domain.Property
		if err := database.ForUpdate(tx).Where("property_id = ?", id).First(&prop).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrPropertyNotFound
			}
			return err
		}
		units := tx.Model(&domain.Unit{}).Select("unit_id").Where("property_id = ?", id)
		leases := tx.Model(&domain.Lease{}).Select("lease_id").Where("unit_id IN (?)", units)

		steps := []struct {
			count *int64
			run   func() *gorm.DB
		}{
			{&out.Payments, func() *gorm.DB { return tx.Where("lease_id IN (?)", leases).Delete(&domain.Payment{}) }},
			{&out.Leases, func() *gorm.DB { return tx.Where("unit_id IN (?)", units).Delete(&domain.Lease{}) }},
			{&out.Holds, func() *gorm.DB { return tx.Where("unit_id IN (?)", units).Delete(&domain.Hold{}) }},
			{&out.Maintenance, func() *gorm.DB { return tx.Where("unit_id IN (?)", units).Delete(&domain.MaintenanceRequest{}) }},
			{&out.Units, func() *gorm.DB { return tx.Where("property_id = ?", id).Delete(&domain.Unit{}) }},
		}
		for _, step := range steps {
			res := tr.Exec(step.run())
			if res.Error != nil {
				return res.Error
			}
			*step.count = res.RowsAffected
		}
		if err := tr.Exec(tx.Delete(&prop)).Error; err != nil {
			return err
		}
		tr.Succeed(tx)
		return nil
	})
	err = database.Classify(err)
	tr.Finish(ctx, err)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type CreateUnitInput struct {
	PropertyID uuid.UUID
	Name       string `validate:"required,max=64"`
	RentAmount decimal.Decimal
	Bedrooms   int     `validate:"min=0,max=50"`
	Bathrooms  float64 `validate:"min=0,max=50"`
	SquareFeet *int    `validate:"omitempty,gt=0"`

	Actor         string
	CorrelationID string
}

func (s *Service) CreateUnit(ctx context.Context, in CreateUnitInput) (*domain.Unit, error) {
	tr := s.Audit.Start(audit.Op{Scope: Scope, Name: "create_unit", ObjectType: "unit", Actor: in.Actor, CorrelationID: in.CorrelationID,
		Params: map[string]interface{}{"property_id": in.PropertyID, "name": in.Name, "rent_amount": in.RentAmount}})
	unit := &domain.Unit{
		PropertyID: in.PropertyID,
		Name:       in.Name,
		RentAmount: in.RentAmount.Round(2),
		Bedrooms:   in.Bedrooms,
		Bathrooms:  in.Bathrooms,
		SquareFeet: in.SquareFeet,
		Status:     domain.UnitAvailable,
	}
	err := validation.Check(ctx, in)
	if err == nil && !in.RentAmount.IsPositive() {
		err = apperr.ErrInvalidAmount
	}
	if err == nil {
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var n int64
			if err := tx.Model(&domain.Property{}).Where("property_id = ?", in.PropertyID).Count(&n).Error; err != nil {
				return err
			}
			if n == 0 {
				return apperr.ErrPropertyNotFound
			}
			if err := tr.Exec(tx.Create(unit)).Error; err != nil {
				return err
			}
			tr.SetObject("unit", unit.UnitID.String())
			tr.Succeed(tx)
			return nil
		})
		err = database.Classify(err)
	}
	tr.Finish(ctx, err)
	if err != nil {
		return nil, err
	}
	return unit, nil
}

type UnitFilter struct {
	PropertyID *uuid.UUID
	Status     domain.UnitStatus
}

// ListUnits returns units with their property, ordered by name.
func (s *Service) ListUnits(ctx context.Context, f UnitFilter) ([]domain.Unit, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.WithMessage(apperr.ErrInvalidRequest, "unknown unit status "+string(f.Status))
	}
	q := s.DB.WithContext(ctx).Preload("Property").Order("name")
	if f.PropertyID != nil {
		q = q.Where("property_id = ?", *f.PropertyID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []domain.Unit
	if err := q.Find(&out).Error; err != nil {
		return nil, database.Classify(err)
	}
	return out, nil
}

// SetUnitInactive takes a unit out of circulation. Units with an active lease
// or a live hold are refused.
func (s *Service) SetUnitInactive(ctx context.Context, unitID uuid.UUID, actor, correlationID string) (*domain.Unit, error) {
	tr := s.Audit.Start(audit.Op{Scope: Scope, Name: "set_unit_inactive", ObjectType: "unit", ObjectID: unitID.String(), Actor: actor, CorrelationID: correlationID})
	var unit *domain.Unit
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		unit, err = holds.LockUnit(tx, unitID)
		if err != nil {
			return err
		}
		if unit.Status == domain.UnitInactive {
			return apperr.ErrInvalidTransition
		}
		if _, err := holds.ReleaseExpired(tx, tr, unit, s.now()); err != nil {
			return err
		}
		if unit.Status == domain.UnitHold {
			return apperr.ErrAlreadyHeld
		}
		var active int64
		if err := tx.Model(&domain.Lease{}).Where("unit_id = ? AND status = ?", unitID, domain.LeaseActive).Count(&active).Error; err != nil {
			return err
		}
		if active > 0 {
			return apperr.ErrUnitHasActiveLease
		}
		if err := tr.Exec(tx.Model(unit).Update("status", domain.UnitInactive)).Error; err != nil {
			return err
		}
		unit.Status = domain.UnitInactive
		tr.Succeed(tx)
		return nil
	})
	err = database.Classify(err)
	tr.Finish(ctx, err)
	if err != nil {
		return nil, err
	}
	return unit, nil
}

// ReactivateUnit returns an INACTIVE unit to AVAILABLE, or to LEASED when an
// active lease still points at it.
func (s *Service) ReactivateUnit(ctx context.Context, unitID uuid.UUID, actor, correlationID string) (*domain.Unit, error) {
	tr := s.Audit.Start(audit.Op{Scope: Scope, Name: "reactivate_unit", ObjectType: "unit", ObjectID: unitID.String(), Actor: actor, CorrelationID: correlationID})
	var unit *domain.Unit
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		unit, err = holds.LockUnit(tx, unitID)
		if err != nil {
			return err
		}
		if unit.Status != domain.UnitInactive {
			return apperr.ErrInvalidTransition
		}
		var active int64
		if err := tx.Model(&domain.Lease{}).Where("unit_id = ? AND status = ?", unitID, domain.LeaseActive).Count(&active).Error; err != nil {
			return err
		}
		next := domain.UnitAvailable
		if active > 0 {
			next = domain.UnitLeased
		}
		if err := tr.Exec(tx.Model(unit).Update("status", next)).Error; err != nil {
			return err
		}
		unit.Status = next
		tr.Succeed(tx)
		return nil
	})
	err = database.Classify(err)
	tr.Finish(ctx, err)
	if err != nil {
		return nil, err
	}
	return unit, nil
}
