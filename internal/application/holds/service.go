package holds

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
	"gorm.io/gorm"
)

const (
	Scope      = "holds"
	maxMinutes = 24 * 60
)

type Service struct {
	DB             *gorm.DB
	Audit          *audit.Recorder
	Events         *events.Publisher
	Now            func() time.Time
	DefaultMinutes int
}

type PlaceHoldRequest struct {
	UnitID        uuid.UUID
	RequesterID   string
	Minutes       int
	CorrelationID string
}

type HoldResult struct {
	HoldID    uuid.UUID `json:"hold_id"`
	UnitID    uuid.UUID `json:"unit_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// PlaceHold reserves an available unit for req.Minutes. The unit row is
// locked for the check-and-set, so of two concurrent attempts exactly one
// succeeds and the other gets ErrAlreadyHeld.
func (s *Service) PlaceHold(ctx context.Context, req PlaceHoldRequest) (*HoldResult, error) {
	minutes := req.Minutes
	if minutes == 0 {
		minutes = s.DefaultMinutes
	}
	if minutes == 0 {
		minutes = 15
	}
	tr := s.Audit.Start(audit.Op{
		Scope:         Scope,
		Name:          "place_hold",
		ObjectType:    "unit",
		ObjectID:      req.UnitID.String(),
		Actor:         req.RequesterID,
		CorrelationID: req.CorrelationID,
		Params:        map[string]interface{}{"unit_id": req.UnitID, "user_id": req.RequesterID, "minutes": minutes},
	})

	var result *HoldResult
	var err error
	if minutes < 1 || minutes > maxMinutes {
		err = apperr.ErrInvalidMinutes
	} else {
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			unit, err := LockUnit(tx, req.UnitID)
			if err != nil {
				return err
			}
			now := s.now()
			if _, err := ReleaseExpired(tx, tr, unit, now); err != nil {
				return err
			}
			if unit.Status == domain.UnitLeased || unit.Status == domain.UnitInactive {
				return apperr.ErrUnitNotAvailable
			}
			if _, held, err := ActiveHold(tx, unit.UnitID, now); err != nil {
				return err
			} else if held {
				return apperr.ErrAlreadyHeld
			}

			hold := domain.Hold{UnitID: unit.UnitID, UserID: req.RequesterID, ExpiresAt: now.Add(time.Duration(minutes) * time.Minute), CreatedAt: now}
			if err := tr.Exec(tx.Create(&hold)).Error; err != nil {
				return err
			}
			if err := tr.Exec(tx.Model(unit).Update("status", domain.UnitHold)).Error; err != nil {
				return err
			}
			tr.SetObject("hold", hold.HoldID.String())
			tr.Succeed(tx)
			result = &HoldResult{HoldID: hold.HoldID, UnitID: unit.UnitID, ExpiresAt: hold.ExpiresAt}
			return nil
		})
		err = database.Classify(err)
	}
	tr.Finish(ctx, err)
	if err != nil {
		return nil, err
	}
	s.Events.Publish(ctx, events.HoldPlaced, result)
	return result, nil
}

type ReleaseHoldRequest struct {
	HoldID        uuid.UUID
	RequesterID   string
	Force         bool // staff may release holds they do not own
	CorrelationID string
}

// ReleaseHold cancels a hold before it expires and frees the unit.
func (s *Service) ReleaseHold(ctx context.Context, req ReleaseHoldRequest) error {
	tr := s.Audit.Start(audit.Op{
		Scope:         Scope,
		Name:          "release_hold",
		ObjectType:    "hold",
		ObjectID:      req.HoldID.String(),
		Actor:         req.RequesterID,
		CorrelationID: req.CorrelationID,
		Params:        map[string]interface{}{"hold_id": req.HoldID, "force": req.Force},
	})
	var unitID uuid.UUID
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var hold domain.Hold
		if err := tx.Where("hold_id = ?", req.HoldID).First(&hold).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrHoldNotFound
			}
			return err
		}
		if hold.UserID != req.RequesterID && !req.Force {
			return apperr.ErrHoldNotOwned
		}
		unit, err := LockUnit(tx, hold.UnitID)
		if err != nil {
			return err
		}
		unitID = unit.UnitID
		if err := tr.Exec(tx.Where("hold_id = ?", hold.HoldID).Delete(&domain.Hold{})).Error; err != nil {
			return err
		}
		if err := settleHoldStatus(tx, tr, unit, s.now()); err != nil {
			return err
		}
		tr.Succeed(tx)
		return nil
	})
	err = database.Classify(err)
	tr.Finish(ctx, err)
	if err == nil {
		s.Events.Publish(ctx, events.HoldReleased, map[string]interface{}{"hold_id": req.HoldID, "unit_id": unitID})
	}
	return err
}

// ReleaseExpiredHolds deletes every expired hold and returns HOLD units
// without a live hold to AVAILABLE. It reports how many holds were removed.
func (s *Service) ReleaseExpiredHolds(ctx context.Context, actor, correlationID string) (int64, error) {
	tr := s.Audit.Start(audit.Op{Scope: Scope, Name: "release_expired_holds", ObjectType: "hold", Actor: actor, CorrelationID: correlationID})
	var released int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		res := tr.Exec(tx.Where("expires_at <= ?", now).Delete(&domain.Hold{}))
		if res.Error != nil {
			return res.Error
		}
		released = res.RowsAffected
		live := tx.Model(&domain.Hold{}).Select("1").Where("holds.unit_id = units.unit_id AND holds.expires_at > ?", now)
		if err := tr.Exec(tx.Model(&domain.Unit{}).
			Where("status = ?", domain.UnitHold).
			Where("NOT EXISTS (?)", live).
			Update("status", domain.UnitAvailable)).Error; err != nil {
			return err
		}
		tr.Succeed(tx)
		return nil
	})
	err = database.Classify(err)
	tr.Finish(ctx, err)
	if err == nil && released > 0 {
		s.Events.Publish(ctx, events.HoldsExpired, map[string]interface{}{"released": released})
	}
	return released, err
}
