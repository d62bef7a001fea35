package holds

import (
	"errors"
	"time"

	"propertyops-backend/internal/application/audit"
	"propertyops-backend/internal/domain"
	"propertyops-backend/internal/infrastructure/database"
	"propertyops-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LockUnit loads a unit with a row lock held until tx ends.
func LockUnit(tx *gorm.DB, unitID uuid.UUID) (*domain.Unit, error) {
	if err := database.BoundLockWait(tx); err != nil {
		return nil, err
	}
	var unit domain.Unit
	if err := database.ForUpdate(tx).Where("unit_id = ?", unitID).First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrUnitNotFound
		}
		return nil, err
	}
	return &unit, nil
}

// ActiveHold returns the unexpired hold on a unit, if any.
func ActiveHold(tx *gorm.DB, unitID uuid.UUID, now time.Time) (*domain.Hold, bool, error) {
	var hold domain.Hold
	err := tx.Where("unit_id = ? AND expires_at > ?", unitID, now).Order("expires_at DESC").First(&hold).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &hold, true, nil
}

// ReleaseExpired lazily invalidates expired holds on a locked unit: stale rows
// are deleted and a HOLD unit with no live hold goes back to AVAILABLE.
// unit is updated in place.
func ReleaseExpired(tx *gorm.DB, tr *audit.Tracker, unit *domain.Unit, now time.Time) (int64, error) {
	res := tr.Exec(tx.Where("unit_id = ? AND expires_at <= ?", unit.UnitID, now).Delete(&domain.Hold{}))
	if res.Error != nil {
		return 0, res.Error
	}
	if err := settleHoldStatus(tx, tr, unit, now); err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

func settleHoldStatus(tx *gorm.DB, tr *audit.Tracker, unit *domain.Unit, now time.Time) error {
	if unit.Status != domain.UnitHold {
		return nil
	}
	_, held, err := ActiveHold(tx, unit.UnitID, now)
	if err != nil || held {
		return err
	}
	if err := tr.Exec(tx.Model(unit).Update("status", domain.UnitAvailable)).Error; err != nil {
		return err
	}
	unit.Status = domain.UnitAvailable
	return nil
}
