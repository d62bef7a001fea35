package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Hold is a time-boxed reservation of a unit by one requester.
type Hold struct {
	HoldID    uuid.UUID `gorm:"column:hold_id;type:uuid;primaryKey" json:"hold_id"`
	UnitID    uuid.UUID `gorm:"column:unit_id;type:uuid;not null;index" json:"unit_id"`
	UserID    string    `gorm:"column:user_id;not null" json:"user_id"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Hold) TableName() string {
	return "holds"
}

func (h *Hold) BeforeCreate(tx *gorm.DB) error {
	if h.HoldID == uuid.Nil {
		h.HoldID = uuid.New()
	}
	return nil
}

// Expired reports whether the hold no longer blocks the unit at now.
func (h Hold) Expired(now time.Time) bool {
	return !h.ExpiresAt.After(now)
}
