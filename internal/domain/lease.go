package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Lease binds a tenant to a unit for a date range. At most one lease per unit
// may be active; the partial unique index enforces it at the store level.
type Lease struct {
	LeaseID     uuid.UUID       `gorm:"column:lease_id;type:uuid;primaryKey" json:"lease_id"`
	UnitID      uuid.UUID       `gorm:"column:unit_id;type:uuid;not null;index;uniqueIndex:idx_leases_one_active_per_unit,where:status = 'active'" json:"unit_id"`
	TenantID    uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;index" json:"tenant_id"`
	StartDate   time.Time       `gorm:"column:start_date;type:date;not null" json:"start_date"`
	EndDate     time.Time       `gorm:"column:end_date;type:date;not null" json:"end_date"`
	MonthlyRent decimal.Decimal `gorm:"column:monthly_rent;type:numeric(12,2);not null" json:"monthly_rent"`
	Deposit     decimal.Decimal `gorm:"column:deposit;type:numeric(12,2);not null" json:"deposit"`
	Status      LeaseStatus     `gorm:"column:status;not null;default:draft" json:"status"`
	Terms       *string         `gorm:"column:terms" json:"terms"`
	CreatedAt   time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at" json:"updated_at"`

	Payments []Payment `gorm:"foreignKey:LeaseID;references:LeaseID" json:"payments,omitempty"`
}

func (Lease) TableName() string {
	return "leases"
}

func (l *Lease) BeforeCreate(tx *gorm.DB) error {
	if l.LeaseID == uuid.Nil {
		l.LeaseID = uuid.New()
	}
	return nil
}
