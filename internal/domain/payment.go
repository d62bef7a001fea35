package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment is one installment of a lease's schedule.
type Payment struct {
	PaymentID uuid.UUID       `gorm:"column:payment_id;type:uuid;primaryKey" json:"payment_id"`
	LeaseID   uuid.UUID       `gorm:"column:lease_id;type:uuid;not null;index" json:"lease_id"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	DueDate   time.Time       `gorm:"column:due_date;type:date;not null;index" json:"due_date"`
	Status    PaymentStatus   `gorm:"column:status;not null;default:pending;index" json:"status"`
	Method    *PaymentMethod  `gorm:"column:method" json:"method"`
	LateFee   decimal.Decimal `gorm:"column:late_fee;type:numeric(12,2);not null;default:0" json:"late_fee"`
	PaidAt    *time.Time      `gorm:"column:paid_at" json:"paid_at"`
	Notes     *string         `gorm:"column:notes" json:"notes"`
	CreatedAt time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at" json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.PaymentID == uuid.Nil {
		p.PaymentID = uuid.New()
	}
	return nil
}
