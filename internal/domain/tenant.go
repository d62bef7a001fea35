package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Tenant struct {
	TenantID              uuid.UUID        `gorm:"column:tenant_id;type:uuid;primaryKey" json:"tenant_id"`
	ProfileID             *string          `gorm:"column:profile_id;index" json:"profile_id"`
	FullName              string           `gorm:"column:full_name;not null" json:"full_name"`
	Email                 string           `gorm:"column:email;not null" json:"email"`
	Phone                 *string          `gorm:"column:phone" json:"phone"`
	Occupation            *string          `gorm:"column:occupation" json:"occupation"`
	AnnualIncome          *decimal.Decimal `gorm:"column:annual_income;type:numeric(14,2)" json:"annual_income"`
	CreditScore           *int             `gorm:"column:credit_score" json:"credit_score"`
	EmergencyContactName  *string          `gorm:"column:emergency_contact_name" json:"emergency_contact_name"`
	EmergencyContactPhone *string          `gorm:"column:emergency_contact_phone" json:"emergency_contact_phone"`
	CreatedAt             time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt             time.Time        `gorm:"column:updated_at" json:"updated_at"`
}

func (Tenant) TableName() string {
	return "tenants"
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.TenantID == uuid.Nil {
		t.TenantID = uuid.New()
	}
	return nil
}
