package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MaintenanceRequest struct {
	RequestID     uuid.UUID           `gorm:"column:request_id;type:uuid;primaryKey" json:"request_id"`
	UnitID        uuid.UUID           `gorm:"column:unit_id;type:uuid;not null;index" json:"unit_id"`
	TenantID      *uuid.UUID          `gorm:"column:tenant_id;type:uuid" json:"tenant_id"`
	Category      MaintenanceCategory `gorm:"column:category;not null;default:general" json:"category"`
	Priority      int                 `gorm:"column:priority;not null;default:3" json:"priority"`
	Status        MaintenanceStatus   `gorm:"column:status;not null;default:open;index" json:"status"`
	Description   string              `gorm:"column:description;not null" json:"description"`
	EstimatedCost *decimal.Decimal    `gorm:"column:estimated_cost;type:numeric(12,2)" json:"estimated_cost"`
	ActualCost    *decimal.Decimal    `gorm:"column:actual_cost;type:numeric(12,2)" json:"actual_cost"`
	AssignedTo    *string             `gorm:"column:assigned_to" json:"assigned_to"`
	CompletedAt   *time.Time          `gorm:"column:completed_at" json:"completed_at"`
	CreatedAt     time.Time           `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"column:updated_at" json:"updated_at"`
}

func (MaintenanceRequest) TableName() string {
	return "maintenance_requests"
}

func (m *MaintenanceRequest) BeforeCreate(tx *gorm.DB) error {
	if m.RequestID == uuid.Nil {
		m.RequestID = uuid.New()
	}
	return nil
}
