package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Property struct {
	PropertyID  uuid.UUID      `gorm:"column:property_id;type:uuid;primaryKey" json:"property_id"`
	OwnerID     string         `gorm:"column:owner_id;not null;index" json:"owner_id"`
	Address     string         `gorm:"column:address;not null" json:"address"`
	City        string         `gorm:"column:city;not null" json:"city"`
	State       string         `gorm:"column:state;not null" json:"state"`
	ZipCode     string         `gorm:"column:zip_code" json:"zip_code"`
	Type        PropertyType   `gorm:"column:type;not null;default:residential" json:"type"`
	Status      PropertyStatus `gorm:"column:status;not null;default:active" json:"status"`
	Description *string        `gorm:"column:description" json:"description"`
	Latitude    *float64       `gorm:"column:latitude" json:"latitude"`
	Longitude   *float64       `gorm:"column:longitude" json:"longitude"`
	CreatedAt   time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (Property) TableName() string {
	return "properties"
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.PropertyID == uuid.Nil {
		p.PropertyID = uuid.New()
	}
	return nil
}

type Unit struct {
	UnitID     uuid.UUID       `gorm:"column:unit_id;type:uuid;primaryKey" json:"unit_id"`
	PropertyID uuid.UUID       `gorm:"column:property_id;type:uuid;not null;index" json:"property_id"`
	Name       string          `gorm:"column:name;not null" json:"name"`
	RentAmount decimal.Decimal `gorm:"column:rent_amount;type:numeric(12,2);not null" json:"rent_amount"`
	Bedrooms   int             `gorm:"column:bedrooms;not null;default:0" json:"bedrooms"`
	Bathrooms  float64         `gorm:"column:bathrooms;not null;default:0" json:"bathrooms"`
	SquareFeet *int            `gorm:"column:square_feet" json:"square_feet"`
	Status     UnitStatus      `gorm:"column:status;not null;default:AVAILABLE;index" json:"status"`
	CreatedAt  time.Time       `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at" json:"updated_at"`

	Property *Property `gorm:"foreignKey:PropertyID;references:PropertyID" json:"property,omitempty"`
}

func (Unit) TableName() string {
	return "units"
}

func (u *Unit) BeforeCreate(tx *gorm.DB) error {
	if u.UnitID == uuid.Nil {
		u.UnitID = uuid.New()
	}
	if u.Status == "" {
		u.Status = UnitAvailable
	}
	return nil
}
