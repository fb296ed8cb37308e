package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Item is a product sold by a STORE organization.
type Item struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID       `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string          `gorm:"size:200;not null" json:"name"`
	Description    *string         `gorm:"type:text" json:"description"`
	Unit           string          `gorm:"size:32;not null" json:"unit"`
	Price          decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"price"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (i *Item) BeforeCreate(*gorm.DB) error {
	assignID(&i.ID)
	return nil
}
