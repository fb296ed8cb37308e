package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnitPriceAnalysis aggregates material, labor and equipment lines into one
// unit cost. TotalPrice is a persisted cache of the sum of line totals.
type UnitPriceAnalysis struct {
	ID                    uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID        uuid.UUID           `gorm:"type:uuid;not null;index" json:"organization_id"`
	Title                 string              `gorm:"size:200;not null" json:"title"`
	Code                  *string             `gorm:"size:64" json:"code"`
	Unit                  string              `gorm:"size:32;not null" json:"unit"`
	TotalPrice            decimal.Decimal     `gorm:"type:numeric(18,4);not null" json:"total_price"`
	HasAnnualMaintenance  bool                `gorm:"not null;default:false" json:"has_annual_maintenance"`
	MaintenanceYears      *int                `json:"maintenance_years"`
	AnnualMaintenanceRate decimal.NullDecimal `gorm:"type:numeric(18,4)" json:"annual_maintenance_rate"`
	IsPublic              bool                `gorm:"not null;default:false" json:"is_public"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`

	Lines []UPALine `gorm:"foreignKey:UPAID" json:"-"`
}

func (UnitPriceAnalysis) TableName() string {
	return "unit_price_analyses"
}

func (u *UnitPriceAnalysis) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}

// LinesOf returns the lines of one category in their stored order.
func (u UnitPriceAnalysis) LinesOf(kind ComponentKind) []UPALine {
	result := make([]UPALine, 0, len(u.Lines))
	for _, line := range u.Lines {
		if line.Kind == kind {
			result = append(result, line)
		}
	}
	return result
}

// UPALine is one material, labor or equipment row of a UPA. ComponentID
// links back to the catalog entry the line was priced from.
type UPALine struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UPAID       uuid.UUID       `gorm:"column:upa_id;type:uuid;not null;index" json:"upa_id"`
	Kind        ComponentKind   `gorm:"size:20;not null" json:"kind"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	Name        string          `gorm:"size:200;not null" json:"name"`
	Quantity    decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"quantity"`
	Unit        string          `gorm:"size:32;not null" json:"unit"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"total_price"`
	ComponentID *uuid.UUID      `gorm:"type:uuid;index" json:"component_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (UPALine) TableName() string {
	return "upa_lines"
}

func (l *UPALine) BeforeCreate(*gorm.DB) error {
	assignID(&l.ID)
	return nil
}
