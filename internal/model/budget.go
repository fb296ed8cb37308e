package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Budget struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"organization_id"`
	Title          string     `gorm:"size:200;not null" json:"title"`
	Description    *string    `gorm:"type:text" json:"description"`
	IsTemplate     bool       `gorm:"not null;default:false" json:"is_template"`
	SourceBudgetID *uuid.UUID `gorm:"type:uuid" json:"source_budget_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	Items []BudgetItem `gorm:"foreignKey:BudgetID" json:"items"`
	UPAs  []BudgetUPA  `gorm:"foreignKey:BudgetID" json:"upas"`

	Total decimal.Decimal `gorm:"-" json:"total"`
}

func (b *Budget) BeforeCreate(*gorm.DB) error {
	assignID(&b.ID)
	return nil
}

// ComputeTotal sums the loaded lines into Total.
func (b *Budget) ComputeTotal() {
	total := decimal.Zero
	for _, item := range b.Items {
		total = total.Add(item.TotalPrice)
	}
	for _, upa := range b.UPAs {
		total = total.Add(upa.TotalPrice)
	}
	b.Total = total
}

// BudgetProject links a budget to a project.
type BudgetProject struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BudgetID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_budget_project" json:"budget_id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_budget_project;index" json:"project_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (bp *BudgetProject) BeforeCreate(*gorm.DB) error {
	assignID(&bp.ID)
	return nil
}

// BudgetItem is a store item priced at the time it was added.
type BudgetItem struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BudgetID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"budget_id"`
	ItemID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	Name       string          `gorm:"size:200;not null" json:"name"`
	Unit       string          `gorm:"size:32;not null" json:"unit"`
	Quantity   decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (bi *BudgetItem) BeforeCreate(*gorm.DB) error {
	assignID(&bi.ID)
	return nil
}

// BudgetUPA is a UPA priced at the time it was added.
type BudgetUPA struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BudgetID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"budget_id"`
	UPAID      uuid.UUID       `gorm:"column:upa_id;type:uuid;not null;index" json:"upa_id"`
	Title      string          `gorm:"size:200;not null" json:"title"`
	Unit       string          `gorm:"size:32;not null" json:"unit"`
	Quantity   decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"quantity"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"unit_price"`
	TotalPrice decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"total_price"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (BudgetUPA) TableName() string {
	return "budget_upas"
}

func (bu *BudgetUPA) BeforeCreate(*gorm.DB) error {
	assignID(&bu.ID)
	return nil
}
