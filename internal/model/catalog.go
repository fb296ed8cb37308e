package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ComponentKind discriminates the three parallel component families.
type ComponentKind string

const (
	ComponentKindMaterial  ComponentKind = "material"
	ComponentKindLabor     ComponentKind = "labor"
	ComponentKindEquipment ComponentKind = "equipment"
)

var ComponentKinds = []ComponentKind{
	ComponentKindMaterial,
	ComponentKindLabor,
	ComponentKindEquipment,
}

func (k ComponentKind) Valid() bool {
	switch k {
	case ComponentKindMaterial, ComponentKindLabor, ComponentKindEquipment:
		return true
	default:
		return false
	}
}

// ParseComponentKind accepts singular and plural route forms.
func ParseComponentKind(raw string) (ComponentKind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "material", "materials":
		return ComponentKindMaterial, true
	case "labor", "labour":
		return ComponentKindLabor, true
	case "equipment", "equipments":
		return ComponentKindEquipment, true
	default:
		return "", false
	}
}

// CatalogComponent is a reusable material, labor or equipment entry. For
// labor the Name holds the worker role.
type CatalogComponent struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Kind           ComponentKind   `gorm:"size:20;not null;index:idx_component_org_kind,priority:2" json:"kind"`
	OrganizationID uuid.UUID       `gorm:"type:uuid;not null;index:idx_component_org_kind,priority:1" json:"organization_id"`
	Code           *string         `gorm:"size:64" json:"code"`
	Name           string          `gorm:"size:200;not null" json:"name"`
	Description    *string         `gorm:"type:text" json:"description"`
	Unit           string          `gorm:"size:32;not null" json:"unit"`
	UnitPrice      decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"unit_price"`
	IsPublic       bool            `gorm:"not null;default:false" json:"is_public"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`

	UsageCount int64 `gorm:"-" json:"usage_count"`
	InUse      bool  `gorm:"-" json:"in_use"`
}

func (CatalogComponent) TableName() string {
	return "catalog_components"
}

func (c *CatalogComponent) BeforeCreate(*gorm.DB) error {
	assignID(&c.ID)
	return nil
}

func (c *CatalogComponent) SetUsage(count int64) {
	c.UsageCount = count
	c.InUse = count > 0
}
