package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrganizationType string

const (
	OrganizationTypeContractor OrganizationType = "CONTRACTOR"
	OrganizationTypeStore      OrganizationType = "STORE"
)

func (t OrganizationType) Valid() bool {
	return t == OrganizationTypeContractor || t == OrganizationTypeStore
}

type Organization struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string           `gorm:"size:200;not null" json:"name"`
	Type      OrganizationType `gorm:"size:20;not null" json:"type"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (o *Organization) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
	RoleViewer Role = "VIEWER"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	default:
		return false
	}
}

// CanEdit reports whether the role may mutate business records.
func (r Role) CanEdit() bool {
	return r == RoleAdmin || r == RoleMember
}

type OrganizationMember struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_member_user_org" json:"user_id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_member_user_org;index" json:"organization_id"`
	Role           Role      `gorm:"size:20;not null" json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (m *OrganizationMember) BeforeCreate(*gorm.DB) error {
	assignID(&m.ID)
	return nil
}
