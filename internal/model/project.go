package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusPlanning   ProjectStatus = "PLANNING"
	ProjectStatusInProgress ProjectStatus = "IN_PROGRESS"
	ProjectStatusOnHold     ProjectStatus = "ON_HOLD"
	ProjectStatusCompleted  ProjectStatus = "COMPLETED"
	ProjectStatusCancelled  ProjectStatus = "CANCELLED"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusInProgress, ProjectStatusOnHold,
		ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	default:
		return false
	}
}

type Project struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID     `gorm:"type:uuid;not null;index" json:"organization_id"`
	CreatedByID    uuid.UUID     `gorm:"type:uuid;not null" json:"created_by_id"`
	Name           string        `gorm:"size:200;not null" json:"name"`
	Description    *string       `gorm:"type:text" json:"description"`
	Status         ProjectStatus `gorm:"size:20;not null" json:"status"`
	ClientName     *string       `gorm:"size:200" json:"client_name"`
	ClientEmail    *string       `gorm:"size:200" json:"client_email"`
	ClientPhone    *string       `gorm:"size:50" json:"client_phone"`
	Location       *string       `gorm:"size:300" json:"location"`
	StartDate      *time.Time    `json:"start_date"`
	EndDate        *time.Time    `json:"end_date"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (p *Project) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// ProjectViewer grants a VIEWER member read access to one project.
type ProjectViewer struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_project_viewer" json:"project_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_project_viewer" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (v *ProjectViewer) BeforeCreate(*gorm.DB) error {
	assignID(&v.ID)
	return nil
}
