package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/budget-service/internal/model"
)

type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

type ProjectFilter struct {
	OrganizationID uuid.UUID
	Status         model.ProjectStatus
	// ViewerID limits the result to projects shared with this user.
	ViewerID uuid.UUID
}

func (r *ProjectRepository) Create(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

func (r *ProjectRepository) Get(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepository) List(ctx context.Context, filter ProjectFilter) ([]model.Project, error) {
	query := r.db.WithContext(ctx).Where("organization_id = ?", filter.OrganizationID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ViewerID != uuid.Nil {
		shared := r.db.WithContext(ctx).
			Model(&model.ProjectViewer{}).
			Select("project_id").
			Where("user_id = ?", filter.ViewerID)
		query = query.Where("id IN (?)", shared)
	}

	projects := []model.Project{}
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *ProjectRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Project, error) {
	projects := []model.Project{}
	if len(ids) == 0 {
		return projects, nil
	}
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("name ASC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *ProjectRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Delete removes the project, its viewer grants and its budget links.
// Linked budgets themselves survive.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("project_id = ?", id).Delete(&model.ProjectViewer{}).Error; err != nil {
		return err
	}
	if err := db.Where("project_id = ?", id).Delete(&model.BudgetProject{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Project{}).Error
}

func (r *ProjectRepository) AddViewer(ctx context.Context, viewer *model.ProjectViewer) error {
	return r.db.WithContext(ctx).Create(viewer).Error
}

func (r *ProjectRepository) HasViewer(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ProjectViewer{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *ProjectRepository) ListViewers(ctx context.Context, projectID uuid.UUID) ([]model.ProjectViewer, error) {
	viewers := []model.ProjectViewer{}
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&viewers).Error; err != nil {
		return nil, err
	}
	return viewers, nil
}

func (r *ProjectRepository) RemoveViewer(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&model.ProjectViewer{})
	return res.RowsAffected > 0, res.Error
}

// RemoveViewerGrants drops every grant the user holds inside one organization.
func (r *ProjectRepository) RemoveViewerGrants(ctx context.Context, orgID, userID uuid.UUID) error {
	projects := r.db.WithContext(ctx).
		Model(&model.Project{}).
		Select("id").
		Where("organization_id = ?", orgID)
	return r.db.WithContext(ctx).
		Where("user_id = ? AND project_id IN (?)", userID, projects).
		Delete(&model.ProjectViewer{}).Error
}
