package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/budget-service/internal/model"
)

type BudgetRepository struct {
	db *gorm.DB
}

func NewBudgetRepository(db *gorm.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

type BudgetFilter struct {
	OrganizationID uuid.UUID
	IsTemplate     *bool
}

// Create inserts the header only; lines are added with CreateItems and
// CreateUPAs.
func (r *BudgetRepository) Create(ctx context.Context, budget *model.Budget) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(budget).Error
}

func (r *BudgetRepository) CreateItems(ctx context.Context, items []model.BudgetItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *BudgetRepository) CreateUPAs(ctx context.Context, upas []model.BudgetUPA) error {
	if len(upas) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&upas).Error
}

func (r *BudgetRepository) Get(ctx context.Context, id uuid.UUID) (*model.Budget, error) {
	var budget model.Budget
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("UPAs", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&budget, "id = ?", id).Error; err != nil {
		return nil, err
	}
	budget.ComputeTotal()
	return &budget, nil
}

func (r *BudgetRepository) List(ctx context.Context, filter BudgetFilter) ([]model.Budget, error) {
	query := r.db.WithContext(ctx).Where("organization_id = ?", filter.OrganizationID)
	if filter.IsTemplate != nil {
		query = query.Where("is_template = ?", *filter.IsTemplate)
	}

	budgets := []model.Budget{}
	if err := query.
		Preload("Items").
		Preload("UPAs").
		Order("created_at DESC").
		Find(&budgets).Error; err != nil {
		return nil, err
	}
	for i := range budgets {
		budgets[i].ComputeTotal()
	}
	return budgets, nil
}

func (r *BudgetRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.Budget, error) {
	linked := r.db.WithContext(ctx).
		Model(&model.BudgetProject{}).
		Select("budget_id").
		Where("project_id = ?", projectID)

	budgets := []model.Budget{}
	if err := r.db.WithContext(ctx).
		Where("id IN (?)", linked).
		Preload("Items").
		Preload("UPAs").
		Order("created_at ASC").
		Find(&budgets).Error; err != nil {
		return nil, err
	}
	for i := range budgets {
		budgets[i].ComputeTotal()
	}
	return budgets, nil
}

func (r *BudgetRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.Budget{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Delete removes the budget, its lines and its project links.
func (r *BudgetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("budget_id = ?", id).Delete(&model.BudgetProject{}).Error; err != nil {
		return err
	}
	if err := db.Where("budget_id = ?", id).Delete(&model.BudgetItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("budget_id = ?", id).Delete(&model.BudgetUPA{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Budget{}).Error
}

// DeleteLine removes an item or UPA line of the budget. It reports false
// when no line with that id belongs to the budget.
func (r *BudgetRepository) DeleteLine(ctx context.Context, budgetID, lineID uuid.UUID) (bool, error) {
	db := r.db.WithContext(ctx)
	res := db.Where("budget_id = ? AND id = ?", budgetID, lineID).Delete(&model.BudgetItem{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	res = db.Where("budget_id = ? AND id = ?", budgetID, lineID).Delete(&model.BudgetUPA{})
	return res.RowsAffected > 0, res.Error
}

func (r *BudgetRepository) FindAssociation(ctx context.Context, budgetID, projectID uuid.UUID) (*model.BudgetProject, error) {
	var link model.BudgetProject
	if err := r.db.WithContext(ctx).
		Where("budget_id = ? AND project_id = ?", budgetID, projectID).
		First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *BudgetRepository) CreateAssociation(ctx context.Context, link *model.BudgetProject) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *BudgetRepository) DeleteAssociation(ctx context.Context, budgetID, projectID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("budget_id = ? AND project_id = ?", budgetID, projectID).
		Delete(&model.BudgetProject{})
	return res.RowsAffected > 0, res.Error
}

func (r *BudgetRepository) ProjectIDs(ctx context.Context, budgetID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if err := r.db.WithContext(ctx).
		Model(&model.BudgetProject{}).
		Where("budget_id = ?", budgetID).
		Pluck("project_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *BudgetRepository) CountItemReferences(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.BudgetItem{}).
		Where("item_id = ?", itemID).
		Count(&count).Error
	return count, err
}

func (r *BudgetRepository) CountUPAReferences(ctx context.Context, upaID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.BudgetUPA{}).
		Where("upa_id = ?", upaID).
		Count(&count).Error
	return count, err
}
