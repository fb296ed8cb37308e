package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/budget-service/internal/model"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// OrganizationDependents counts the records that pin an organization's type.
type OrganizationDependents struct {
	Projects   int64
	Budgets    int64
	UPAs       int64
	Components int64
	Items      int64
}

func (r *OrganizationRepository) Create(ctx context.Context, org *model.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *OrganizationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Organization, error) {
	orgs := []model.Organization{}
	if len(ids) == 0 {
		return orgs, nil
	}
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("name ASC").
		Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

func (r *OrganizationRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Organization{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *OrganizationRepository) Dependents(ctx context.Context, id uuid.UUID) (OrganizationDependents, error) {
	var deps OrganizationDependents
	db := r.db.WithContext(ctx)
	counts := []struct {
		model  interface{}
		target *int64
	}{
		{&model.Project{}, &deps.Projects},
		{&model.Budget{}, &deps.Budgets},
		{&model.UnitPriceAnalysis{}, &deps.UPAs},
		{&model.CatalogComponent{}, &deps.Components},
		{&model.Item{}, &deps.Items},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where("organization_id = ?", id).Count(c.target).Error; err != nil {
			return deps, err
		}
	}
	return deps, nil
}

// ExternalReferences counts budget lines of other organizations that point at
// the organization's items or UPAs.
func (r *OrganizationRepository) ExternalReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	db := r.db.WithContext(ctx)
	budgets := db.Model(&model.Budget{}).Select("id").Where("organization_id = ?", id)
	items := db.Model(&model.Item{}).Select("id").Where("organization_id = ?", id)
	upas := db.Model(&model.UnitPriceAnalysis{}).Select("id").Where("organization_id = ?", id)

	var itemRefs, upaRefs int64
	if err := db.Model(&model.BudgetItem{}).
		Where("item_id IN (?) AND budget_id NOT IN (?)", items, budgets).
		Count(&itemRefs).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&model.BudgetUPA{}).
		Where("upa_id IN (?) AND budget_id NOT IN (?)", upas, budgets).
		Count(&upaRefs).Error; err != nil {
		return 0, err
	}
	return itemRefs + upaRefs, nil
}

// Delete removes the organization and everything it owns. Lines of other
// organizations that reference its public components keep their prices but
// lose the back-reference.
func (r *OrganizationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)

	budgets := db.Model(&model.Budget{}).Select("id").Where("organization_id = ?", id)
	projects := db.Model(&model.Project{}).Select("id").Where("organization_id = ?", id)
	upas := db.Model(&model.UnitPriceAnalysis{}).Select("id").Where("organization_id = ?", id)
	components := db.Model(&model.CatalogComponent{}).Select("id").Where("organization_id = ?", id)

	steps := []func() error{
		func() error {
			return db.Where("budget_id IN (?) OR project_id IN (?)", budgets, projects).
				Delete(&model.BudgetProject{}).Error
		},
		func() error { return db.Where("budget_id IN (?)", budgets).Delete(&model.BudgetItem{}).Error },
		func() error { return db.Where("budget_id IN (?)", budgets).Delete(&model.BudgetUPA{}).Error },
		func() error { return db.Where("organization_id = ?", id).Delete(&model.Budget{}).Error },
		func() error { return db.Where("project_id IN (?)", projects).Delete(&model.ProjectViewer{}).Error },
		func() error { return db.Where("organization_id = ?", id).Delete(&model.Project{}).Error },
		func() error { return db.Where("upa_id IN (?)", upas).Delete(&model.UPALine{}).Error },
		func() error { return db.Where("organization_id = ?", id).Delete(&model.UnitPriceAnalysis{}).Error },
		func() error {
			return db.Model(&model.UPALine{}).
				Where("component_id IN (?)", components).
				Update("component_id", nil).Error
		},
		func() error { return db.Where("organization_id = ?", id).Delete(&model.CatalogComponent{}).Error },
		func() error { return db.Where("organization_id = ?", id).Delete(&model.Item{}).Error },
		func() error { return db.Where("organization_id = ?", id).Delete(&model.OrganizationMember{}).Error },
		func() error { return db.Where("id = ?", id).Delete(&model.Organization{}).Error },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}
