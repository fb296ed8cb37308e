package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/budget-service/internal/model"
)

type ComponentRepository struct {
	db *gorm.DB
}

func NewComponentRepository(db *gorm.DB) *ComponentRepository {
	return &ComponentRepository{db: db}
}

type ComponentFilter struct {
	Kind model.ComponentKind
	// OrganizationID restricts to one owner; uuid.Nil means any owner.
	OrganizationID uuid.UUID
	IsPublic       *bool
	Search         string
}

func (r *ComponentRepository) Create(ctx context.Context, component *model.CatalogComponent) error {
	return r.db.WithContext(ctx).Create(component).Error
}

func (r *ComponentRepository) Get(ctx context.Context, id uuid.UUID) (*model.CatalogComponent, error) {
	var component model.CatalogComponent
	if err := r.db.WithContext(ctx).First(&component, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &component, nil
}

func (r *ComponentRepository) List(ctx context.Context, filter ComponentFilter) ([]model.CatalogComponent, error) {
	query := r.db.WithContext(ctx).Where("kind = ?", filter.Kind)
	if filter.OrganizationID != uuid.Nil {
		query = query.Where("organization_id = ?", filter.OrganizationID)
	}
	if filter.IsPublic != nil {
		query = query.Where("is_public = ?", *filter.IsPublic)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(code) LIKE ?)", pattern, pattern)
	}

	components := []model.CatalogComponent{}
	if err := query.Order("name ASC").Find(&components).Error; err != nil {
		return nil, err
	}
	return components, nil
}

func (r *ComponentRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.CatalogComponent{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *ComponentRepository) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error {
	return r.Update(ctx, id, map[string]interface{}{"unit_price": price})
}

func (r *ComponentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.CatalogComponent{}).Error
}

// UsageCount counts the UPA lines priced from the component.
func (r *ComponentRepository) UsageCount(ctx context.Context, kind model.ComponentKind, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.UPALine{}).
		Where("kind = ? AND component_id = ?", kind, id).
		Count(&count).Error
	return count, err
}

func (r *ComponentRepository) UsageCounts(ctx context.Context, kind model.ComponentKind, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	result := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var rows []struct {
		ComponentID uuid.UUID
		Total       int64
	}
	if err := r.db.WithContext(ctx).
		Model(&model.UPALine{}).
		Select("component_id, COUNT(*) AS total").
		Where("kind = ? AND component_id IN ?", kind, ids).
		Group("component_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ComponentID] = row.Total
	}
	return result, nil
}
