package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/budget-service/internal/model"
)

type UPARepository struct {
	db *gorm.DB
}

func NewUPARepository(db *gorm.DB) *UPARepository {
	return &UPARepository{db: db}
}

type UPAFilter struct {
	OrganizationID uuid.UUID
	IsPublic       *bool
	Search         string
}

// Create inserts the header and its lines. Call inside a transaction.
func (r *UPARepository) Create(ctx context.Context, upa *model.UnitPriceAnalysis, lines []model.UPALine) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(upa).Error; err != nil {
		return err
	}
	for i := range lines {
		lines[i].UPAID = upa.ID
	}
	return r.CreateLines(ctx, lines)
}

func (r *UPARepository) CreateLines(ctx context.Context, lines []model.UPALine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *UPARepository) Get(ctx context.Context, id uuid.UUID) (*model.UnitPriceAnalysis, error) {
	var upa model.UnitPriceAnalysis
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("kind ASC, position ASC")
		}).
		First(&upa, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &upa, nil
}

func (r *UPARepository) GetMany(ctx context.Context, ids []uuid.UUID) ([]model.UnitPriceAnalysis, error) {
	upas := []model.UnitPriceAnalysis{}
	if len(ids) == 0 {
		return upas, nil
	}
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("kind ASC, position ASC")
		}).
		Where("id IN ?", ids).
		Order("title ASC").
		Find(&upas).Error; err != nil {
		return nil, err
	}
	return upas, nil
}

func (r *UPARepository) List(ctx context.Context, filter UPAFilter) ([]model.UnitPriceAnalysis, error) {
	query := r.db.WithContext(ctx)
	if filter.OrganizationID != uuid.Nil {
		query = query.Where("organization_id = ?", filter.OrganizationID)
	}
	if filter.IsPublic != nil {
		query = query.Where("is_public = ?", *filter.IsPublic)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("(LOWER(title) LIKE ? OR LOWER(code) LIKE ?)", pattern, pattern)
	}

	upas := []model.UnitPriceAnalysis{}
	if err := query.Order("title ASC").Find(&upas).Error; err != nil {
		return nil, err
	}
	return upas, nil
}

// Touch bumps updated_at on the given UPAs in id order. Inside a transaction
// this takes the row locks that serialize concurrent recalculations.
func (r *UPARepository) Touch(ctx context.Context, ids []uuid.UUID) error {
	now := time.Now()
	for _, id := range ids {
		if err := r.db.WithContext(ctx).
			Model(&model.UnitPriceAnalysis{}).
			Where("id = ?", id).
			Update("updated_at", now).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *UPARepository) UpdateHeader(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.UnitPriceAnalysis{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *UPARepository) SetTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	return r.UpdateHeader(ctx, id, map[string]interface{}{"total_price": total})
}

func (r *UPARepository) Lines(ctx context.Context, upaID uuid.UUID) ([]model.UPALine, error) {
	lines := []model.UPALine{}
	if err := r.db.WithContext(ctx).
		Where("upa_id = ?", upaID).
		Order("kind ASC, position ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// LinesByComponent finds the lines of one category priced from a component.
func (r *UPARepository) LinesByComponent(ctx context.Context, kind model.ComponentKind, componentID uuid.UUID) ([]model.UPALine, error) {
	lines := []model.UPALine{}
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND component_id = ?", kind, componentID).
		Order("upa_id ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *UPARepository) UpdateLinePrice(ctx context.Context, lineID uuid.UUID, unitPrice, total decimal.Decimal) error {
	return r.db.WithContext(ctx).
		Model(&model.UPALine{}).
		Where("id = ?", lineID).
		Updates(map[string]interface{}{
			"unit_price":  unitPrice,
			"total_price": total,
		}).Error
}

func (r *UPARepository) DeleteLines(ctx context.Context, upaID uuid.UUID, kind model.ComponentKind) error {
	return r.db.WithContext(ctx).
		Where("upa_id = ? AND kind = ?", upaID, kind).
		Delete(&model.UPALine{}).Error
}

// Delete removes the UPA together with all of its lines.
func (r *UPARepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("upa_id = ?", id).Delete(&model.UPALine{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.UnitPriceAnalysis{}).Error
}
