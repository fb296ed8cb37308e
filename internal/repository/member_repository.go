package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/budget-service/internal/model"
)

type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) Create(ctx context.Context, member *model.OrganizationMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *MemberRepository) Get(ctx context.Context, orgID, userID uuid.UUID) (*model.OrganizationMember, error) {
	var member model.OrganizationMember
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepository) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]model.OrganizationMember, error) {
	members := []model.OrganizationMember{}
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// Memberships returns every organization the user belongs to together with
// the role held there.
func (r *MemberRepository) Memberships(ctx context.Context, userID uuid.UUID) ([]model.Membership, error) {
	memberships := []model.Membership{}
	if err := r.db.WithContext(ctx).
		Model(&model.OrganizationMember{}).
		Select("organization_id, role").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Scan(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *MemberRepository) UpdateRole(ctx context.Context, orgID, userID uuid.UUID, role model.Role) error {
	return r.db.WithContext(ctx).
		Model(&model.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Update("role", role).Error
}

func (r *MemberRepository) Delete(ctx context.Context, orgID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Delete(&model.OrganizationMember{}).Error
}

func (r *MemberRepository) CountAdmins(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.OrganizationMember{}).
		Where("organization_id = ? AND role = ?", orgID, model.RoleAdmin).
		Count(&count).Error
	return count, err
}
