package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// Store groups the repositories that share one connection or transaction.
type Store struct {
	db *gorm.DB

	Organizations *OrganizationRepository
	Members       *MemberRepository
	Components    *ComponentRepository
	UPAs          *UPARepository
	Projects      *ProjectRepository
	Budgets       *BudgetRepository
	Items         *ItemRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Organizations: NewOrganizationRepository(db),
		Members:       NewMemberRepository(db),
		Components:    NewComponentRepository(db),
		UPAs:          NewUPARepository(db),
		Projects:      NewProjectRepository(db),
		Budgets:       NewBudgetRepository(db),
		Items:         NewItemRepository(db),
	}
}

// InTx runs fn against a Store bound to a single transaction. Any error
// returned by fn rolls the whole transaction back.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
