package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/budget-service/internal/model"
	"github.com/nurpe/budget-service/internal/repository"
)

type OrganizationService struct {
	store *repository.Store
}

func NewOrganizationService(store *repository.Store) *OrganizationService {
	return &OrganizationService{store: store}
}

type CreateOrganizationInput struct {
	Name string                 `json:"name" validate:"required,max=200"`
	Type model.OrganizationType `json:"type" validate:"required,oneof=CONTRACTOR STORE"`
}

type UpdateOrganizationInput struct {
	Name *string                 `json:"name" validate:"omitempty,min=1,max=200"`
	Type *model.OrganizationType `json:"type" validate:"omitempty,oneof=CONTRACTOR STORE"`
}

type AddMemberInput struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   model.Role `json:"role" validate:"required,oneof=ADMIN MEMBER VIEWER"`
}

// Create registers a new organization and makes the caller its ADMIN.
func (s *OrganizationService) Create(ctx context.Context, p model.Principal, input CreateOrganizationInput) (*model.Organization, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	org := &model.Organization{Name: input.Name, Type: input.Type}
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		if err := tx.Organizations.Create(ctx, org); err != nil {
			return err
		}
		return tx.Members.Create(ctx, &model.OrganizationMember{
			UserID:         p.UserID,
			OrganizationID: org.ID,
			Role:           model.RoleAdmin,
		})
	})
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (s *OrganizationService) Get(ctx context.Context, p model.Principal, id uuid.UUID) (*model.Organization, error) {
	if err := requireMember(p, id); err != nil {
		return nil, err
	}
	org, err := s.store.Organizations.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "organization")
	}
	return org, nil
}

// List returns the organizations the caller belongs to.
func (s *OrganizationService) List(ctx context.Context, p model.Principal) ([]model.Organization, error) {
	ids := make([]uuid.UUID, 0, len(p.Memberships))
	for _, m := range p.Memberships {
		ids = append(ids, m.OrganizationID)
	}
	return s.store.Organizations.ListByIDs(ctx, ids)
}

// Update renames the organization or switches its type. The type is pinned
// while records that only make sense for the current type exist.
func (s *OrganizationService) Update(ctx context.Context, p model.Principal, id uuid.UUID, input UpdateOrganizationInput) (*model.Organization, error) {
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if err := requireAdmin(p, id); err != nil {
		return nil, err
	}

	var updated *model.Organization
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		org, err := tx.Organizations.Get(ctx, id)
		if err != nil {
			return notFound(err, "organization")
		}

		fields := map[string]interface{}{}
		if input.Name != nil {
			fields["name"] = *input.Name
		}
		if input.Type != nil && *input.Type != org.Type {
			if err := checkTypeChange(ctx, tx, org, *input.Type); err != nil {
				return err
			}
			fields["type"] = *input.Type
		}
		if len(fields) > 0 {
			if err := tx.Organizations.Update(ctx, id, fields); err != nil {
				return err
			}
		}

		updated, err = tx.Organizations.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func checkTypeChange(ctx context.Context, tx *repository.Store, org *model.Organization, target model.OrganizationType) error {
	deps, err := tx.Organizations.Dependents(ctx, org.ID)
	if err != nil {
		return err
	}
	switch target {
	case model.OrganizationTypeStore:
		if deps.Projects > 0 {
			return fmt.Errorf("%w: cannot switch to STORE while the organization has projects", ErrConflict)
		}
		if deps.Budgets+deps.UPAs+deps.Components > 0 {
			return fmt.Errorf("%w: cannot switch to STORE while the organization has budgets, UPAs or catalog components", ErrConflict)
		}
	case model.OrganizationTypeContractor:
		if deps.Items > 0 {
			return fmt.Errorf("%w: cannot switch to CONTRACTOR while the organization has items", ErrConflict)
		}
	}
	return nil
}

// Delete removes the organization with everything it owns. It refuses while
// budgets of other organizations still price its items or UPAs.
func (s *OrganizationService) Delete(ctx context.Context, p model.Principal, id uuid.UUID) error {
	if err := requireAdmin(p, id); err != nil {
		return err
	}
	return s.store.InTx(ctx, func(tx *repository.Store) error {
		if _, err := tx.Organizations.Get(ctx, id); err != nil {
			return notFound(err, "organization")
		}
		refs, err := tx.Organizations.ExternalReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("%w: %d budget lines of other organizations reference this organization", ErrResourceInUse, refs)
		}
		return tx.Organizations.Delete(ctx, id)
	})
}

func (s *OrganizationService) ListMembers(ctx context.Context, p model.Principal, orgID uuid.UUID) ([]model.OrganizationMember, error) {
	if err := requireMember(p, orgID); err != nil {
		return nil, err
	}
	return s.store.Members.ListByOrganization(ctx, orgID)
}

func (s *OrganizationService) AddMember(ctx context.Context, p model.Principal, orgID uuid.UUID, input AddMemberInput) (*model.OrganizationMember, error) {
	if input.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if err := requireAdmin(p, orgID); err != nil {
		return nil, err
	}

	member := &model.OrganizationMember{
		UserID:         input.UserID,
		OrganizationID: orgID,
		Role:           input.Role,
	}
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		_, err := tx.Members.Get(ctx, orgID, input.UserID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: user is already a member", ErrConflict)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return tx.Members.Create(ctx, member)
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (s *OrganizationService) UpdateMemberRole(ctx context.Context, p model.Principal, orgID, userID uuid.UUID, role model.Role) (*model.OrganizationMember, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role must be one of ADMIN MEMBER VIEWER", ErrInvalidInput)
	}
	if err := requireAdmin(p, orgID); err != nil {
		return nil, err
	}

	var updated *model.OrganizationMember
	err := s.store.InTx(ctx, func(tx *repository.Store) error {
		member, err := tx.Members.Get(ctx, orgID, userID)
		if err != nil {
			return notFound(err, "member")
		}
		if member.Role == model.RoleAdmin && role != model.RoleAdmin {
			if err := ensureAnotherAdmin(ctx, tx, orgID); err != nil {
				return err
			}
		}
		if err := tx.Members.UpdateRole(ctx, orgID, userID, role); err != nil {
			return err
		}
		updated, err = tx.Members.Get(ctx, orgID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveMember is open to ADMINs and to members leaving on their own.
func (s *OrganizationService) RemoveMember(ctx context.Context, p model.Principal, orgID, userID uuid.UUID) error {
	if p.UserID != userID {
		if err := requireAdmin(p, orgID); err != nil {
			return err
		}
	} else if err := requireMember(p, orgID); err != nil {
		return err
	}

	return s.store.InTx(ctx, func(tx *repository.Store) error {
		member, err := tx.Members.Get(ctx, orgID, userID)
		if err != nil {
			return notFound(err, "member")
		}
		if member.Role == model.RoleAdmin {
			if err := ensureAnotherAdmin(ctx, tx, orgID); err != nil {
				return err
			}
		}
		if err := tx.Projects.RemoveViewerGrants(ctx, orgID, userID); err != nil {
			return err
		}
		return tx.Members.Delete(ctx, orgID, userID)
	})
}

func ensureAnotherAdmin(ctx context.Context, tx *repository.Store, orgID uuid.UUID) error {
	admins, err := tx.Members.CountAdmins(ctx, orgID)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return fmt.Errorf("%w: the organization must keep at least one ADMIN", ErrConflict)
	}
	return nil
}
