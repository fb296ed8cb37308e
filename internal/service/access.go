package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nurpe/budget-service/internal/model"
	"github.com/nurpe/budget-service/internal/repository"
)

func requireMember(p model.Principal, orgID uuid.UUID) error {
	if !p.IsMember(orgID) {
		return fmt.Errorf("%w: not a member of the organization", ErrPermissionDenied)
	}
	return nil
}

func requireEditor(p model.Principal, orgID uuid.UUID) error {
	if !p.CanEdit(orgID) {
		return fmt.Errorf("%w: ADMIN or MEMBER role required", ErrPermissionDenied)
	}
	return nil
}

func requireAdmin(p model.Principal, orgID uuid.UUID) error {
	if !p.IsAdmin(orgID) {
		return fmt.Errorf("%w: ADMIN role required", ErrPermissionDenied)
	}
	return nil
}

// activeOrganization returns the organization the request is scoped to.
func activeOrganization(p model.Principal) (uuid.UUID, error) {
	if !p.HasActiveOrganization() {
		return uuid.Nil, fmt.Errorf("%w: no active organization", ErrInvalidInput)
	}
	if err := requireMember(p, p.ActiveOrganizationID); err != nil {
		return uuid.Nil, err
	}
	return p.ActiveOrganizationID, nil
}

func requireOrganizationType(ctx context.Context, store *repository.Store, orgID uuid.UUID, want model.OrganizationType) (*model.Organization, error) {
	org, err := store.Organizations.Get(ctx, orgID)
	if err != nil {
		return nil, notFound(err, "organization")
	}
	if org.Type != want {
		return nil, fmt.Errorf("%w: organization must be of type %s", ErrInvalidInput, want)
	}
	return org, nil
}

// canRead reports whether the caller may see a record owned by orgID that
// may have been published to everyone.
func canRead(p model.Principal, orgID uuid.UUID, isPublic bool) bool {
	return isPublic || p.IsMember(orgID)
}
