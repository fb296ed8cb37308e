package model

import "github.com/google/uuid"

type Membership struct {
	OrganizationID uuid.UUID `json:"organization_id"`
	Role           Role      `json:"role"`
}

// Principal is the authenticated caller of a request. It is built once by
// the auth middleware and handed to every service call.
type Principal struct {
	UserID               uuid.UUID    `json:"user_id"`
	ActiveOrganizationID uuid.UUID    `json:"active_organization_id"`
	Memberships          []Membership `json:"memberships"`
}

func (p Principal) RoleIn(orgID uuid.UUID) (Role, bool) {
	for _, m := range p.Memberships {
		if m.OrganizationID == orgID {
			return m.Role, true
		}
	}
	return "", false
}

func (p Principal) IsMember(orgID uuid.UUID) bool {
	_, ok := p.RoleIn(orgID)
	return ok
}

func (p Principal) IsAdmin(orgID uuid.UUID) bool {
	role, ok := p.RoleIn(orgID)
	return ok && role == RoleAdmin
}

func (p Principal) CanEdit(orgID uuid.UUID) bool {
	role, ok := p.RoleIn(orgID)
	return ok && role.CanEdit()
}

func (p Principal) HasActiveOrganization() bool {
	return p.ActiveOrganizationID != uuid.Nil
}

func (p Principal) WithActiveOrganization(orgID uuid.UUID) Principal {
	p.ActiveOrganizationID = orgID
	return p
}
