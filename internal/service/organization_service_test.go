package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/budget-service/internal/model"
)

func TestOrganizationCreateMakesCallerAdmin(t *testing.T) {
	f := newFixture(t)
	caller := model.Principal{UserID: uuid.New()}

	org, err := f.orgs.Create(f.ctx, caller, CreateOrganizationInput{Name: "  Acme Build ", Type: model.OrganizationTypeContractor})
	require.NoError(t, err)
	assert.Equal(t, "Acme Build", org.Name)

	member, err := f.store.Members.Get(f.ctx, org.ID, caller.UserID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, member.Role)

	_, err = f.orgs.Create(f.ctx, caller, CreateOrganizationInput{Name: "Bad", Type: "FACTORY"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestOrganizationTypeChangeBlockedByDependents(t *testing.T) {
	f := newFixture(t)
	org := f.organization(t, model.OrganizationTypeContractor)
	admin := f.principal(t, org.ID, model.RoleAdmin)

	_, err := f.projects.Create(f.ctx, admin, CreateProjectInput{Name: "Tower"})
	require.NoError(t, err)

	store := model.OrganizationTypeStore
	_, err = f.orgs.Update(f.ctx, admin, org.ID, UpdateOrganizationInput{Type: &store})
	require.ErrorIs(t, err, ErrConflict)

	unchanged, err := f.orgs.Get(f.ctx, admin, org.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrganizationTypeContractor, unchanged.Type)

	empty := f.organization(t, model.OrganizationTypeContractor)
	emptyAdmin := f.principal(t, empty.ID, model.RoleAdmin)
	switched, err := f.orgs.Update(f.ctx, emptyAdmin, empty.ID, UpdateOrganizationInput{Type: &store})
	require.NoError(t, err)
	assert.Equal(t, model.OrganizationTypeStore, switched.Type)
}

func TestOrganizationUpdateRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	org := f.organization(t, model.OrganizationTypeContractor)
	member := f.principal(t, org.ID, model.RoleMember)

	name := "Renamed"
	_, err := f.orgs.Update(f.ctx, member, org.ID, UpdateOrganizationInput{Name: &name})
	require.ErrorIs(t, err, ErrPermissionDenied)

	outsider := f.principal(t, f.organization(t, model.OrganizationTypeStore).ID, model.RoleAdmin)
	_, err = f.orgs.Get(f.ctx, outsider, org.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestOrganizationMembership(t *testing.T) {
	f := newFixture(t)
	org := f.organization(t, model.OrganizationTypeContractor)
	admin := f.principal(t, org.ID, model.RoleAdmin)
	newcomer := uuid.New()

	member, err := f.orgs.AddMember(f.ctx, admin, org.ID, AddMemberInput{UserID: newcomer, Role: model.RoleViewer})
	require.NoError(t, err)
	assert.Equal(t, model.RoleViewer, member.Role)

	_, err = f.orgs.AddMember(f.ctx, admin, org.ID, AddMemberInput{UserID: newcomer, Role: model.RoleMember})
	require.ErrorIs(t, err, ErrConflict)

	_, err = f.orgs.AddMember(f.ctx, admin, org.ID, AddMemberInput{UserID: uuid.New(), Role: "OWNER"})
	require.ErrorIs(t, err, ErrInvalidInput)

	promoted, err := f.orgs.UpdateMemberRole(f.ctx, admin, org.ID, newcomer, model.RoleMember)
	require.NoError(t, err)
	assert.Equal(t, model.RoleMember, promoted.Role)

	members, err := f.orgs.ListMembers(f.ctx, admin, org.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	require.NoError(t, f.orgs.RemoveMember(f.ctx, admin, org.ID, newcomer))
	require.ErrorIs(t, f.orgs.RemoveMember(f.ctx, admin, org.ID, newcomer), ErrNotFound)
}

func TestOrganizationKeepsLastAdmin(t *testing.T) {
	f := newFixture(t)
	org := f.organization(t, model.OrganizationTypeContractor)
	admin := f.principal(t, org.ID, model.RoleAdmin)

	_, err := f.orgs.UpdateMemberRole(f.ctx, admin, org.ID, admin.UserID, model.RoleMember)
	require.ErrorIs(t, err, ErrConflict)
	require.ErrorIs(t, f.orgs.RemoveMember(f.ctx, admin, org.ID, admin.UserID), ErrConflict)

	second := f.principal(t, org.ID, model.RoleAdmin)
	require.NoError(t, f.orgs.RemoveMember(f.ctx, second, org.ID, second.UserID))
}

func TestOrganizationListOnlyMemberships(t *testing.T) {
	f := newFixture(t)
	first := f.organization(t, model.OrganizationTypeContractor)
	second := f.organization(t, model.OrganizationTypeStore)
	f.organization(t, model.OrganizationTypeStore)

	caller := f.principal(t, first.ID, model.RoleViewer)
	caller = f.join(t, caller, second.ID, model.RoleMember)

	orgs, err := f.orgs.List(f.ctx, caller)
	require.NoError(t, err)
	ids := []uuid.UUID{}
	for _, org := range orgs {
		ids = append(ids, org.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids)
}

func TestOrganizationDeleteBlockedByForeignBudgetLines(t *testing.T) {
	f := newFixture(t)
	contractor := f.organization(t, model.OrganizationTypeContractor)
	builder := f.principal(t, contractor.ID, model.RoleAdmin)

	shop := f.organization(t, model.OrganizationTypeStore)
	shopAdmin := f.principal(t, shop.ID, model.RoleAdmin)
	item, err := f.items.Create(f.ctx, shopAdmin, CreateItemInput{Name: "Rebar", Unit: "m", Price: dec("2")})
	require.NoError(t, err)

	designer := f.organization(t, model.OrganizationTypeContractor)
	designerAdmin := f.principal(t, designer.ID, model.RoleAdmin)
	upa, err := f.upas.Create(f.ctx, designerAdmin, CreateUPAInput{
		Title:     "Column",
		Unit:      "u",
		IsPublic:  true,
		Materials: []UPALineInput{line("Concrete", "1", "50", nil)},
	})
	require.NoError(t, err)

	budget, err := f.budgets.Create(f.ctx, builder, CreateBudgetInput{Title: "Frame"})
	require.NoError(t, err)
	budget, err = f.budgets.AddItem(f.ctx, builder, budget.ID, AddBudgetItemInput{ItemID: item.ID, Quantity: *dec("10")})
	require.NoError(t, err)
	budget, err = f.budgets.AddUPA(f.ctx, builder, budget.ID, AddBudgetUPAInput{UPAID: upa.ID, Quantity: *dec("2")})
	require.NoError(t, err)

	tests := []struct {
		name   string
		caller model.Principal
		orgID  uuid.UUID
	}{
		{name: "store with priced item", caller: shopAdmin, orgID: shop.ID},
		{name: "contractor with public UPA", caller: designerAdmin, orgID: designer.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.orgs.Delete(f.ctx, tt.caller, tt.orgID)
			require.ErrorIs(t, err, ErrConflict)
			require.ErrorIs(t, err, ErrResourceInUse)
			_, err = f.store.Organizations.Get(f.ctx, tt.orgID)
			require.NoError(t, err)
		})
	}

	reloaded, err := f.budgets.Get(f.ctx, builder, budget.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	require.Len(t, reloaded.UPAs, 1)
	requireDecimal(t, "120", reloaded.Total)

	// A budget of the organization itself does not count as a foreign reference.
	own, err := f.budgets.Create(f.ctx, designerAdmin, CreateBudgetInput{Title: "Own"})
	require.NoError(t, err)
	_, err = f.budgets.AddUPA(f.ctx, designerAdmin, own.ID, AddBudgetUPAInput{UPAID: upa.ID, Quantity: *dec("1")})
	require.NoError(t, err)
	require.NoError(t, f.budgets.Delete(f.ctx, builder, budget.ID))

	require.NoError(t, f.orgs.Delete(f.ctx, shopAdmin, shop.ID))
	require.NoError(t, f.orgs.Delete(f.ctx, designerAdmin, designer.ID))
	_, err = f.store.Organizations.Get(f.ctx, designer.ID)
	require.Error(t, err)
}
