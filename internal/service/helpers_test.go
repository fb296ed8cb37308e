package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/budget-service/internal/db/dbtest"
	"github.com/nurpe/budget-service/internal/model"
	"github.com/nurpe/budget-service/internal/repository"
)

type fixture struct {
	ctx   context.Context
	store *repository.Store

	orgs     *OrganizationService
	catalog  *CatalogService
	upas     *UPAService
	projects *ProjectService
	items    *ItemService
	budgets  *BudgetService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewStore(dbtest.New(t))
	log := zerolog.Nop()
	return &fixture{
		ctx:      context.Background(),
		store:    store,
		orgs:     NewOrganizationService(store),
		catalog:  NewCatalogService(store, log),
		upas:     NewUPAService(store),
		projects: NewProjectService(store),
		items:    NewItemService(store),
		budgets:  NewBudgetService(store, log),
	}
}

func (f *fixture) organization(t *testing.T, orgType model.OrganizationType) model.Organization {
	t.Helper()
	org := model.Organization{Name: "Org " + uuid.NewString()[:8], Type: orgType}
	require.NoError(t, f.store.Organizations.Create(f.ctx, &org))
	return org
}

// principal enrolls a fresh user in orgID with role and returns the caller
// scoped to that organization.
func (f *fixture) principal(t *testing.T, orgID uuid.UUID, role model.Role) model.Principal {
	t.Helper()
	userID := uuid.New()
	require.NoError(t, f.store.Members.Create(f.ctx, &model.OrganizationMember{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
	}))
	memberships, err := f.store.Members.Memberships(f.ctx, userID)
	require.NoError(t, err)
	return model.Principal{UserID: userID, ActiveOrganizationID: orgID, Memberships: memberships}
}

// join adds an existing caller to another organization.
func (f *fixture) join(t *testing.T, p model.Principal, orgID uuid.UUID, role model.Role) model.Principal {
	t.Helper()
	require.NoError(t, f.store.Members.Create(f.ctx, &model.OrganizationMember{
		UserID:         p.UserID,
		OrganizationID: orgID,
		Role:           role,
	}))
	memberships, err := f.store.Members.Memberships(f.ctx, p.UserID)
	require.NoError(t, err)
	p.Memberships = memberships
	return p
}

func (f *fixture) component(t *testing.T, p model.Principal, kind model.ComponentKind, name, price string) *model.CatalogComponent {
	t.Helper()
	component, err := f.catalog.Create(f.ctx, p, kind, ComponentInput{
		Name:      name,
		Unit:      "u",
		UnitPrice: dec(price),
	})
	require.NoError(t, err)
	return component
}

func line(name, quantity, unitPrice string, componentID *uuid.UUID) UPALineInput {
	return UPALineInput{
		ComponentID: componentID,
		Name:        name,
		Quantity:    decimal.RequireFromString(quantity),
		Unit:        "u",
		UnitPrice:   decimal.RequireFromString(unitPrice),
	}
}

func dec(value string) *decimal.Decimal {
	d := decimal.RequireFromString(value)
	return &d
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

// requireSumInvariant checks that the stored total is the sum of line totals
// and every line total is quantity × unit price.
func requireSumInvariant(t *testing.T, upa *model.UnitPriceAnalysis) {
	t.Helper()
	sum := decimal.Zero
	for _, l := range upa.Lines {
		require.Truef(t, l.Quantity.Mul(l.UnitPrice).Equal(l.TotalPrice), "line %s total %s", l.Name, l.TotalPrice)
		sum = sum.Add(l.TotalPrice)
	}
	require.Truef(t, sum.Equal(upa.TotalPrice), "upa total %s, lines sum %s", upa.TotalPrice, sum)
}
