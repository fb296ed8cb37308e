package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/budget-service/internal/model"
)

type budgetSetup struct {
	contractor model.Organization
	editor     model.Principal
	project    *model.Project
	item       *model.Item
	upa        *model.UnitPriceAnalysis
}

func newBudgetSetup(t *testing.T, f *fixture) budgetSetup {
	t.Helper()
	contractor := f.organization(t, model.OrganizationTypeContractor)
	editor := f.principal(t, contractor.ID, model.RoleAdmin)

	shop := f.organization(t, model.OrganizationTypeStore)
	seller := f.principal(t, shop.ID, model.RoleMember)
	item, err := f.items.Create(f.ctx, seller, CreateItemInput{Name: "Cement bag", Unit: "bag", Price: dec("7.5")})
	require.NoError(t, err)

	upa, err := f.upas.Create(f.ctx, editor, CreateUPAInput{
		Title:     "Wall",
		Unit:      "m2",
		Materials: []UPALineInput{line("Brick", "50", "0.4", nil)},
		Labor:     []UPALineInput{line("Mason", "1", "20", nil)},
	})
	require.NoError(t, err)

	project, err := f.projects.Create(f.ctx, editor, CreateProjectInput{Name: "House"})
	require.NoError(t, err)

	return budgetSetup{contractor: contractor, editor: editor, project: project, item: item, upa: upa}
}

func TestBudgetLinesSnapshotPrices(t *testing.T) {
	f := newFixture(t)
	s := newBudgetSetup(t, f)

	budget, err := f.budgets.Create(f.ctx, s.editor, CreateBudgetInput{Title: "Phase 1"})
	require.NoError(t, err)

	budget, err = f.budgets.AddItem(f.ctx, s.editor, budget.ID, AddBudgetItemInput{ItemID: s.item.ID, Quantity: *dec("4")})
	require.NoError(t, err)
	budget, err = f.budgets.AddUPA(f.ctx, s.editor, budget.ID, AddBudgetUPAInput{UPAID: s.upa.ID, Quantity: *dec("10")})
	require.NoError(t, err)

	require.Len(t, budget.Items, 1)
	require.Len(t, budget.UPAs, 1)
	requireDecimal(t, "30", budget.Items[0].TotalPrice)
	requireDecimal(t, "40", budget.UPAs[0].UnitPrice)
	requireDecimal(t, "400", budget.UPAs[0].TotalPrice)
	requireDecimal(t, "430", budget.Total)

	// Later catalog changes do not reach existing budget lines.
	_, err = f.upas.Update(f.ctx, s.editor, s.upa.ID, UpdateUPAInput{Labor: &[]UPALineInput{line("Mason", "1", "30", nil)}})
	require.NoError(t, err)
	budget, err = f.budgets.Get(f.ctx, s.editor, budget.ID)
	require.NoError(t, err)
	requireDecimal(t, "40", budget.UPAs[0].UnitPrice)

	_, err = f.budgets.AddItem(f.ctx, s.editor, budget.ID, AddBudgetItemInput{ItemID: s.item.ID, Quantity: *dec("0")})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestBudgetApplyIsIdempotent(t *testing.T) {
	f := newFixture(t)
	s := newBudgetSetup(t, f)

	budget, err := f.budgets.Create(f.ctx, s.editor, CreateBudgetInput{Title: "Direct"})
	require.NoError(t, err)

	first, err := f.budgets.ApplyToProject(f.ctx, s.editor, budget.ID, ApplyBudgetInput{ProjectID: s.project.ID})
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, budget.ID, first.Budget.ID)

	second, err := f.budgets.ApplyToProject(f.ctx, s.editor, budget.ID, ApplyBudgetInput{ProjectID: s.project.ID})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Association.ID, second.Association.ID)

	linked, err := f.projects.ListBudgets(f.ctx, s.editor, s.project.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)

	require.NoError(t, f.budgets.Detach(f.ctx, s.editor, budget.ID, s.project.ID))
	require.ErrorIs(t, f.budgets.Detach(f.ctx, s.editor, budget.ID, s.project.ID), ErrNotFound)
}

func TestBudgetApplyTemplateAsCopy(t *testing.T) {
	f := newFixture(t)
	s := newBudgetSetup(t, f)

	template, err := f.budgets.Create(f.ctx, s.editor, CreateBudgetInput{Title: "Standard house", IsTemplate: true})
	require.NoError(t, err)
	_, err = f.budgets.AddItem(f.ctx, s.editor, template.ID, AddBudgetItemInput{ItemID: s.item.ID, Quantity: *dec("2")})
	require.NoError(t, err)
	_, err = f.budgets.AddUPA(f.ctx, s.editor, template.ID, AddBudgetUPAInput{UPAID: s.upa.ID, Quantity: *dec("3")})
	require.NoError(t, err)

	_, err = f.budgets.ApplyToProject(f.ctx, s.editor, template.ID, ApplyBudgetInput{ProjectID: s.project.ID})
	require.ErrorIs(t, err, ErrInvalidInput)

	result, err := f.budgets.ApplyToProject(f.ctx, s.editor, template.ID, ApplyBudgetInput{ProjectID: s.project.ID, CreateCopy: true})
	require.NoError(t, err)
	require.True(t, result.Created)

	clone := result.Budget
	assert.NotEqual(t, template.ID, clone.ID)
	assert.False(t, clone.IsTemplate)
	require.NotNil(t, clone.SourceBudgetID)
	assert.Equal(t, template.ID, *clone.SourceBudgetID)
	require.Len(t, clone.Items, 1)
	require.Len(t, clone.UPAs, 1)
	assert.Equal(t, clone.ID, clone.Items[0].BudgetID)
	requireDecimal(t, "135", clone.Total)

	source, err := f.budgets.Get(f.ctx, s.editor, template.ID)
	require.NoError(t, err)
	assert.True(t, source.IsTemplate)
	assert.Len(t, source.Items, 1)

	linked, err := f.projects.ListBudgets(f.ctx, s.editor, s.project.ID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, clone.ID, linked[0].ID)
}

func TestBudgetTemplateFlagLockedWhileLinked(t *testing.T) {
	f := newFixture(t)
	s := newBudgetSetup(t, f)

	budget, err := f.budgets.Create(f.ctx, s.editor, CreateBudgetInput{Title: "Linked"})
	require.NoError(t, err)
	_, err = f.budgets.ApplyToProject(f.ctx, s.editor, budget.ID, ApplyBudgetInput{ProjectID: s.project.ID})
	require.NoError(t, err)

	yes := true
	_, err = f.budgets.Update(f.ctx, s.editor, budget.ID, UpdateBudgetInput{IsTemplate: &yes})
	require.ErrorIs(t, err, ErrConflict)
}

func TestBudgetViewerAccess(t *testing.T) {
	f := newFixture(t)
	s := newBudgetSetup(t, f)
	viewer := f.principal(t, s.contractor.ID, model.RoleViewer)

	budget, err := f.budgets.Create(f.ctx, s.editor, CreateBudgetInput{Title: "Shared"})
	require.NoError(t, err)

	_, err = f.budgets.Get(f.ctx, viewer, budget.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)
	_, err = f.budgets.List(f.ctx, viewer, BudgetFilter{})
	require.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.budgets.ApplyToProject(f.ctx, s.editor, budget.ID, ApplyBudgetInput{ProjectID: s.project.ID})
	require.NoError(t, err)
	_, err = f.projects.AddViewer(f.ctx, s.editor, s.project.ID, viewer.UserID)
	require.NoError(t, err)

	got, err := f.budgets.Get(f.ctx, viewer, budget.ID)
	require.NoError(t, err)
	assert.Equal(t, budget.ID, got.ID)

	title := "Mine now"
	_, err = f.budgets.Update(f.ctx, viewer, budget.ID, UpdateBudgetInput{Title: &title})
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestBudgetRequiresContractor(t *testing.T) {
	f := newFixture(t)
	shop := f.organization(t, model.OrganizationTypeStore)
	seller := f.principal(t, shop.ID, model.RoleAdmin)

	_, err := f.budgets.Create(f.ctx, seller, CreateBudgetInput{Title: "Nope"})
	require.Error(t, err)

	items, err := f.items.List(f.ctx, ItemFilter{OrganizationID: shop.ID})
	require.NoError(t, err)
	assert.Empty(t, items)
}
