package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/budget-service/internal/model"
)

func TestUpdatesRejectBlankRequiredText(t *testing.T) {
	f := newFixture(t)
	s := newBudgetSetup(t, f)

	cement := f.component(t, s.editor, model.ComponentKindMaterial, "Cement", "10")
	budget, err := f.budgets.Create(f.ctx, s.editor, CreateBudgetInput{Title: "Phase 1"})
	require.NoError(t, err)

	members, err := f.store.Members.ListByOrganization(f.ctx, s.item.OrganizationID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	seller := model.Principal{
		UserID:               members[0].UserID,
		ActiveOrganizationID: s.item.OrganizationID,
		Memberships:          []model.Membership{{OrganizationID: s.item.OrganizationID, Role: members[0].Role}},
	}

	blank := "   "
	tests := []struct {
		name   string
		update func() error
		stored func() string
		want   string
	}{
		{
			name: "component name",
			update: func() error {
				_, err := f.catalog.Update(f.ctx, s.editor, model.ComponentKindMaterial, cement.ID, ComponentPatch{Name: &blank})
				return err
			},
			stored: func() string {
				c, err := f.catalog.Get(f.ctx, s.editor, model.ComponentKindMaterial, cement.ID)
				require.NoError(t, err)
				return c.Name
			},
			want: "Cement",
		},
		{
			name: "component unit",
			update: func() error {
				_, err := f.catalog.Update(f.ctx, s.editor, model.ComponentKindMaterial, cement.ID, ComponentPatch{Unit: &blank})
				return err
			},
			stored: func() string {
				c, err := f.catalog.Get(f.ctx, s.editor, model.ComponentKindMaterial, cement.ID)
				require.NoError(t, err)
				return c.Unit
			},
			want: "u",
		},
		{
			name: "upa title",
			update: func() error {
				_, err := f.upas.Update(f.ctx, s.editor, s.upa.ID, UpdateUPAInput{Title: &blank})
				return err
			},
			stored: func() string {
				upa, err := f.upas.Get(f.ctx, s.editor, s.upa.ID)
				require.NoError(t, err)
				return upa.Title
			},
			want: "Wall",
		},
		{
			name: "upa unit",
			update: func() error {
				_, err := f.upas.Update(f.ctx, s.editor, s.upa.ID, UpdateUPAInput{Unit: &blank})
				return err
			},
			stored: func() string {
				upa, err := f.upas.Get(f.ctx, s.editor, s.upa.ID)
				require.NoError(t, err)
				return upa.Unit
			},
			want: "m2",
		},
		{
			name: "item name",
			update: func() error {
				_, err := f.items.Update(f.ctx, seller, s.item.ID, UpdateItemInput{Name: &blank})
				return err
			},
			stored: func() string {
				item, err := f.items.Get(f.ctx, s.item.ID)
				require.NoError(t, err)
				return item.Name
			},
			want: "Cement bag",
		},
		{
			name: "item unit",
			update: func() error {
				_, err := f.items.Update(f.ctx, seller, s.item.ID, UpdateItemInput{Unit: &blank})
				return err
			},
			stored: func() string {
				item, err := f.items.Get(f.ctx, s.item.ID)
				require.NoError(t, err)
				return item.Unit
			},
			want: "bag",
		},
		{
			name: "budget title",
			update: func() error {
				_, err := f.budgets.Update(f.ctx, s.editor, budget.ID, UpdateBudgetInput{Title: &blank})
				return err
			},
			stored: func() string {
				b, err := f.budgets.Get(f.ctx, s.editor, budget.ID)
				require.NoError(t, err)
				return b.Title
			},
			want: "Phase 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.update(), ErrInvalidInput)
			assert.Equal(t, tt.want, tt.stored())
		})
	}
	assert.Equal(t, "   ", blank)
}

func TestUpdatesTrimPatchedText(t *testing.T) {
	f := newFixture(t)
	s := newBudgetSetup(t, f)

	title := "  Outer wall  "
	upa, err := f.upas.Update(f.ctx, s.editor, s.upa.ID, UpdateUPAInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Outer wall", upa.Title)

	name := " Lime "
	cement := f.component(t, s.editor, model.ComponentKindMaterial, "Cement", "10")
	result, err := f.catalog.Update(f.ctx, s.editor, model.ComponentKindMaterial, cement.ID, ComponentPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Lime", result.Component.Name)
}

func TestQuantitiesBelowStoredPrecisionAreRejected(t *testing.T) {
	f := newFixture(t)
	s := newBudgetSetup(t, f)

	_, err := f.upas.Create(f.ctx, s.editor, CreateUPAInput{
		Title:     "Speck",
		Unit:      "u",
		Materials: []UPALineInput{line("Dust", "0.00001", "5", nil)},
	})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.upas.Update(f.ctx, s.editor, s.upa.ID, UpdateUPAInput{
		Labor: &[]UPALineInput{line("Mason", "0.00004", "20", nil)},
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	upa, err := f.upas.Get(f.ctx, s.editor, s.upa.ID)
	require.NoError(t, err)
	requireDecimal(t, "40", upa.TotalPrice)

	budget, err := f.budgets.Create(f.ctx, s.editor, CreateBudgetInput{Title: "Phase 1"})
	require.NoError(t, err)
	_, err = f.budgets.AddItem(f.ctx, s.editor, budget.ID, AddBudgetItemInput{ItemID: s.item.ID, Quantity: *dec("0.00001")})
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.budgets.AddUPA(f.ctx, s.editor, budget.ID, AddBudgetUPAInput{UPAID: s.upa.ID, Quantity: *dec("0.00004")})
	require.ErrorIs(t, err, ErrInvalidInput)

	budget, err = f.budgets.AddItem(f.ctx, s.editor, budget.ID, AddBudgetItemInput{ItemID: s.item.ID, Quantity: *dec("0.00005")})
	require.NoError(t, err)
	require.Len(t, budget.Items, 1)
	requireDecimal(t, "0.0001", budget.Items[0].Quantity)
	assert.Empty(t, budget.UPAs)
}
