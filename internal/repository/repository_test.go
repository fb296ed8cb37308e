package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/budget-service/internal/db/dbtest"
	"github.com/nurpe/budget-service/internal/model"
)

func newTestStore(t *testing.T) (*Store, model.Organization) {
	t.Helper()
	store := NewStore(dbtest.New(t))
	org := model.Organization{Name: "Acme", Type: model.OrganizationTypeContractor}
	require.NoError(t, store.Organizations.Create(context.Background(), &org))
	return store, org
}

func TestComponentUsageCounts(t *testing.T) {
	ctx := context.Background()
	store, org := newTestStore(t)

	cement := model.CatalogComponent{Kind: model.ComponentKindMaterial, OrganizationID: org.ID, Name: "Cement", Unit: "bag", UnitPrice: decimal.NewFromInt(10)}
	sand := model.CatalogComponent{Kind: model.ComponentKindMaterial, OrganizationID: org.ID, Name: "Sand", Unit: "m3", UnitPrice: decimal.NewFromInt(5)}
	require.NoError(t, store.Components.Create(ctx, &cement))
	require.NoError(t, store.Components.Create(ctx, &sand))

	for i := 0; i < 2; i++ {
		upa := model.UnitPriceAnalysis{OrganizationID: org.ID, Title: "Slab", Unit: "m2", TotalPrice: decimal.NewFromInt(20)}
		lines := []model.UPALine{{
			Kind: model.ComponentKindMaterial, Name: "Cement", Unit: "bag",
			Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(10), TotalPrice: decimal.NewFromInt(20),
			ComponentID: &cement.ID,
		}}
		require.NoError(t, store.UPAs.Create(ctx, &upa, lines))
	}

	counts, err := store.Components.UsageCounts(ctx, model.ComponentKindMaterial, []uuid.UUID{cement.ID, sand.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[cement.ID])
	assert.Equal(t, int64(0), counts[sand.ID])

	count, err := store.Components.UsageCount(ctx, model.ComponentKindLabor, cement.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	lines, err := store.UPAs.LinesByComponent(ctx, model.ComponentKindMaterial, cement.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestComponentSearchMatchesNameOrCode(t *testing.T) {
	ctx := context.Background()
	store, org := newTestStore(t)
	code := "CEM-01"
	entries := []model.CatalogComponent{
		{Kind: model.ComponentKindMaterial, OrganizationID: org.ID, Name: "Portland", Code: &code, Unit: "bag", UnitPrice: decimal.NewFromInt(1)},
		{Kind: model.ComponentKindMaterial, OrganizationID: org.ID, Name: "Cement mix", Unit: "bag", UnitPrice: decimal.NewFromInt(1), IsPublic: true},
		{Kind: model.ComponentKindMaterial, OrganizationID: org.ID, Name: "Gravel", Unit: "m3", UnitPrice: decimal.NewFromInt(1), IsPublic: true},
	}
	for i := range entries {
		require.NoError(t, store.Components.Create(ctx, &entries[i]))
	}

	found, err := store.Components.List(ctx, ComponentFilter{Kind: model.ComponentKindMaterial, Search: "cem"})
	require.NoError(t, err)
	assert.Len(t, found, 2)

	public := true
	found, err = store.Components.List(ctx, ComponentFilter{Kind: model.ComponentKindMaterial, Search: "cem", IsPublic: &public})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Cement mix", found[0].Name)
}

func TestInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store, org := newTestStore(t)

	err := store.InTx(ctx, func(tx *Store) error {
		if err := tx.Organizations.Update(ctx, org.ID, map[string]interface{}{"name": "Renamed"}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	reloaded, err := store.Organizations.Get(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", reloaded.Name)
}
