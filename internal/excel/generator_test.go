package excel

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/budget-service/internal/model"
)

func TestGenerateBudgetWorkbook(t *testing.T) {
	upa := model.UnitPriceAnalysis{
		ID:         uuid.New(),
		Title:      "Wall: brick/mortar",
		Unit:       "m2",
		TotalPrice: decimal.RequireFromString("40"),
		Lines: []model.UPALine{
			{Kind: model.ComponentKindMaterial, Name: "Brick", Unit: "u", Quantity: decimal.NewFromInt(50),
				UnitPrice: decimal.RequireFromString("0.4"), TotalPrice: decimal.NewFromInt(20)},
			{Kind: model.ComponentKindLabor, Name: "Mason", Unit: "h", Quantity: decimal.NewFromInt(1),
				UnitPrice: decimal.NewFromInt(20), TotalPrice: decimal.NewFromInt(20)},
		},
	}
	budget := model.Budget{
		ID:    uuid.New(),
		Title: "House",
		Items: []model.BudgetItem{{Name: "Cement", Unit: "bag", Quantity: decimal.NewFromInt(2),
			UnitPrice: decimal.RequireFromString("7.5"), TotalPrice: decimal.NewFromInt(15)}},
		UPAs: []model.BudgetUPA{{UPAID: upa.ID, Title: upa.Title, Unit: "m2", Quantity: decimal.NewFromInt(3),
			UnitPrice: decimal.NewFromInt(40), TotalPrice: decimal.NewFromInt(120)}},
	}
	budget.ComputeTotal()

	content, err := NewGenerator().Generate(model.BudgetDocument{
		Budget:       budget,
		Organization: model.Organization{Name: "Acme"},
		Projects:     []model.Project{{Name: "Villa"}, {Name: "Annex"}},
		UPAs:         []model.UnitPriceAnalysis{upa},
	})
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{"Summary", "Wall- brick-mortar"}, file.GetSheetList())

	value, err := file.GetCellValue("Summary", "B4")
	require.NoError(t, err)
	assert.Equal(t, "Villa, Annex", value)
	value, err = file.GetCellValue("Summary", "B6")
	require.NoError(t, err)
	assert.Equal(t, "135.00", value)
	value, err = file.GetCellValue("Summary", "B9")
	require.NoError(t, err)
	assert.Equal(t, "Cement", value)

	rows, err := file.GetRows("Wall- brick-mortar")
	require.NoError(t, err)
	var labels []string
	for _, row := range rows {
		if len(row) > 0 && row[0] != "" {
			labels = append(labels, row[0])
		}
	}
	assert.Contains(t, labels, "Materials")
	assert.Contains(t, labels, "Labor")
	assert.NotContains(t, labels, "Equipment")
}

func TestBuildSheetName(t *testing.T) {
	used := map[string]struct{}{"Summary": {}}
	id := uuid.New()

	first := buildSheetName(strings.Repeat("x", 40), id, used)
	assert.Len(t, first, sheetNameLimit)
	used[first] = struct{}{}

	second := buildSheetName(strings.Repeat("x", 40), id, used)
	assert.Len(t, second, sheetNameLimit)
	assert.True(t, strings.HasSuffix(second, "-2"))

	assert.Equal(t, "Summary-2", buildSheetName("Summary", id, used))
	assert.Equal(t, "UPA", sanitizeSheetName("   "))
}
