package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/budget-service/internal/model"
)

func TestGenerateUPACostSheet(t *testing.T) {
	years := 10
	upa := model.UnitPriceAnalysis{
		Title:                 "Water pump station",
		Unit:                  "u",
		TotalPrice:            decimal.RequireFromString("1250.5"),
		HasAnnualMaintenance:  true,
		MaintenanceYears:      &years,
		AnnualMaintenanceRate: decimal.NewNullDecimal(decimal.RequireFromString("0.03")),
		UpdatedAt:             time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Lines: []model.UPALine{
			{Kind: model.ComponentKindEquipment, Name: "Pump", Unit: "u", Quantity: decimal.NewFromInt(1),
				UnitPrice: decimal.RequireFromString("1250.5"), TotalPrice: decimal.RequireFromString("1250.5")},
		},
	}

	content, err := NewGenerator().Generate(model.UPADocument{
		UPA:          upa,
		Organization: model.Organization{Name: "Hydro Works"},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
	assert.Greater(t, len(content), 500)
}

func TestMaintenanceLabel(t *testing.T) {
	years := 5
	upa := model.UnitPriceAnalysis{
		MaintenanceYears:      &years,
		AnnualMaintenanceRate: decimal.NewNullDecimal(decimal.RequireFromString("0.05")),
	}
	assert.Equal(t, "5 years at 0.05 per year", maintenanceLabel(upa))
	assert.Equal(t, "- years at - per year", maintenanceLabel(model.UnitPriceAnalysis{}))
	assert.Equal(t, "1250.50", formatAmount(decimal.RequireFromString("1250.5")))
	assert.Equal(t, "-", formatDate(time.Time{}))
}
