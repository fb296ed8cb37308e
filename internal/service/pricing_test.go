package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/nurpe/budget-service/internal/model"
)

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name      string
		quantity  string
		unitPrice string
		want      string
	}{
		{name: "integers", quantity: "3", unitPrice: "15", want: "45"},
		{name: "fractions", quantity: "2.5", unitPrice: "0.1", want: "0.25"},
		{name: "rounds to four places", quantity: "0.333", unitPrice: "0.333", want: "0.1109"},
		{name: "free line", quantity: "7", unitPrice: "0", want: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineTotal(decimal.RequireFromString(tt.quantity), decimal.RequireFromString(tt.unitPrice))
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestRecomputeTotalSumsEveryCategory(t *testing.T) {
	lines := []model.UPALine{
		{Kind: model.ComponentKindMaterial, TotalPrice: decimal.NewFromInt(30)},
		{Kind: model.ComponentKindMaterial, TotalPrice: decimal.RequireFromString("12.5")},
		{Kind: model.ComponentKindLabor, TotalPrice: decimal.NewFromInt(40)},
		{Kind: model.ComponentKindEquipment, TotalPrice: decimal.RequireFromString("7.25")},
	}
	assert.True(t, decimal.RequireFromString("89.75").Equal(RecomputeTotal(lines)))
	assert.True(t, decimal.Zero.Equal(RecomputeTotal(nil)))
}
