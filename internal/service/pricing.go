package service

import (
	"github.com/shopspring/decimal"

	"github.com/nurpe/budget-service/internal/model"
)

// LineTotal is the total of one UPA or budget line.
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(moneyScale)
}

// RecomputeTotal is the UPA total: the sum of every line total across the
// material, labor and equipment categories. Create, update and price
// propagation all go through it.
func RecomputeTotal(lines []model.UPALine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.TotalPrice)
	}
	return total
}
