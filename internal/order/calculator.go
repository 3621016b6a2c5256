package order

import "github.com/shopspring/decimal"

// two decimal places, matching how exchanges quote INR prices.
const moneyScale = 2

// SanitizeQuantity clamps negative quantities to zero before any
// arithmetic runs. Downstream code never sees a negative quantity.
func SanitizeQuantity(q int64) int64 {
	if q < 0 {
		return 0
	}
	return q
}

// SanitizeUnitPrice clamps negative prices to zero.
func SanitizeUnitPrice(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// Compute derives every monetary figure from the order line and the
// externally supplied fee schedule. It is a pure function: computing
// twice over the same inputs yields identical totals, and it never
// mutates its arguments.
//
// All figures are rounded half-up to two decimal places. Inputs are
// sanitized first, so the half-away-from-zero rounding of the decimal
// library coincides with half-up here.
func Compute(line OrderLine, fees FeeSchedule) Totals {
	qty := decimal.NewFromInt(SanitizeQuantity(line.Quantity))
	price := SanitizeUnitPrice(line.UnitPrice)

	orderValue := qty.Mul(price).Round(moneyScale)
	totalFees := fees.Total().Round(moneyScale)
	totalPayable := orderValue.Add(totalFees).Round(moneyScale)

	totals := Totals{
		OrderValue:   orderValue,
		TotalFees:    totalFees,
		TotalPayable: totalPayable,
	}
	// Effective per-unit cost is undefined for an empty line; leaving it
	// nil lets the review screen render a dash instead of a division
	// artifact.
	if qty.IsPositive() {
		effective := totalPayable.Div(qty).Round(moneyScale)
		totals.EffectiveUnitPrice = &effective
	}
	return totals
}
