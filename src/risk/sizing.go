package risk

import (
	"github.com/shopspring/decimal"
)

// TargetQuantity computes the copy-trade position size:
// source quantity scaled by the risk multiplier, clamped to maxPositionSize
// when set. Decimal arithmetic avoids float drift on fractional multipliers.
func TargetQuantity(sourceQty, riskMultiplier float64, maxPositionSize *float64) float64 {
	qty := decimal.NewFromFloat(sourceQty).Mul(decimal.NewFromFloat(riskMultiplier))

	if qty.LessThanOrEqual(decimal.Zero) {
		return 0
	}

	if maxPositionSize != nil {
		max := decimal.NewFromFloat(*maxPositionSize)
		if qty.GreaterThan(max) {
			qty = max
		}
	}

	f, _ := qty.Float64()
	return f
}

// OffsetPrice applies a pip offset to a price. offsetPips may be negative.
func OffsetPrice(price float64, offsetPips float64, symbol string) float64 {
	if offsetPips == 0 {
		return price
	}
	adjusted := decimal.NewFromFloat(price).
		Add(decimal.NewFromFloat(offsetPips).Mul(decimal.NewFromFloat(PipSize(symbol))))
	f, _ := adjusted.Float64()
	return f
}
