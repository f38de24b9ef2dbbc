package service

import "github.com/shopspring/decimal"

// roundMoney rounds half away from zero to two decimal places.  Going
// through decimal keeps repeated refund recalculations from drifting by a
// cent the way float64 rounding can.
func roundMoney(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// percentOf returns amount*pct rounded to cents, computed in decimal.
func percentOf(amount, pct float64) float64 {
	f, _ := decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(pct)).Round(2).Float64()
	return f
}

// times multiplies a unit price by a quantity in decimal.
func times(price float64, qty int) float64 {
	f, _ := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty))).Round(2).Float64()
	return f
}
