package domain

import "github.com/shopspring/decimal"

// LineTotal returns unit × qty.
func LineTotal(unit decimal.Decimal, qty int) decimal.Decimal {
	return unit.Mul(decimal.NewFromInt(int64(qty)))
}

// FormatRupees renders an amount with two decimals and the rupee sign,
// e.g. "₹250.00".
func FormatRupees(amount decimal.Decimal) string {
	return "₹" + amount.StringFixed(2)
}
