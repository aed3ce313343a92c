package core

import "github.com/shopspring/decimal"

// MarginResult is the absolute and relative margin of one item.
type MarginResult struct {
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
}

// Margin computes sale - purchase and its percentage of purchase, rounded
// to two decimals. The percentage is 0 when purchase is 0.
func Margin(purchase, sale decimal.Decimal) MarginResult {
	amount := sale.Sub(purchase)
	if !purchase.IsPositive() {
		return MarginResult{Amount: amount, Percent: decimal.Zero}
	}
	return MarginResult{
		Amount:  amount,
		Percent: amount.Div(purchase).Mul(hundred).Round(2),
	}
}

// IsMarginNegative reports whether the item sells below its purchase price.
// Callers ask for confirmation; the calculation is never blocked.
func IsMarginNegative(purchase, sale decimal.Decimal) bool {
	return sale.LessThan(purchase)
}
