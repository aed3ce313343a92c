package core

import "github.com/shopspring/decimal"

// ChargeLine is one itemized monthly cost (a fixed category or a salary).
type ChargeLine struct {
	Category    FixedChargeCategory `json:"category"`
	Description string              `json:"description"`
	Amount      decimal.Decimal     `json:"amount"`
	Date        Date                `json:"date"`
}

// SalesAggregate is revenue and cost of goods over a set of sale records.
type SalesAggregate struct {
	GrossRevenue decimal.Decimal `json:"gross_revenue"`
	CostOfGoods  decimal.Decimal `json:"cost_of_goods"`
	GrossProfit  decimal.Decimal `json:"gross_profit"`
}

// DaySales is the sales aggregate of a single day.
type DaySales struct {
	Date Date `json:"date"`
	SalesAggregate
}

// DailyTotals is the profit and loss of one day. AmortizedMonthlyCost is
// informational and is not part of NetProfit.
type DailyTotals struct {
	Date                 Date            `json:"date"`
	GrossRevenue         decimal.Decimal `json:"gross_revenue"`
	CostOfGoods          decimal.Decimal `json:"cost_of_goods"`
	GrossProfit          decimal.Decimal `json:"gross_profit"`
	DailyChargesTotal    decimal.Decimal `json:"daily_charges_total"`
	AmortizedMonthlyCost decimal.Decimal `json:"amortized_monthly_cost"`
	NetProfit            decimal.Decimal `json:"net_profit"`
}

// MonthlyStatement is the profit and loss of one calendar month.
type MonthlyStatement struct {
	Month             Date            `json:"month"`
	FirstDay          Date            `json:"first_day"`
	LastDay           Date            `json:"last_day"`
	GrossRevenue      decimal.Decimal `json:"gross_revenue"`
	CostOfGoods       decimal.Decimal `json:"cost_of_goods"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	DailyChargesTotal decimal.Decimal `json:"daily_charges_total"`
	FixedChargesTotal decimal.Decimal `json:"fixed_charges_total"`
	SalariesTotal     decimal.Decimal `json:"salaries_total"`
	TotalExpenses     decimal.Decimal `json:"total_expenses"`
	NetProfit         decimal.Decimal `json:"net_profit"`
}

// ItemQuantity is the quantity of one item sold over a period.
type ItemQuantity struct {
	ItemID    int64           `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// MonthlyReport is a statement with the projections used by reporting.
type MonthlyReport struct {
	Statement    MonthlyStatement `json:"statement"`
	Items        []ItemQuantity   `json:"items"`
	DailyCharges []DailyCharge    `json:"daily_charges"`
	FixedCharges []ChargeLine     `json:"fixed_charges"`
}

// HistoryRow is one day of the rolling ledger.
type HistoryRow struct {
	Date              Date            `json:"date"`
	GrossRevenue      decimal.Decimal `json:"gross_revenue"`
	CostOfGoods       decimal.Decimal `json:"cost_of_goods"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	DailyChargesTotal decimal.Decimal `json:"daily_charges_total"`
	NetProfit         decimal.Decimal `json:"net_profit"`
}
