package services

import (
	"context"
	"fmt"

	"bilan/internal/core"
	"bilan/internal/ledger"
	"bilan/internal/log"

	"github.com/shopspring/decimal"
)

// ItemSale is the quantity and prices of one item on one day.
type ItemSale struct {
	Quantity      int
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
}

// DailyInput is everything ComputeDailyTotals needs for one day, already
// fetched. A month without fixed charges is the zero value.
type DailyInput struct {
	Date         core.Date
	Items        map[int64]ItemSale
	DailyCharges []decimal.Decimal
	Fixed        core.FixedMonthlyCharges
	Salaries     []decimal.Decimal
}

// ComputeDailyTotals aggregates one day. Negative quantities count as 0.
// NetProfit subtracts only the day's own charges; AmortizedMonthlyCost is
// reported alongside and left out of it.
func ComputeDailyTotals(in DailyInput) core.DailyTotals {
	revenue, cost := decimal.Zero, decimal.Zero
	for _, it := range in.Items {
		q := decimal.NewFromInt(int64(core.ClampQuantity(it.Quantity)))
		revenue = revenue.Add(it.SalePrice.Mul(q))
		cost = cost.Add(it.PurchasePrice.Mul(q))
	}
	gross := revenue.Sub(cost)
	charges := core.Sum(in.DailyCharges...)

	return core.DailyTotals{
		Date:                 in.Date,
		GrossRevenue:         revenue,
		CostOfGoods:          cost,
		GrossProfit:          gross,
		DailyChargesTotal:    charges,
		AmortizedMonthlyCost: AmortizedMonthlyCost(in.Date, in.Fixed.Total(), core.Sum(in.Salaries...)),
		NetProfit:            gross.Sub(charges),
	}
}

// AmortizedMonthlyCost spreads a month's fixed charges and salaries evenly
// over its days, rounded to cents. It is 0 for a zero day count.
func AmortizedMonthlyCost(day core.Date, fixedTotal, salariesTotal decimal.Decimal) decimal.Decimal {
	days := core.DaysInMonth(day)
	if days <= 0 {
		return decimal.Zero
	}
	return fixedTotal.Add(salariesTotal).Div(decimal.NewFromInt(int64(days))).Round(2)
}

// ItemsFromLines indexes sale lines by item.
func ItemsFromLines(lines []core.SaleLine) map[int64]ItemSale {
	out := make(map[int64]ItemSale, len(lines))
	for _, l := range lines {
		out[l.ItemID] = ItemSale{Quantity: l.Quantity, PurchasePrice: l.PurchasePrice, SalePrice: l.SalePrice}
	}
	return out
}

// TotalsService fetches the rows the engines need and runs them.
type TotalsService struct {
	store  ledger.Reader
	logger *log.Logger
}

func NewTotalsService(store ledger.Reader, logger *log.Logger) *TotalsService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &TotalsService{store: store, logger: logger.WithComponent(log.ComponentTotals)}
}

// DailyTotals computes a day from caller-supplied quantities, such as a
// sales sheet that has not been saved yet.
func (s *TotalsService) DailyTotals(ctx context.Context, date core.Date, items map[int64]ItemSale) (core.DailyTotals, error) {
	if err := date.Validate(); err != nil {
		return core.DailyTotals{}, fmt.Errorf("%w: %v", core.ErrInvalidDay, err)
	}

	clamped := 0
	for _, it := range items {
		if it.Quantity < 0 {
			clamped++
		}
	}
	if clamped > 0 {
		fields := log.NewFields().WithDate(date).ToSlice()
		s.logger.WarnContext(ctx, "Negative quantities clamped to zero", append(fields, log.FieldClamped, clamped)...)
	}

	charges, err := s.store.SumDailyChargesForDate(ctx, date)
	if err != nil {
		return core.DailyTotals{}, fmt.Errorf("daily charges: %w", err)
	}
	fixed, salaries, err := s.monthlyCosts(ctx, date)
	if err != nil {
		return core.DailyTotals{}, err
	}

	return ComputeDailyTotals(DailyInput{
		Date:         date,
		Items:        items,
		DailyCharges: []decimal.Decimal{charges},
		Fixed:        fixed,
		Salaries:     salaries,
	}), nil
}

// DailyTotalsFromStore computes a day from its saved sale records.
func (s *TotalsService) DailyTotalsFromStore(ctx context.Context, date core.Date) (core.DailyTotals, error) {
	lines, err := s.store.ListSalesForDate(ctx, date)
	if err != nil {
		return core.DailyTotals{}, fmt.Errorf("sales for %s: %w", date, err)
	}
	return s.DailyTotals(ctx, date, ItemsFromLines(lines))
}

func (s *TotalsService) monthlyCosts(ctx context.Context, day core.Date) (core.FixedMonthlyCharges, []decimal.Decimal, error) {
	month := core.MonthStart(day)
	fixed, _, err := s.store.GetFixedMonthlyCharges(ctx, month)
	if err != nil {
		return core.FixedMonthlyCharges{}, nil, fmt.Errorf("fixed charges: %w", err)
	}
	sals, err := s.store.ListSalariesForMonth(ctx, month)
	if err != nil {
		return core.FixedMonthlyCharges{}, nil, fmt.Errorf("salaries: %w", err)
	}
	amounts := make([]decimal.Decimal, len(sals))
	for i, sal := range sals {
		amounts[i] = sal.Amount
	}
	return fixed, amounts, nil
}
