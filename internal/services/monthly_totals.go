package services

import (
	"context"
	"fmt"

	"bilan/internal/core"

	"github.com/shopspring/decimal"
)

// MonthlyInput is the already-fetched data of one calendar month.
type MonthlyInput struct {
	Period       core.Period
	Sales        core.SalesAggregate
	DailyCharges []decimal.Decimal
	Fixed        core.FixedMonthlyCharges
	Salaries     []decimal.Decimal
}

// ComputeMonthlyStatement subtracts every expense of the month, daily
// charges plus the full fixed charges and salaries, from gross profit.
func ComputeMonthlyStatement(in MonthlyInput) core.MonthlyStatement {
	daily := core.Sum(in.DailyCharges...)
	fixed := in.Fixed.Total()
	salaries := core.Sum(in.Salaries...)
	expenses := daily.Add(fixed).Add(salaries)
	gross := in.Sales.GrossRevenue.Sub(in.Sales.CostOfGoods)

	return core.MonthlyStatement{
		Month:             core.MonthStart(in.Period.First),
		FirstDay:          in.Period.First,
		LastDay:           in.Period.Last,
		GrossRevenue:      in.Sales.GrossRevenue,
		CostOfGoods:       in.Sales.CostOfGoods,
		GrossProfit:       gross,
		DailyChargesTotal: daily,
		FixedChargesTotal: fixed,
		SalariesTotal:     salaries,
		TotalExpenses:     expenses,
		NetProfit:         gross.Sub(expenses),
	}
}

// MonthlyStatement computes the statement of the month containing day.
func (s *TotalsService) MonthlyStatement(ctx context.Context, day core.Date) (core.MonthlyStatement, error) {
	st, _, err := s.monthly(ctx, day)
	return st, err
}

// MonthlyReport computes the statement with the reporting projections:
// quantities per item, itemized daily charges, fixed charge and salary lines.
func (s *TotalsService) MonthlyReport(ctx context.Context, day core.Date) (core.MonthlyReport, error) {
	st, in, err := s.monthly(ctx, day)
	if err != nil {
		return core.MonthlyReport{}, err
	}
	items, err := s.store.ListQuantitiesPerItemForRange(ctx, in.period.First, in.period.Last)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("quantities per item: %w", err)
	}

	lines := in.fixed.Lines()
	for _, sal := range in.salaries {
		if !sal.Amount.IsPositive() {
			continue
		}
		lines = append(lines, core.ChargeLine{
			Category:    core.CategorySalary,
			Description: "Salaire - " + sal.EmployeeName,
			Amount:      sal.Amount,
			Date:        sal.Month,
		})
	}

	return core.MonthlyReport{
		Statement:    st,
		Items:        items,
		DailyCharges: in.charges,
		FixedCharges: lines,
	}, nil
}

type monthRows struct {
	period   core.Period
	charges  []core.DailyCharge
	fixed    core.FixedMonthlyCharges
	salaries []core.Salary
}

func (s *TotalsService) monthly(ctx context.Context, day core.Date) (core.MonthlyStatement, monthRows, error) {
	if err := day.Validate(); err != nil {
		return core.MonthlyStatement{}, monthRows{}, fmt.Errorf("%w: %v", core.ErrInvalidMonth, err)
	}
	first, last := core.MonthBounds(day)
	period, err := core.NewPeriod(first, last)
	if err != nil {
		return core.MonthlyStatement{}, monthRows{}, err
	}

	sales, err := s.store.SumSalesAggregateForRange(ctx, first, last)
	if err != nil {
		return core.MonthlyStatement{}, monthRows{}, fmt.Errorf("sales aggregate: %w", err)
	}
	charges, err := s.store.ListDailyChargesForRange(ctx, first, last)
	if err != nil {
		return core.MonthlyStatement{}, monthRows{}, fmt.Errorf("daily charges: %w", err)
	}
	fixed, _, err := s.store.GetFixedMonthlyCharges(ctx, first)
	if err != nil {
		return core.MonthlyStatement{}, monthRows{}, fmt.Errorf("fixed charges: %w", err)
	}
	salaries, err := s.store.ListSalariesForMonth(ctx, first)
	if err != nil {
		return core.MonthlyStatement{}, monthRows{}, fmt.Errorf("salaries: %w", err)
	}

	chargeAmounts := make([]decimal.Decimal, len(charges))
	for i, c := range charges {
		chargeAmounts[i] = c.Amount
	}
	salaryAmounts := make([]decimal.Decimal, len(salaries))
	for i, sal := range salaries {
		salaryAmounts[i] = sal.Amount
	}

	st := ComputeMonthlyStatement(MonthlyInput{
		Period:       period,
		Sales:        sales,
		DailyCharges: chargeAmounts,
		Fixed:        fixed,
		Salaries:     salaryAmounts,
	})
	return st, monthRows{period: period, charges: charges, fixed: fixed, salaries: salaries}, nil
}
