// Package ledger declares the storage ports shared by the memory and SQLite
// repositories. Aggregation code depends on these interfaces only.
package ledger

import (
	"context"
	"errors"

	"bilan/internal/core"

	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an update or delete targets a missing row.
var ErrNotFound = errors.New("not found")

type (
	// ItemReader reads the item catalogue.
	ItemReader interface {
		ListItems(ctx context.Context) ([]core.Item, error)
		ListActiveItems(ctx context.Context) ([]core.Item, error)
		GetItem(ctx context.Context, id int64) (core.Item, error)
	}

	// SalesReader reads sale records, joined with the item prices.
	SalesReader interface {
		// GetSaleQuantity returns 0 when nothing was recorded.
		GetSaleQuantity(ctx context.Context, date core.Date, itemID int64) (int, error)
		ListSalesForDate(ctx context.Context, date core.Date) ([]core.SaleLine, error)
		SumSalesAggregateForRange(ctx context.Context, first, last core.Date) (core.SalesAggregate, error)
		// ListQuantitiesPerItemForRange groups by item, descending quantity,
		// and skips items with nothing sold.
		ListQuantitiesPerItemForRange(ctx context.Context, first, last core.Date) ([]core.ItemQuantity, error)
		// ListHistoryRows groups sales by day, most recent first.
		ListHistoryRows(ctx context.Context, limit int) ([]core.DaySales, error)
	}

	// ChargesReader reads daily charges, fixed charges and salaries.
	ChargesReader interface {
		// ListDailyChargesForRange returns the charges in [first, last], descending date.
		ListDailyChargesForRange(ctx context.Context, first, last core.Date) ([]core.DailyCharge, error)
		SumDailyChargesForDate(ctx context.Context, date core.Date) (decimal.Decimal, error)
		GetDailyCharge(ctx context.Context, id int64) (core.DailyCharge, error)
		// GetFixedMonthlyCharges reports found=false when the month has no record.
		GetFixedMonthlyCharges(ctx context.Context, month core.Date) (core.FixedMonthlyCharges, bool, error)
		ListSalariesForMonth(ctx context.Context, month core.Date) ([]core.Salary, error)
		GetSalary(ctx context.Context, id int64) (core.Salary, error)
	}

	// Reader is everything the aggregation engines need.
	Reader interface {
		ItemReader
		SalesReader
		ChargesReader
	}

	// Writer mutates the ledger. Upserts overwrite on their natural key.
	Writer interface {
		CreateItem(ctx context.Context, it core.Item) (core.Item, error)
		UpdateItem(ctx context.Context, it core.Item) error
		// DeleteItem removes the item and its sale records.
		DeleteItem(ctx context.Context, id int64) error
		DeleteAllItems(ctx context.Context) error

		UpsertSale(ctx context.Context, s core.SaleRecord) error
		// UpsertSales writes every record or none of them.
		UpsertSales(ctx context.Context, recs []core.SaleRecord) error
		DeleteSalesForDate(ctx context.Context, date core.Date) error

		AddDailyCharge(ctx context.Context, c core.DailyCharge) (core.DailyCharge, error)
		DeleteDailyCharge(ctx context.Context, id int64) error
		DeleteDailyChargesForDate(ctx context.Context, date core.Date) error

		UpsertFixedMonthlyCharges(ctx context.Context, f core.FixedMonthlyCharges) error

		AddSalary(ctx context.Context, s core.Salary) (core.Salary, error)
		DeleteSalary(ctx context.Context, id int64) error
	}

	// StatementStore keeps computed monthly statements, one per month.
	StatementStore interface {
		SaveStatement(ctx context.Context, st core.MonthlyStatement) error
		GetStatement(ctx context.Context, month core.Date) (core.MonthlyStatement, bool, error)
		// ListStatementMonths returns the first day of every stored month, ascending.
		ListStatementMonths(ctx context.Context) ([]core.Date, error)
	}

	// Store is a full repository.
	Store interface {
		Reader
		Writer
		StatementStore
	}
)
