package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bilan/internal/core"
	"bilan/internal/ledger"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations before handing out connections
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness check.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func monthKey(d core.Date) string { return core.MonthStart(d).Format(core.MonthLayout) }

func toItem(row ItemRow) core.Item {
	return core.Item{
		ID:            row.ID,
		Name:          row.Name,
		PurchasePrice: core.FromCents(row.PurchaseCents),
		SalePrice:     core.FromCents(row.SaleCents),
		Active:        row.Active,
	}
}

func itemParams(it core.Item) CreateItemParams {
	return CreateItemParams{
		Name:          it.Name,
		PurchaseCents: core.ToCents(it.PurchasePrice),
		SaleCents:     core.ToCents(it.SalePrice),
		Active:        it.Active,
	}
}

func notFound(affected int64, what string, id int64) error {
	if affected == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ledger.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) CreateItem(ctx context.Context, it core.Item) (core.Item, error) {
	if err := it.Validate(); err != nil {
		return core.Item{}, err
	}
	row, err := r.queries.CreateItem(ctx, itemParams(it))
	if err != nil {
		return core.Item{}, fmt.Errorf("create item: %w", err)
	}

	slog.InfoContext(ctx, "Item saved to SQLite",
		"id", row.ID,
		"name", row.Name,
		"purchase_cents", row.PurchaseCents,
		"sale_cents", row.SaleCents)

	return toItem(row), nil
}

func (r *SQLiteRepository) UpdateItem(ctx context.Context, it core.Item) error {
	if err := it.Validate(); err != nil {
		return err
	}
	n, err := r.queries.UpdateItem(ctx, it.ID, itemParams(it))
	if err != nil {
		return fmt.Errorf("update item %d: %w", it.ID, err)
	}
	return notFound(n, "item", it.ID)
}

// DeleteItem removes the item with its sales in one transaction; the schema
// cascade covers connections opened without foreign keys.
func (r *SQLiteRepository) DeleteItem(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(q *Queries) error {
		if err := q.DeleteSalesForItem(ctx, id); err != nil {
			return fmt.Errorf("delete sales for item %d: %w", id, err)
		}
		n, err := q.DeleteItem(ctx, id)
		if err != nil {
			return fmt.Errorf("delete item %d: %w", id, err)
		}
		return notFound(n, "item", id)
	})
}

func (r *SQLiteRepository) DeleteAllItems(ctx context.Context) error {
	return r.withTx(ctx, func(q *Queries) error {
		if err := q.DeleteAllItems(ctx); err != nil {
			return fmt.Errorf("delete all items: %w", err)
		}
		return nil
	})
}

func (r *SQLiteRepository) GetItem(ctx context.Context, id int64) (core.Item, error) {
	row, err := r.queries.GetItem(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Item{}, fmt.Errorf("item %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return core.Item{}, fmt.Errorf("get item %d: %w", id, err)
	}
	return toItem(row), nil
}

func (r *SQLiteRepository) listItems(ctx context.Context, activeOnly bool) ([]core.Item, error) {
	rows, err := r.queries.ListItems(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	items := make([]core.Item, len(rows))
	for i, row := range rows {
		items[i] = toItem(row)
	}
	return items, nil
}

func (r *SQLiteRepository) ListItems(ctx context.Context) ([]core.Item, error) {
	return r.listItems(ctx, false)
}

func (r *SQLiteRepository) ListActiveItems(ctx context.Context) ([]core.Item, error) {
	return r.listItems(ctx, true)
}

func (r *SQLiteRepository) UpsertSale(ctx context.Context, s core.SaleRecord) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if _, err := r.GetItem(ctx, s.ItemID); err != nil {
		return err
	}
	if err := r.queries.UpsertSale(ctx, s.Date.String(), s.ItemID, s.Quantity); err != nil {
		return fmt.Errorf("upsert sale: %w", err)
	}

	slog.InfoContext(ctx, "Sale saved to SQLite",
		"date", s.Date.String(),
		"item_id", s.ItemID,
		"quantity", s.Quantity)

	return nil
}

// UpsertSales writes a day sheet in one transaction.
func (r *SQLiteRepository) UpsertSales(ctx context.Context, recs []core.SaleRecord) error {
	for _, s := range recs {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	err := r.withTx(ctx, func(q *Queries) error {
		for _, s := range recs {
			if _, err := q.GetItem(ctx, s.ItemID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return fmt.Errorf("item %d: %w", s.ItemID, ledger.ErrNotFound)
				}
				return fmt.Errorf("get item %d: %w", s.ItemID, err)
			}
			if err := q.UpsertSale(ctx, s.Date.String(), s.ItemID, s.Quantity); err != nil {
				return fmt.Errorf("upsert sale for item %d: %w", s.ItemID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "Sales sheet saved to SQLite", "lines", len(recs))
	return nil
}

func (r *SQLiteRepository) DeleteSalesForDate(ctx context.Context, date core.Date) error {
	if err := r.queries.DeleteSalesForDate(ctx, date.String()); err != nil {
		return fmt.Errorf("delete sales for %s: %w", date, err)
	}
	return nil
}

func (r *SQLiteRepository) GetSaleQuantity(ctx context.Context, date core.Date, itemID int64) (int, error) {
	n, err := r.queries.GetSaleQuantity(ctx, date.String(), itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get sale quantity: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) ListSalesForDate(ctx context.Context, date core.Date) ([]core.SaleLine, error) {
	rows, err := r.queries.ListSalesForDate(ctx, date.String())
	if err != nil {
		return nil, fmt.Errorf("list sales for %s: %w", date, err)
	}
	lines := make([]core.SaleLine, len(rows))
	for i, row := range rows {
		lines[i] = core.SaleLine{
			Date:          date,
			ItemID:        row.ItemID,
			ItemName:      row.ItemName,
			Quantity:      row.Quantity,
			PurchasePrice: core.FromCents(row.PurchaseCents),
			SalePrice:     core.FromCents(row.SaleCents),
		}
	}
	return lines, nil
}

func toAggregate(row SalesAggregateRow) core.SalesAggregate {
	return core.SalesAggregate{
		GrossRevenue: core.FromCents(row.RevenueCents),
		CostOfGoods:  core.FromCents(row.CostCents),
		GrossProfit:  core.FromCents(row.RevenueCents - row.CostCents),
	}
}

func (r *SQLiteRepository) SumSalesAggregateForRange(ctx context.Context, first, last core.Date) (core.SalesAggregate, error) {
	if _, err := core.NewPeriod(first, last); err != nil {
		return core.SalesAggregate{}, err
	}
	row, err := r.queries.SumSalesForRange(ctx, first.String(), last.String())
	if err != nil {
		return core.SalesAggregate{}, fmt.Errorf("sum sales: %w", err)
	}
	return toAggregate(row), nil
}

func (r *SQLiteRepository) ListQuantitiesPerItemForRange(ctx context.Context, first, last core.Date) ([]core.ItemQuantity, error) {
	if _, err := core.NewPeriod(first, last); err != nil {
		return nil, err
	}
	rows, err := r.queries.ListQuantitiesPerItem(ctx, first.String(), last.String())
	if err != nil {
		return nil, fmt.Errorf("list quantities per item: %w", err)
	}
	out := make([]core.ItemQuantity, len(rows))
	for i, row := range rows {
		price := core.FromCents(row.SaleCents)
		out[i] = core.ItemQuantity{
			ItemID:    row.ItemID,
			ItemName:  row.ItemName,
			Quantity:  row.Quantity,
			UnitPrice: price,
			Total:     price.Mul(decimal.NewFromInt(int64(row.Quantity))),
		}
	}
	return out, nil
}

func (r *SQLiteRepository) ListHistoryRows(ctx context.Context, limit int) ([]core.DaySales, error) {
	rows, err := r.queries.ListHistoryRows(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list history rows: %w", err)
	}
	out := make([]core.DaySales, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("history row: %w", err)
		}
		out = append(out, core.DaySales{Date: d, SalesAggregate: toAggregate(row)})
	}
	return out, nil
}

func (r *SQLiteRepository) AddDailyCharge(ctx context.Context, c core.DailyCharge) (core.DailyCharge, error) {
	if err := c.Validate(); err != nil {
		return core.DailyCharge{}, err
	}
	id, err := r.queries.AddDailyCharge(ctx, c.Date.String(), c.Description, core.ToCents(c.Amount))
	if err != nil {
		return core.DailyCharge{}, fmt.Errorf("add daily charge: %w", err)
	}
	c.ID = id

	slog.InfoContext(ctx, "Daily charge saved to SQLite",
		"id", id,
		"date", c.Date.String(),
		"description", c.Description,
		"amount_cents", core.ToCents(c.Amount))

	return c, nil
}

func (r *SQLiteRepository) GetDailyCharge(ctx context.Context, id int64) (core.DailyCharge, error) {
	row, err := r.queries.GetDailyCharge(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.DailyCharge{}, fmt.Errorf("daily charge %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return core.DailyCharge{}, fmt.Errorf("get daily charge %d: %w", id, err)
	}
	d, err := core.ParseDate(row.Date)
	if err != nil {
		return core.DailyCharge{}, fmt.Errorf("daily charge %d: %w", id, err)
	}
	return core.DailyCharge{ID: row.ID, Date: d, Description: row.Description, Amount: core.FromCents(row.AmountCents)}, nil
}

func (r *SQLiteRepository) DeleteDailyCharge(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteDailyCharge(ctx, id)
	if err != nil {
		return fmt.Errorf("delete daily charge %d: %w", id, err)
	}
	return notFound(n, "daily charge", id)
}

func (r *SQLiteRepository) DeleteDailyChargesForDate(ctx context.Context, date core.Date) error {
	if err := r.queries.DeleteDailyChargesForDate(ctx, date.String()); err != nil {
		return fmt.Errorf("delete daily charges for %s: %w", date, err)
	}
	return nil
}

func (r *SQLiteRepository) ListDailyChargesForRange(ctx context.Context, first, last core.Date) ([]core.DailyCharge, error) {
	if _, err := core.NewPeriod(first, last); err != nil {
		return nil, err
	}
	rows, err := r.queries.ListDailyChargesForRange(ctx, first.String(), last.String())
	if err != nil {
		return nil, fmt.Errorf("list daily charges: %w", err)
	}
	out := make([]core.DailyCharge, 0, len(rows))
	for _, row := range rows {
		d, err := core.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("daily charge %d: %w", row.ID, err)
		}
		out = append(out, core.DailyCharge{
			ID:          row.ID,
			Date:        d,
			Description: row.Description,
			Amount:      core.FromCents(row.AmountCents),
		})
	}
	return out, nil
}

func (r *SQLiteRepository) SumDailyChargesForDate(ctx context.Context, date core.Date) (decimal.Decimal, error) {
	total, err := r.queries.SumDailyChargesForDate(ctx, date.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum daily charges for %s: %w", date, err)
	}
	return core.FromCents(total), nil
}

func (r *SQLiteRepository) UpsertFixedMonthlyCharges(ctx context.Context, f core.FixedMonthlyCharges) error {
	f.Month = core.MonthStart(f.Month)
	if err := f.Validate(); err != nil {
		return err
	}
	err := r.queries.UpsertFixedCharges(ctx, FixedChargesRow{
		Month:            monthKey(f.Month),
		RentCents:        core.ToCents(f.Rent),
		ElectricityCents: core.ToCents(f.Electricity),
		WaterCents:       core.ToCents(f.Water),
		TaxCents:         core.ToCents(f.Tax),
		MunicipalCents:   core.ToCents(f.Municipal),
		TerraceCents:     core.ToCents(f.Terrace),
		InternetCents:    core.ToCents(f.Internet),
		OtherCents:       core.ToCents(f.Other),
		OtherDescription: f.OtherDescription,
	})
	if err != nil {
		return fmt.Errorf("upsert fixed charges: %w", err)
	}

	slog.InfoContext(ctx, "Fixed charges saved to SQLite",
		"month", monthKey(f.Month),
		"total_cents", core.ToCents(f.Total()))

	return nil
}

func (r *SQLiteRepository) GetFixedMonthlyCharges(ctx context.Context, month core.Date) (core.FixedMonthlyCharges, bool, error) {
	row, err := r.queries.GetFixedCharges(ctx, monthKey(month))
	if errors.Is(err, sql.ErrNoRows) {
		return core.FixedMonthlyCharges{}, false, nil
	}
	if err != nil {
		return core.FixedMonthlyCharges{}, false, fmt.Errorf("get fixed charges: %w", err)
	}
	return core.FixedMonthlyCharges{
		Month:            core.MonthStart(month),
		Rent:             core.FromCents(row.RentCents),
		Electricity:      core.FromCents(row.ElectricityCents),
		Water:            core.FromCents(row.WaterCents),
		Tax:              core.FromCents(row.TaxCents),
		Municipal:        core.FromCents(row.MunicipalCents),
		Terrace:          core.FromCents(row.TerraceCents),
		Internet:         core.FromCents(row.InternetCents),
		Other:            core.FromCents(row.OtherCents),
		OtherDescription: row.OtherDescription,
	}, true, nil
}

func (r *SQLiteRepository) AddSalary(ctx context.Context, s core.Salary) (core.Salary, error) {
	s.Month = core.MonthStart(s.Month)
	if err := s.Validate(); err != nil {
		return core.Salary{}, err
	}
	id, err := r.queries.AddSalary(ctx, monthKey(s.Month), s.EmployeeName, core.ToCents(s.Amount))
	if err != nil {
		return core.Salary{}, fmt.Errorf("add salary: %w", err)
	}
	s.ID = id

	slog.InfoContext(ctx, "Salary saved to SQLite",
		"id", id,
		"month", monthKey(s.Month),
		"employee", s.EmployeeName,
		"amount_cents", core.ToCents(s.Amount))

	return s, nil
}

func (r *SQLiteRepository) GetSalary(ctx context.Context, id int64) (core.Salary, error) {
	row, err := r.queries.GetSalary(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Salary{}, fmt.Errorf("salary %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return core.Salary{}, fmt.Errorf("get salary %d: %w", id, err)
	}
	month, err := core.ParseMonth(row.Month)
	if err != nil {
		return core.Salary{}, fmt.Errorf("salary %d: %w", id, err)
	}
	return core.Salary{ID: row.ID, Month: month, EmployeeName: row.EmployeeName, Amount: core.FromCents(row.AmountCents)}, nil
}

func (r *SQLiteRepository) DeleteSalary(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteSalary(ctx, id)
	if err != nil {
		return fmt.Errorf("delete salary %d: %w", id, err)
	}
	return notFound(n, "salary", id)
}

func (r *SQLiteRepository) ListSalariesForMonth(ctx context.Context, month core.Date) ([]core.Salary, error) {
	rows, err := r.queries.ListSalariesForMonth(ctx, monthKey(month))
	if err != nil {
		return nil, fmt.Errorf("list salaries: %w", err)
	}
	out := make([]core.Salary, len(rows))
	for i, row := range rows {
		out[i] = core.Salary{
			ID:           row.ID,
			Month:        core.MonthStart(month),
			EmployeeName: row.EmployeeName,
			Amount:       core.FromCents(row.AmountCents),
		}
	}
	return out, nil
}

func (r *SQLiteRepository) SaveStatement(ctx context.Context, st core.MonthlyStatement) error {
	err := r.queries.UpsertStatement(ctx, StatementRow{
		Month:              monthKey(st.Month),
		FirstDay:           st.FirstDay.String(),
		LastDay:            st.LastDay.String(),
		GrossRevenueCents:  core.ToCents(st.GrossRevenue),
		CostOfGoodsCents:   core.ToCents(st.CostOfGoods),
		GrossProfitCents:   core.ToCents(st.GrossProfit),
		DailyChargesCents:  core.ToCents(st.DailyChargesTotal),
		FixedChargesCents:  core.ToCents(st.FixedChargesTotal),
		SalariesCents:      core.ToCents(st.SalariesTotal),
		TotalExpensesCents: core.ToCents(st.TotalExpenses),
		NetProfitCents:     core.ToCents(st.NetProfit),
	})
	if err != nil {
		return fmt.Errorf("save statement: %w", err)
	}

	slog.InfoContext(ctx, "Monthly statement snapshot saved",
		"month", monthKey(st.Month),
		"net_profit_cents", core.ToCents(st.NetProfit))

	return nil
}

func (r *SQLiteRepository) GetStatement(ctx context.Context, month core.Date) (core.MonthlyStatement, bool, error) {
	row, err := r.queries.GetStatement(ctx, monthKey(month))
	if errors.Is(err, sql.ErrNoRows) {
		return core.MonthlyStatement{}, false, nil
	}
	if err != nil {
		return core.MonthlyStatement{}, false, fmt.Errorf("get statement: %w", err)
	}
	first, err := core.ParseDate(row.FirstDay)
	if err != nil {
		return core.MonthlyStatement{}, false, err
	}
	last, err := core.ParseDate(row.LastDay)
	if err != nil {
		return core.MonthlyStatement{}, false, err
	}
	return core.MonthlyStatement{
		Month:             first,
		FirstDay:          first,
		LastDay:           last,
		GrossRevenue:      core.FromCents(row.GrossRevenueCents),
		CostOfGoods:       core.FromCents(row.CostOfGoodsCents),
		GrossProfit:       core.FromCents(row.GrossProfitCents),
		DailyChargesTotal: core.FromCents(row.DailyChargesCents),
		FixedChargesTotal: core.FromCents(row.FixedChargesCents),
		SalariesTotal:     core.FromCents(row.SalariesCents),
		TotalExpenses:     core.FromCents(row.TotalExpensesCents),
		NetProfit:         core.FromCents(row.NetProfitCents),
	}, true, nil
}

func (r *SQLiteRepository) ListStatementMonths(ctx context.Context) ([]core.Date, error) {
	keys, err := r.queries.ListStatementMonths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list statement months: %w", err)
	}
	out := make([]core.Date, 0, len(keys))
	for _, k := range keys {
		d, err := core.ParseMonth(k)
		if err != nil {
			return nil, fmt.Errorf("stored month %q: %w", k, err)
		}
		out = append(out, d)
	}
	return out, nil
}
