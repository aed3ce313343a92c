package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the SQL of the ledger. Amounts are integer cents and dates
// are ISO text, so range filters compare lexically.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type ItemRow struct {
	ID            int64
	Name          string
	PurchaseCents int64
	SaleCents     int64
	Active        bool
}

type CreateItemParams struct {
	Name          string
	PurchaseCents int64
	SaleCents     int64
	Active        bool
}

const createItem = `INSERT INTO items (name, purchase_cents, sale_cents, active) VALUES (?, ?, ?, ?)
RETURNING id, name, purchase_cents, sale_cents, active`

func (q *Queries) CreateItem(ctx context.Context, arg CreateItemParams) (ItemRow, error) {
	var i ItemRow
	err := q.db.QueryRowContext(ctx, createItem, arg.Name, arg.PurchaseCents, arg.SaleCents, arg.Active).
		Scan(&i.ID, &i.Name, &i.PurchaseCents, &i.SaleCents, &i.Active)
	return i, err
}

const updateItem = `UPDATE items SET name = ?, purchase_cents = ?, sale_cents = ?, active = ? WHERE id = ?`

func (q *Queries) UpdateItem(ctx context.Context, id int64, arg CreateItemParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateItem, arg.Name, arg.PurchaseCents, arg.SaleCents, arg.Active, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteSalesForItem = `DELETE FROM sales WHERE item_id = ?`

func (q *Queries) DeleteSalesForItem(ctx context.Context, itemID int64) error {
	_, err := q.db.ExecContext(ctx, deleteSalesForItem, itemID)
	return err
}

const deleteItem = `DELETE FROM items WHERE id = ?`

func (q *Queries) DeleteItem(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteItem, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteAllItems(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx, `DELETE FROM sales`); err != nil {
		return err
	}
	_, err := q.db.ExecContext(ctx, `DELETE FROM items`)
	return err
}

const getItem = `SELECT id, name, purchase_cents, sale_cents, active FROM items WHERE id = ?`

func (q *Queries) GetItem(ctx context.Context, id int64) (ItemRow, error) {
	var i ItemRow
	err := q.db.QueryRowContext(ctx, getItem, id).Scan(&i.ID, &i.Name, &i.PurchaseCents, &i.SaleCents, &i.Active)
	return i, err
}

const listItems = `SELECT id, name, purchase_cents, sale_cents, active FROM items ORDER BY name, id`

const listActiveItems = `SELECT id, name, purchase_cents, sale_cents, active FROM items WHERE active = 1 ORDER BY name, id`

func (q *Queries) ListItems(ctx context.Context, activeOnly bool) ([]ItemRow, error) {
	query := listItems
	if activeOnly {
		query = listActiveItems
	}
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ItemRow
	for rows.Next() {
		var i ItemRow
		if err := rows.Scan(&i.ID, &i.Name, &i.PurchaseCents, &i.SaleCents, &i.Active); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertSale = `INSERT INTO sales (sale_date, item_id, quantity) VALUES (?, ?, ?)
ON CONFLICT (sale_date, item_id) DO UPDATE SET quantity = excluded.quantity, updated_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertSale(ctx context.Context, date string, itemID int64, quantity int) error {
	_, err := q.db.ExecContext(ctx, upsertSale, date, itemID, quantity)
	return err
}

func (q *Queries) DeleteSalesForDate(ctx context.Context, date string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM sales WHERE sale_date = ?`, date)
	return err
}

const getSaleQuantity = `SELECT quantity FROM sales WHERE sale_date = ? AND item_id = ?`

func (q *Queries) GetSaleQuantity(ctx context.Context, date string, itemID int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, getSaleQuantity, date, itemID).Scan(&n)
	return n, err
}

type SaleLineRow struct {
	Date          string
	ItemID        int64
	ItemName      string
	Quantity      int
	PurchaseCents int64
	SaleCents     int64
}

const listSalesForDate = `SELECT s.sale_date, i.id, i.name, s.quantity, i.purchase_cents, i.sale_cents
FROM sales s JOIN items i ON i.id = s.item_id
WHERE s.sale_date = ?
ORDER BY i.name, i.id`

func (q *Queries) ListSalesForDate(ctx context.Context, date string) ([]SaleLineRow, error) {
	rows, err := q.db.QueryContext(ctx, listSalesForDate, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SaleLineRow
	for rows.Next() {
		var r SaleLineRow
		if err := rows.Scan(&r.Date, &r.ItemID, &r.ItemName, &r.Quantity, &r.PurchaseCents, &r.SaleCents); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type SalesAggregateRow struct {
	Date         string
	RevenueCents int64
	CostCents    int64
}

const sumSalesForRange = `SELECT COALESCE(SUM(s.quantity * i.sale_cents), 0), COALESCE(SUM(s.quantity * i.purchase_cents), 0)
FROM sales s JOIN items i ON i.id = s.item_id
WHERE s.sale_date BETWEEN ? AND ?`

func (q *Queries) SumSalesForRange(ctx context.Context, first, last string) (SalesAggregateRow, error) {
	var r SalesAggregateRow
	err := q.db.QueryRowContext(ctx, sumSalesForRange, first, last).Scan(&r.RevenueCents, &r.CostCents)
	return r, err
}

type ItemQuantityRow struct {
	ItemID    int64
	ItemName  string
	SaleCents int64
	Quantity  int
}

const listQuantitiesPerItem = `SELECT i.id, i.name, i.sale_cents, SUM(s.quantity) AS total_quantity
FROM sales s JOIN items i ON i.id = s.item_id
WHERE s.sale_date BETWEEN ? AND ?
GROUP BY i.id, i.name, i.sale_cents
HAVING total_quantity > 0
ORDER BY total_quantity DESC, i.name`

func (q *Queries) ListQuantitiesPerItem(ctx context.Context, first, last string) ([]ItemQuantityRow, error) {
	rows, err := q.db.QueryContext(ctx, listQuantitiesPerItem, first, last)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ItemQuantityRow
	for rows.Next() {
		var r ItemQuantityRow
		if err := rows.Scan(&r.ItemID, &r.ItemName, &r.SaleCents, &r.Quantity); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LIMIT -1 is unbounded in SQLite.
const listHistoryRows = `SELECT s.sale_date, SUM(s.quantity * i.sale_cents), SUM(s.quantity * i.purchase_cents)
FROM sales s JOIN items i ON i.id = s.item_id
GROUP BY s.sale_date
ORDER BY s.sale_date DESC
LIMIT ?`

func (q *Queries) ListHistoryRows(ctx context.Context, limit int) ([]SalesAggregateRow, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := q.db.QueryContext(ctx, listHistoryRows, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SalesAggregateRow
	for rows.Next() {
		var r SalesAggregateRow
		if err := rows.Scan(&r.Date, &r.RevenueCents, &r.CostCents); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type DailyChargeRow struct {
	ID          int64
	Date        string
	Description string
	AmountCents int64
}

const addDailyCharge = `INSERT INTO daily_charges (charge_date, description, amount_cents) VALUES (?, ?, ?) RETURNING id`

func (q *Queries) AddDailyCharge(ctx context.Context, date, description string, amountCents int64) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, addDailyCharge, date, description, amountCents).Scan(&id)
	return id, err
}

const getDailyCharge = `SELECT id, charge_date, description, amount_cents FROM daily_charges WHERE id = ?`

func (q *Queries) GetDailyCharge(ctx context.Context, id int64) (DailyChargeRow, error) {
	var r DailyChargeRow
	err := q.db.QueryRowContext(ctx, getDailyCharge, id).Scan(&r.ID, &r.Date, &r.Description, &r.AmountCents)
	return r, err
}

func (q *Queries) DeleteDailyCharge(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM daily_charges WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteDailyChargesForDate(ctx context.Context, date string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM daily_charges WHERE charge_date = ?`, date)
	return err
}

const listDailyChargesForRange = `SELECT id, charge_date, description, amount_cents FROM daily_charges
WHERE charge_date BETWEEN ? AND ?
ORDER BY charge_date DESC, id`

func (q *Queries) ListDailyChargesForRange(ctx context.Context, first, last string) ([]DailyChargeRow, error) {
	rows, err := q.db.QueryContext(ctx, listDailyChargesForRange, first, last)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DailyChargeRow
	for rows.Next() {
		var r DailyChargeRow
		if err := rows.Scan(&r.ID, &r.Date, &r.Description, &r.AmountCents); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (q *Queries) SumDailyChargesForDate(ctx context.Context, date string) (int64, error) {
	var total int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM daily_charges WHERE charge_date = ?`, date).Scan(&total)
	return total, err
}

type FixedChargesRow struct {
	Month            string
	RentCents        int64
	ElectricityCents int64
	WaterCents       int64
	TaxCents         int64
	MunicipalCents   int64
	TerraceCents     int64
	InternetCents    int64
	OtherCents       int64
	OtherDescription string
}

const upsertFixedCharges = `INSERT INTO fixed_monthly_charges
(month, rent_cents, electricity_cents, water_cents, tax_cents, municipal_cents, terrace_cents, internet_cents, other_cents, other_description)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (month) DO UPDATE SET
    rent_cents = excluded.rent_cents,
    electricity_cents = excluded.electricity_cents,
    water_cents = excluded.water_cents,
    tax_cents = excluded.tax_cents,
    municipal_cents = excluded.municipal_cents,
    terrace_cents = excluded.terrace_cents,
    internet_cents = excluded.internet_cents,
    other_cents = excluded.other_cents,
    other_description = excluded.other_description,
    updated_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertFixedCharges(ctx context.Context, r FixedChargesRow) error {
	_, err := q.db.ExecContext(ctx, upsertFixedCharges,
		r.Month, r.RentCents, r.ElectricityCents, r.WaterCents, r.TaxCents,
		r.MunicipalCents, r.TerraceCents, r.InternetCents, r.OtherCents, r.OtherDescription)
	return err
}

const getFixedCharges = `SELECT month, rent_cents, electricity_cents, water_cents, tax_cents, municipal_cents,
terrace_cents, internet_cents, other_cents, other_description
FROM fixed_monthly_charges WHERE month = ?`

func (q *Queries) GetFixedCharges(ctx context.Context, month string) (FixedChargesRow, error) {
	var r FixedChargesRow
	err := q.db.QueryRowContext(ctx, getFixedCharges, month).Scan(
		&r.Month, &r.RentCents, &r.ElectricityCents, &r.WaterCents, &r.TaxCents,
		&r.MunicipalCents, &r.TerraceCents, &r.InternetCents, &r.OtherCents, &r.OtherDescription)
	return r, err
}

type SalaryRow struct {
	ID           int64
	Month        string
	EmployeeName string
	AmountCents  int64
}

const addSalary = `INSERT INTO salaries (month, employee_name, amount_cents) VALUES (?, ?, ?) RETURNING id`

func (q *Queries) AddSalary(ctx context.Context, month, name string, amountCents int64) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, addSalary, month, name, amountCents).Scan(&id)
	return id, err
}

const getSalary = `SELECT id, month, employee_name, amount_cents FROM salaries WHERE id = ?`

func (q *Queries) GetSalary(ctx context.Context, id int64) (SalaryRow, error) {
	var r SalaryRow
	err := q.db.QueryRowContext(ctx, getSalary, id).Scan(&r.ID, &r.Month, &r.EmployeeName, &r.AmountCents)
	return r, err
}

func (q *Queries) DeleteSalary(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM salaries WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listSalariesForMonth = `SELECT id, month, employee_name, amount_cents FROM salaries WHERE month = ? ORDER BY employee_name, id`

func (q *Queries) ListSalariesForMonth(ctx context.Context, month string) ([]SalaryRow, error) {
	rows, err := q.db.QueryContext(ctx, listSalariesForMonth, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SalaryRow
	for rows.Next() {
		var r SalaryRow
		if err := rows.Scan(&r.ID, &r.Month, &r.EmployeeName, &r.AmountCents); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type StatementRow struct {
	Month              string
	FirstDay           string
	LastDay            string
	GrossRevenueCents  int64
	CostOfGoodsCents   int64
	GrossProfitCents   int64
	DailyChargesCents  int64
	FixedChargesCents  int64
	SalariesCents      int64
	TotalExpensesCents int64
	NetProfitCents     int64
}

const upsertStatement = `INSERT INTO monthly_statements
(month, first_day, last_day, gross_revenue_cents, cost_of_goods_cents, gross_profit_cents,
 daily_charges_cents, fixed_charges_cents, salaries_cents, total_expenses_cents, net_profit_cents)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (month) DO UPDATE SET
    first_day = excluded.first_day,
    last_day = excluded.last_day,
    gross_revenue_cents = excluded.gross_revenue_cents,
    cost_of_goods_cents = excluded.cost_of_goods_cents,
    gross_profit_cents = excluded.gross_profit_cents,
    daily_charges_cents = excluded.daily_charges_cents,
    fixed_charges_cents = excluded.fixed_charges_cents,
    salaries_cents = excluded.salaries_cents,
    total_expenses_cents = excluded.total_expenses_cents,
    net_profit_cents = excluded.net_profit_cents,
    computed_at = CURRENT_TIMESTAMP`

func (q *Queries) UpsertStatement(ctx context.Context, r StatementRow) error {
	_, err := q.db.ExecContext(ctx, upsertStatement,
		r.Month, r.FirstDay, r.LastDay, r.GrossRevenueCents, r.CostOfGoodsCents, r.GrossProfitCents,
		r.DailyChargesCents, r.FixedChargesCents, r.SalariesCents, r.TotalExpensesCents, r.NetProfitCents)
	return err
}

func (q *Queries) ListStatementMonths(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT month FROM monthly_statements ORDER BY month`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const getStatement = `SELECT month, first_day, last_day, gross_revenue_cents, cost_of_goods_cents, gross_profit_cents,
daily_charges_cents, fixed_charges_cents, salaries_cents, total_expenses_cents, net_profit_cents
FROM monthly_statements WHERE month = ?`

func (q *Queries) GetStatement(ctx context.Context, month string) (StatementRow, error) {
	var r StatementRow
	err := q.db.QueryRowContext(ctx, getStatement, month).Scan(
		&r.Month, &r.FirstDay, &r.LastDay, &r.GrossRevenueCents, &r.CostOfGoodsCents, &r.GrossProfitCents,
		&r.DailyChargesCents, &r.FixedChargesCents, &r.SalariesCents, &r.TotalExpensesCents, &r.NetProfitCents)
	return r, err
}
