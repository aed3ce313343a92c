package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"bilan/internal/core"
	"bilan/internal/ledger"

	"github.com/shopspring/decimal"
)

type saleKey struct {
	date   string
	itemID int64
}

type Store struct {
	mu         sync.Mutex
	nextID     int64
	items      map[int64]core.Item
	sales      map[saleKey]int
	charges    map[int64]core.DailyCharge
	fixed      map[string]core.FixedMonthlyCharges
	salaries   map[int64]core.Salary
	statements map[string]core.MonthlyStatement
}

var _ ledger.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		items:      map[int64]core.Item{},
		sales:      map[saleKey]int{},
		charges:    map[int64]core.DailyCharge{},
		fixed:      map[string]core.FixedMonthlyCharges{},
		salaries:   map[int64]core.Salary{},
		statements: map[string]core.MonthlyStatement{},
	}
}

// NewFromFiles seeds the catalogue from base/seed_items.txt, one item per
// line as "name;purchase;sale". Missing or malformed lines are skipped.
func NewFromFiles(base string) *Store {
	s := New()
	for _, line := range readLines(filepath.Join(base, "seed_items.txt")) {
		parts := strings.Split(line, ";")
		if len(parts) != 3 {
			continue
		}
		purchase, err := core.ParseAmount(parts[1])
		if err != nil {
			continue
		}
		sale, err := core.ParseAmount(parts[2])
		if err != nil {
			continue
		}
		_, _ = s.CreateItem(context.Background(), core.Item{
			Name:          strings.TrimSpace(parts[0]),
			PurchasePrice: purchase,
			SalePrice:     sale,
			Active:        true,
		})
	}
	return s
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func monthKey(d core.Date) string { return core.MonthStart(d).Format(core.MonthLayout) }

// Items

func (s *Store) CreateItem(_ context.Context, it core.Item) (core.Item, error) {
	if err := it.Validate(); err != nil {
		return core.Item{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	it.ID = s.id()
	s.items[it.ID] = it
	return it, nil
}

func (s *Store) UpdateItem(_ context.Context, it core.Item) error {
	if err := it.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[it.ID]; !ok {
		return fmt.Errorf("item %d: %w", it.ID, ledger.ErrNotFound)
	}
	s.items[it.ID] = it
	return nil
}

func (s *Store) DeleteItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("item %d: %w", id, ledger.ErrNotFound)
	}
	delete(s.items, id)
	for k := range s.sales {
		if k.itemID == id {
			delete(s.sales, k)
		}
	}
	return nil
}

func (s *Store) DeleteAllItems(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = map[int64]core.Item{}
	s.sales = map[saleKey]int{}
	return nil
}

func (s *Store) ListItems(_ context.Context) ([]core.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedItems(false), nil
}

func (s *Store) ListActiveItems(_ context.Context) ([]core.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedItems(true), nil
}

func (s *Store) sortedItems(activeOnly bool) []core.Item {
	out := make([]core.Item, 0, len(s.items))
	for _, it := range s.items {
		if activeOnly && !it.Active {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) GetItem(_ context.Context, id int64) (core.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return core.Item{}, fmt.Errorf("item %d: %w", id, ledger.ErrNotFound)
	}
	return it, nil
}

// Sales

func (s *Store) UpsertSale(_ context.Context, rec core.SaleRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[rec.ItemID]; !ok {
		return fmt.Errorf("item %d: %w", rec.ItemID, ledger.ErrNotFound)
	}
	s.sales[saleKey{date: rec.Date.String(), itemID: rec.ItemID}] = rec.Quantity
	return nil
}

func (s *Store) UpsertSales(_ context.Context, recs []core.SaleRecord) error {
	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		if _, ok := s.items[rec.ItemID]; !ok {
			return fmt.Errorf("item %d: %w", rec.ItemID, ledger.ErrNotFound)
		}
	}
	for _, rec := range recs {
		s.sales[saleKey{date: rec.Date.String(), itemID: rec.ItemID}] = rec.Quantity
	}
	return nil
}

func (s *Store) DeleteSalesForDate(_ context.Context, date core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	day := date.String()
	for k := range s.sales {
		if k.date == day {
			delete(s.sales, k)
		}
	}
	return nil
}

func (s *Store) GetSaleQuantity(_ context.Context, date core.Date, itemID int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sales[saleKey{date: date.String(), itemID: itemID}], nil
}

func (s *Store) ListSalesForDate(_ context.Context, date core.Date) ([]core.SaleLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	day := date.String()
	var out []core.SaleLine
	for k, q := range s.sales {
		if k.date != day {
			continue
		}
		it := s.items[k.itemID]
		out = append(out, core.SaleLine{
			Date:          date,
			ItemID:        it.ID,
			ItemName:      it.Name,
			Quantity:      q,
			PurchasePrice: it.PurchasePrice,
			SalePrice:     it.SalePrice,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemName != out[j].ItemName {
			return out[i].ItemName < out[j].ItemName
		}
		return out[i].ItemID < out[j].ItemID
	})
	return out, nil
}

// linesInRange returns joined sale lines whose date lies in [first, last].
// Callers hold the lock.
func (s *Store) linesInRange(first, last core.Date) []core.SaleLine {
	lo, hi := first.String(), last.String()
	var out []core.SaleLine
	for k, q := range s.sales {
		if k.date < lo || k.date > hi {
			continue
		}
		it, ok := s.items[k.itemID]
		if !ok {
			continue
		}
		d, _ := core.ParseDate(k.date)
		out = append(out, core.SaleLine{
			Date:          d,
			ItemID:        it.ID,
			ItemName:      it.Name,
			Quantity:      q,
			PurchasePrice: it.PurchasePrice,
			SalePrice:     it.SalePrice,
		})
	}
	return out
}

func aggregate(lines []core.SaleLine) core.SalesAggregate {
	var agg core.SalesAggregate
	for _, l := range lines {
		q := decimal.NewFromInt(int64(l.Quantity))
		agg.GrossRevenue = agg.GrossRevenue.Add(l.SalePrice.Mul(q))
		agg.CostOfGoods = agg.CostOfGoods.Add(l.PurchasePrice.Mul(q))
	}
	agg.GrossProfit = agg.GrossRevenue.Sub(agg.CostOfGoods)
	return agg
}

func (s *Store) SumSalesAggregateForRange(_ context.Context, first, last core.Date) (core.SalesAggregate, error) {
	if _, err := core.NewPeriod(first, last); err != nil {
		return core.SalesAggregate{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return aggregate(s.linesInRange(first, last)), nil
}

func (s *Store) ListQuantitiesPerItemForRange(_ context.Context, first, last core.Date) ([]core.ItemQuantity, error) {
	if _, err := core.NewPeriod(first, last); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byItem := map[int64]*core.ItemQuantity{}
	for _, l := range s.linesInRange(first, last) {
		iq, ok := byItem[l.ItemID]
		if !ok {
			iq = &core.ItemQuantity{ItemID: l.ItemID, ItemName: l.ItemName, UnitPrice: l.SalePrice}
			byItem[l.ItemID] = iq
		}
		iq.Quantity += l.Quantity
	}
	out := make([]core.ItemQuantity, 0, len(byItem))
	for _, iq := range byItem {
		if iq.Quantity <= 0 {
			continue
		}
		iq.Total = iq.UnitPrice.Mul(decimal.NewFromInt(int64(iq.Quantity)))
		out = append(out, *iq)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].ItemName < out[j].ItemName
	})
	return out, nil
}

// ListHistoryRows returns at most limit days; limit <= 0 means no bound.
func (s *Store) ListHistoryRows(_ context.Context, limit int) ([]core.DaySales, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byDay := map[string][]core.SaleLine{}
	for k, q := range s.sales {
		it, ok := s.items[k.itemID]
		if !ok {
			continue
		}
		byDay[k.date] = append(byDay[k.date], core.SaleLine{
			ItemID: it.ID, Quantity: q, PurchasePrice: it.PurchasePrice, SalePrice: it.SalePrice,
		})
	}
	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	if limit > 0 && len(days) > limit {
		days = days[:limit]
	}
	out := make([]core.DaySales, 0, len(days))
	for _, d := range days {
		date, _ := core.ParseDate(d)
		out = append(out, core.DaySales{Date: date, SalesAggregate: aggregate(byDay[d])})
	}
	return out, nil
}

// Charges

func (s *Store) AddDailyCharge(_ context.Context, c core.DailyCharge) (core.DailyCharge, error) {
	if err := c.Validate(); err != nil {
		return core.DailyCharge{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.id()
	s.charges[c.ID] = c
	return c, nil
}

func (s *Store) GetDailyCharge(_ context.Context, id int64) (core.DailyCharge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.charges[id]
	if !ok {
		return core.DailyCharge{}, fmt.Errorf("daily charge %d: %w", id, ledger.ErrNotFound)
	}
	return c, nil
}

func (s *Store) DeleteDailyCharge(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.charges[id]; !ok {
		return fmt.Errorf("daily charge %d: %w", id, ledger.ErrNotFound)
	}
	delete(s.charges, id)
	return nil
}

func (s *Store) DeleteDailyChargesForDate(_ context.Context, date core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.charges {
		if c.Date == date {
			delete(s.charges, id)
		}
	}
	return nil
}

func (s *Store) ListDailyChargesForRange(_ context.Context, first, last core.Date) ([]core.DailyCharge, error) {
	if _, err := core.NewPeriod(first, last); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := core.Period{First: first, Last: last}
	var out []core.DailyCharge
	for _, c := range s.charges {
		if p.Contains(c.Date) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) SumDailyChargesForDate(_ context.Context, date core.Date) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, c := range s.charges {
		if c.Date == date {
			total = total.Add(c.Amount)
		}
	}
	return total, nil
}

func (s *Store) UpsertFixedMonthlyCharges(_ context.Context, f core.FixedMonthlyCharges) error {
	f.Month = core.MonthStart(f.Month)
	if err := f.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixed[monthKey(f.Month)] = f
	return nil
}

func (s *Store) GetFixedMonthlyCharges(_ context.Context, month core.Date) (core.FixedMonthlyCharges, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fixed[monthKey(month)]
	return f, ok, nil
}

func (s *Store) AddSalary(_ context.Context, sal core.Salary) (core.Salary, error) {
	sal.Month = core.MonthStart(sal.Month)
	if err := sal.Validate(); err != nil {
		return core.Salary{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sal.ID = s.id()
	s.salaries[sal.ID] = sal
	return sal, nil
}

func (s *Store) GetSalary(_ context.Context, id int64) (core.Salary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sal, ok := s.salaries[id]
	if !ok {
		return core.Salary{}, fmt.Errorf("salary %d: %w", id, ledger.ErrNotFound)
	}
	return sal, nil
}

func (s *Store) DeleteSalary(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.salaries[id]; !ok {
		return fmt.Errorf("salary %d: %w", id, ledger.ErrNotFound)
	}
	delete(s.salaries, id)
	return nil
}

func (s *Store) ListSalariesForMonth(_ context.Context, month core.Date) ([]core.Salary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := monthKey(month)
	var out []core.Salary
	for _, sal := range s.salaries {
		if monthKey(sal.Month) == key {
			out = append(out, sal)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeName != out[j].EmployeeName {
			return out[i].EmployeeName < out[j].EmployeeName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Statements

func (s *Store) SaveStatement(_ context.Context, st core.MonthlyStatement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statements[monthKey(st.Month)] = st
	return nil
}

func (s *Store) GetStatement(_ context.Context, month core.Date) (core.MonthlyStatement, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statements[monthKey(month)]
	return st, ok, nil
}

func (s *Store) ListStatementMonths(_ context.Context) ([]core.Date, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Date, 0, len(s.statements))
	for _, st := range s.statements {
		out = append(out, core.MonthStart(st.Month))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j].Time) })
	return out, nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
