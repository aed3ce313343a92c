package services

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"bilan/internal/amqp"
	"bilan/internal/core"
	"bilan/internal/ledger"
	"bilan/internal/log"
)

// ErrNegativeMarginUnconfirmed is returned when an item selling below its
// purchase price is saved without confirmation.
var ErrNegativeMarginUnconfirmed = errors.New("sale price below purchase price: confirmation required")

// ChangePublisher announces that a month of the ledger changed.
type ChangePublisher interface {
	PublishPeriodChanged(ctx context.Context, day core.Date, reason string) error
}

// ReportInvalidator drops cached reports.
type ReportInvalidator interface {
	InvalidateMonth(day core.Date)
	InvalidateAll()
}

// LedgerService applies every write to the store, then invalidates cached
// reports and publishes a change event. Publishing is best effort.
type LedgerService struct {
	store     ledger.Store
	publisher ChangePublisher
	reports   ReportInvalidator
	logger    *log.Logger
	today     func() core.Date
}

func NewLedgerService(store ledger.Store, publisher ChangePublisher, reports ReportInvalidator, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerService{
		store:     store,
		publisher: publisher,
		reports:   reports,
		logger:    logger.WithComponent(log.ComponentLedger),
		today:     core.Today,
	}
}

func (s *LedgerService) changed(ctx context.Context, day core.Date, reason string) {
	if s.reports != nil {
		s.reports.InvalidateMonth(day)
	}
	s.publish(ctx, day, reason)
}

// itemsChanged reprices every month, so the whole cache goes.
func (s *LedgerService) itemsChanged(ctx context.Context) {
	if s.reports != nil {
		s.reports.InvalidateAll()
	}
	s.publish(ctx, s.today(), amqp.ReasonItem)
}

func (s *LedgerService) publish(ctx context.Context, day core.Date, reason string) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No publisher configured, skipping period changed message",
			log.NewFields().WithMonth(day).ToSlice()...)
		return
	}
	if err := s.publisher.PublishPeriodChanged(ctx, day, reason); err != nil {
		fields := log.NewFields().WithMonth(day).WithError(err).ToSlice()
		s.logger.ErrorContext(ctx, "Failed to publish period changed message", fields...)
	}
}

// CreateItem stores a new item. Negative margins need confirm.
func (s *LedgerService) CreateItem(ctx context.Context, it core.Item, confirm bool) (core.Item, error) {
	if err := it.Validate(); err != nil {
		return core.Item{}, err
	}
	if core.IsMarginNegative(it.PurchasePrice, it.SalePrice) && !confirm {
		return core.Item{}, ErrNegativeMarginUnconfirmed
	}
	created, err := s.store.CreateItem(ctx, it)
	if err != nil {
		return core.Item{}, fmt.Errorf("create item: %w", err)
	}
	s.logger.InfoContext(ctx, "Item created",
		log.NewFields().WithOperation(log.OpCreate).WithEntity("item", created.ID).ToSlice()...)
	if s.reports != nil {
		s.reports.InvalidateAll()
	}
	return created, nil
}

func (s *LedgerService) UpdateItem(ctx context.Context, it core.Item, confirm bool) error {
	if err := it.Validate(); err != nil {
		return err
	}
	if core.IsMarginNegative(it.PurchasePrice, it.SalePrice) && !confirm {
		return ErrNegativeMarginUnconfirmed
	}
	if err := s.store.UpdateItem(ctx, it); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	s.logger.InfoContext(ctx, "Item updated",
		log.NewFields().WithOperation(log.OpUpdate).WithEntity("item", it.ID).ToSlice()...)
	s.itemsChanged(ctx)
	return nil
}

// DeleteItem removes the item and every sale recorded for it.
func (s *LedgerService) DeleteItem(ctx context.Context, id int64) error {
	if err := s.store.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	s.logger.InfoContext(ctx, "Item deleted",
		log.NewFields().WithOperation(log.OpDelete).WithEntity("item", id).ToSlice()...)
	s.itemsChanged(ctx)
	return nil
}

func (s *LedgerService) DeleteAllItems(ctx context.Context) error {
	if err := s.store.DeleteAllItems(ctx); err != nil {
		return fmt.Errorf("delete all items: %w", err)
	}
	s.logger.WarnContext(ctx, "All items deleted", log.FieldOperation, log.OpDelete)
	s.itemsChanged(ctx)
	return nil
}

// SaveSale records the quantity of one item for one day, overwriting any
// previous value. Negative quantities are stored as 0.
func (s *LedgerService) SaveSale(ctx context.Context, date core.Date, itemID int64, quantity int) error {
	if quantity < 0 {
		fields := log.NewFields().WithDate(date).WithEntity("item", itemID).ToSlice()
		s.logger.WarnContext(ctx, "Negative quantity clamped to zero", append(fields, "quantity", quantity)...)
	}
	rec := core.SaleRecord{Date: date, ItemID: itemID, Quantity: core.ClampQuantity(quantity)}
	if err := s.store.UpsertSale(ctx, rec); err != nil {
		return fmt.Errorf("save sale: %w", err)
	}
	s.changed(ctx, date, amqp.ReasonSale)
	return nil
}

// SaveSales records a whole day sheet. Either every line is written or,
// when one names an unknown item, none is.
func (s *LedgerService) SaveSales(ctx context.Context, date core.Date, quantities map[int64]int) error {
	if len(quantities) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	recs := make([]core.SaleRecord, 0, len(ids))
	for _, id := range ids {
		recs = append(recs, core.SaleRecord{Date: date, ItemID: id, Quantity: core.ClampQuantity(quantities[id])})
	}
	if err := s.store.UpsertSales(ctx, recs); err != nil {
		return fmt.Errorf("save sales sheet: %w", err)
	}
	s.logger.InfoContext(ctx, "Sales sheet saved",
		append(log.NewFields().WithDate(date).ToSlice(), "lines", len(quantities))...)
	s.changed(ctx, date, amqp.ReasonSale)
	return nil
}

// ResetDay zeroes the quantity of every active item and removes the day's
// charges.
func (s *LedgerService) ResetDay(ctx context.Context, date core.Date) error {
	if err := date.Validate(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidDay, err)
	}
	items, err := s.store.ListActiveItems(ctx)
	if err != nil {
		return fmt.Errorf("list active items: %w", err)
	}
	for _, it := range items {
		if err := s.store.UpsertSale(ctx, core.SaleRecord{Date: date, ItemID: it.ID}); err != nil {
			return fmt.Errorf("reset item %d: %w", it.ID, err)
		}
	}
	if err := s.store.DeleteDailyChargesForDate(ctx, date); err != nil {
		return fmt.Errorf("delete charges: %w", err)
	}
	s.logger.InfoContext(ctx, "Day reset",
		log.NewFields().WithOperation(log.OpReset).WithDate(date).ToSlice()...)
	s.changed(ctx, date, amqp.ReasonDayReset)
	return nil
}

// DeleteDay removes every sale record and charge of the day.
func (s *LedgerService) DeleteDay(ctx context.Context, date core.Date) error {
	if err := date.Validate(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidDay, err)
	}
	if err := s.store.DeleteSalesForDate(ctx, date); err != nil {
		return fmt.Errorf("delete sales: %w", err)
	}
	if err := s.store.DeleteDailyChargesForDate(ctx, date); err != nil {
		return fmt.Errorf("delete charges: %w", err)
	}
	s.logger.InfoContext(ctx, "Day deleted",
		log.NewFields().WithOperation(log.OpDelete).WithDate(date).ToSlice()...)
	s.changed(ctx, date, amqp.ReasonDayDeleted)
	return nil
}

func (s *LedgerService) AddDailyCharge(ctx context.Context, c core.DailyCharge) (core.DailyCharge, error) {
	created, err := s.store.AddDailyCharge(ctx, c)
	if err != nil {
		return core.DailyCharge{}, fmt.Errorf("add daily charge: %w", err)
	}
	s.changed(ctx, created.Date, amqp.ReasonDailyCharge)
	return created, nil
}

func (s *LedgerService) DeleteDailyCharge(ctx context.Context, id int64) error {
	c, err := s.store.GetDailyCharge(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDailyCharge(ctx, id); err != nil {
		return fmt.Errorf("delete daily charge: %w", err)
	}
	s.changed(ctx, c.Date, amqp.ReasonDailyCharge)
	return nil
}

// SaveFixedCharges replaces the fixed charges of the month.
func (s *LedgerService) SaveFixedCharges(ctx context.Context, f core.FixedMonthlyCharges) error {
	f.Month = core.MonthStart(f.Month)
	if err := s.store.UpsertFixedMonthlyCharges(ctx, f); err != nil {
		return fmt.Errorf("save fixed charges: %w", err)
	}
	s.logger.InfoContext(ctx, "Fixed charges saved", log.NewFields().
		WithOperation(log.OpUpsert).
		WithMonth(f.Month).
		WithAmountCents(core.ToCents(f.Total())).
		ToSlice()...)
	s.changed(ctx, f.Month, amqp.ReasonFixedCharges)
	return nil
}

func (s *LedgerService) AddSalary(ctx context.Context, sal core.Salary) (core.Salary, error) {
	created, err := s.store.AddSalary(ctx, sal)
	if err != nil {
		return core.Salary{}, fmt.Errorf("add salary: %w", err)
	}
	s.changed(ctx, created.Month, amqp.ReasonSalary)
	return created, nil
}

func (s *LedgerService) DeleteSalary(ctx context.Context, id int64) error {
	sal, err := s.store.GetSalary(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteSalary(ctx, id); err != nil {
		return fmt.Errorf("delete salary: %w", err)
	}
	s.changed(ctx, sal.Month, amqp.ReasonSalary)
	return nil
}
