package worker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"bilan/internal/amqp"
	"bilan/internal/core"
	"bilan/internal/ledger/memory"
	"bilan/internal/services"
	"bilan/internal/sheets"

	"github.com/shopspring/decimal"
)

type fakeExporter struct {
	mu     sync.Mutex
	months []string
	err    error
}

func (e *fakeExporter) ExportStatement(_ context.Context, st core.MonthlyStatement) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.months = append(e.months, st.Month.Format(core.MonthLayout))
	return "2024 Bilan!A2:J2", e.err
}

type failingComputer struct{}

func (failingComputer) MonthlyStatement(context.Context, core.Date) (core.MonthlyStatement, error) {
	return core.MonthlyStatement{}, errors.New("store unavailable")
}

// blockingComputer holds every computation until release is closed.
type blockingComputer struct {
	release chan struct{}
}

func (b blockingComputer) MonthlyStatement(_ context.Context, day core.Date) (core.MonthlyStatement, error) {
	<-b.release
	return core.MonthlyStatement{Month: core.MonthStart(day)}, nil
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	it, err := store.CreateItem(ctx, core.Item{
		Name:          "Café",
		PurchasePrice: decimal.NewFromInt(2),
		SalePrice:     decimal.NewFromInt(3),
		Active:        true,
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if err := store.UpsertSale(ctx, core.SaleRecord{Date: core.NewDate(2024, 3, 10), ItemID: it.ID, Quantity: 10}); err != nil {
		t.Fatalf("upsert sale: %v", err)
	}
	return store
}

func newWorker(t *testing.T, exporter *fakeExporter) (*StatementWorker, *memory.Store) {
	t.Helper()
	store := seededStore(t)
	var exp sheets.StatementExporter
	if exporter != nil {
		exp = exporter
	}
	w := NewStatementWorker(services.NewTotalsService(store, nil), store, exp, nil)
	w.today = func() core.Date { return core.NewDate(2024, 4, 2) }
	return w, store
}

func TestHandlePeriodChanged_SavesAndExports(t *testing.T) {
	exporter := &fakeExporter{}
	w, store := newWorker(t, exporter)
	ctx := context.Background()

	msg := amqp.NewPeriodChangedMessage(core.NewDate(2024, 3, 10), amqp.ReasonSale)
	if err := w.HandlePeriodChanged(ctx, msg); err != nil {
		t.Fatalf("HandlePeriodChanged: %v", err)
	}

	st, found, err := store.GetStatement(ctx, core.NewDate(2024, 3, 1))
	if err != nil || !found {
		t.Fatalf("GetStatement: found=%v err=%v", found, err)
	}
	if !st.GrossRevenue.Equal(decimal.NewFromInt(30)) || !st.NetProfit.Equal(decimal.NewFromInt(10)) {
		t.Errorf("snapshot revenue=%s net=%s", st.GrossRevenue, st.NetProfit)
	}
	if len(exporter.months) != 1 || exporter.months[0] != "2024-03" {
		t.Errorf("exported = %v", exporter.months)
	}
}

func TestHandlePeriodChanged_BadMonth(t *testing.T) {
	w, _ := newWorker(t, nil)
	msg := &amqp.PeriodChangedMessage{ID: "x", Month: "March"}
	if err := w.HandlePeriodChanged(context.Background(), msg); err == nil {
		t.Fatal("expected error for undecodable month")
	}
}

func TestSnapshot_ExportFailureKeepsSnapshot(t *testing.T) {
	exporter := &fakeExporter{err: errors.New("quota exceeded")}
	w, store := newWorker(t, exporter)
	ctx := context.Background()

	if _, err := w.Snapshot(ctx, core.NewDate(2024, 3, 31)); err == nil {
		t.Fatal("expected export error")
	}
	if _, found, _ := store.GetStatement(ctx, core.NewDate(2024, 3, 1)); !found {
		t.Error("snapshot should be saved before export")
	}
}

func TestSnapshot_ComputeFailure(t *testing.T) {
	store := memory.New()
	w := NewStatementWorker(failingComputer{}, store, nil, nil)
	if _, err := w.Snapshot(context.Background(), core.NewDate(2024, 3, 1)); err == nil {
		t.Fatal("expected compute error")
	}
	if _, found, _ := store.GetStatement(context.Background(), core.NewDate(2024, 3, 1)); found {
		t.Error("nothing should be saved when the computation fails")
	}
}

func TestRefreshRecent(t *testing.T) {
	exporter := &fakeExporter{}
	w, store := newWorker(t, exporter)
	ctx := context.Background()

	if err := w.RefreshRecent(ctx, 3); err != nil {
		t.Fatalf("RefreshRecent: %v", err)
	}

	sort.Strings(exporter.months)
	want := []string{"2024-02", "2024-03", "2024-04"}
	if len(exporter.months) != len(want) {
		t.Fatalf("exported = %v, want %v", exporter.months, want)
	}
	for i := range want {
		if exporter.months[i] != want[i] {
			t.Errorf("exported[%d] = %s, want %s", i, exporter.months[i], want[i])
		}
	}

	apr, found, err := store.GetStatement(ctx, core.NewDate(2024, 4, 1))
	if err != nil || !found {
		t.Fatalf("april snapshot: found=%v err=%v", found, err)
	}
	if !apr.NetProfit.IsZero() {
		t.Errorf("april net = %s, want 0", apr.NetProfit)
	}
}

func TestRefreshRecent_PropagatesError(t *testing.T) {
	w := NewStatementWorker(failingComputer{}, memory.New(), nil, nil)
	if err := w.RefreshRecent(context.Background(), 0); err == nil {
		t.Fatal("expected error")
	}
}

func TestScheduler_Lifecycle(t *testing.T) {
	exporter := &fakeExporter{}
	w, store := newWorker(t, exporter)
	s := NewScheduler(w, SchedulerConfig{Interval: time.Hour, Months: 1})
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(ctx); err == nil {
		t.Error("second Start should fail")
	}
	if !s.IsRunning() {
		t.Error("scheduler should be running")
	}

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should be stopped")
	}
	if err := s.Stop(stopCtx); err != nil {
		t.Errorf("Stop on stopped scheduler: %v", err)
	}

	// The startup refresh runs before the loop waits on the ticker.
	if _, found, _ := store.GetStatement(ctx, core.NewDate(2024, 4, 1)); !found {
		t.Error("startup refresh should snapshot the current month")
	}
}

func TestNewScheduler_Defaults(t *testing.T) {
	w, _ := newWorker(t, nil)
	s := NewScheduler(w, SchedulerConfig{})
	if s.config.Interval != time.Hour || s.config.Months != 2 {
		t.Errorf("defaults = %+v", s.config)
	}
}

func TestHandlePeriodChanged_ItemChangeRefreshesStoredMonths(t *testing.T) {
	w, store := newWorker(t, nil)
	ctx := context.Background()

	if _, err := w.Snapshot(ctx, core.NewDate(2024, 3, 10)); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	items, _ := store.ListItems(ctx)
	cafe := items[0]
	cafe.SalePrice = decimal.NewFromInt(4)
	if err := store.UpdateItem(ctx, cafe); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	msg := amqp.NewPeriodChangedMessage(core.NewDate(2024, 4, 2), amqp.ReasonItem)
	if err := w.HandlePeriodChanged(ctx, msg); err != nil {
		t.Fatalf("HandlePeriodChanged: %v", err)
	}

	mar, _, _ := store.GetStatement(ctx, core.NewDate(2024, 3, 1))
	if mar.GrossRevenue.StringFixed(2) != "40.00" {
		t.Errorf("march revenue = %s, want repriced 40.00", mar.GrossRevenue)
	}
	if _, found, _ := store.GetStatement(ctx, core.NewDate(2024, 4, 1)); !found {
		t.Error("message month should be snapshotted too")
	}
	months, _ := store.ListStatementMonths(ctx)
	if len(months) != 2 {
		t.Errorf("stored months = %v, want 2", months)
	}
}

func TestScheduler_StopAfterTimeout(t *testing.T) {
	release := make(chan struct{})
	w := NewStatementWorker(blockingComputer{release: release}, memory.New(), nil, nil)
	s := NewScheduler(w, SchedulerConfig{Interval: time.Hour, Months: 1})
	ctx := context.Background()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	expired, cancel := context.WithCancel(ctx)
	cancel()
	for i := 0; i < 2; i++ {
		if err := s.Stop(expired); !errors.Is(err, context.Canceled) {
			t.Fatalf("Stop #%d: got %v, want context.Canceled", i+1, err)
		}
	}
	if !s.IsRunning() {
		t.Error("scheduler should still report running while the loop is busy")
	}

	close(release)
	stopCtx, stop := context.WithTimeout(ctx, 5*time.Second)
	defer stop()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("final Stop: %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler should be stopped")
	}
}
