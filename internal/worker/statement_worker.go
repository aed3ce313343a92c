package worker

import (
	"context"
	"fmt"

	"bilan/internal/amqp"
	"bilan/internal/core"
	"bilan/internal/ledger"
	"bilan/internal/log"
	"bilan/internal/sheets"

	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// StatementComputer produces the statement of the month containing day.
type StatementComputer interface {
	MonthlyStatement(ctx context.Context, day core.Date) (core.MonthlyStatement, error)
}

// StatementWorker recomputes monthly statements, stores the snapshot and
// optionally exports it to a spreadsheet.
type StatementWorker struct {
	totals      StatementComputer
	store       ledger.StatementStore
	exporter    sheets.StatementExporter
	logger      *log.Logger
	concurrency int
	today       func() core.Date
}

// NewStatementWorker creates a worker. exporter may be nil.
func NewStatementWorker(totals StatementComputer, store ledger.StatementStore, exporter sheets.StatementExporter, logger *log.Logger) *StatementWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &StatementWorker{
		totals:      totals,
		store:       store,
		exporter:    exporter,
		logger:      logger.WithComponent(log.ComponentWorker),
		concurrency: defaultConcurrency,
		today:       core.Today,
	}
}

// HandlePeriodChanged processes a single period.changed message from AMQP.
func (w *StatementWorker) HandlePeriodChanged(ctx context.Context, msg *amqp.PeriodChangedMessage) error {
	month, err := msg.MonthDate()
	if err != nil {
		return fmt.Errorf("decode month: %w", err)
	}

	w.logger.InfoContext(ctx, "Processing period changed message",
		log.FieldMessageID, msg.ID,
		log.FieldMonth, msg.Month,
		"reason", msg.Reason)

	if msg.Reason == amqp.ReasonItem {
		return w.RefreshStored(ctx, month)
	}
	_, err = w.Snapshot(ctx, month)
	return err
}

// RefreshStored recomputes the given month and every month that already has
// a snapshot. Item prices feed every month, so a price change stales them all.
func (w *StatementWorker) RefreshStored(ctx context.Context, day core.Date) error {
	stored, err := w.store.ListStatementMonths(ctx)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	months := []core.Date{core.MonthStart(day)}
	for _, m := range stored {
		if !m.Equal(months[0].Time) {
			months = append(months, m)
		}
	}
	return w.snapshotAll(ctx, months)
}

func (w *StatementWorker) snapshotAll(ctx context.Context, months []core.Date) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, day := range months {
		g.Go(func() error {
			if _, err := w.Snapshot(gctx, day); err != nil {
				return fmt.Errorf("refresh %s: %w", day.Format(core.MonthLayout), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Snapshot recomputes and stores the statement of the month containing day.
func (w *StatementWorker) Snapshot(ctx context.Context, day core.Date) (core.MonthlyStatement, error) {
	st, err := w.totals.MonthlyStatement(ctx, day)
	if err != nil {
		return core.MonthlyStatement{}, fmt.Errorf("compute statement: %w", err)
	}
	if err := w.store.SaveStatement(ctx, st); err != nil {
		return core.MonthlyStatement{}, fmt.Errorf("save statement: %w", err)
	}

	w.logger.InfoContext(ctx, "Statement snapshot saved",
		log.FieldMonth, st.Month.Format(core.MonthLayout),
		"net_profit_cents", core.ToCents(st.NetProfit))

	if w.exporter == nil {
		return st, nil
	}
	ref, err := w.exporter.ExportStatement(ctx, st)
	if err != nil {
		return st, fmt.Errorf("export statement: %w", err)
	}
	w.logger.InfoContext(ctx, "Statement exported",
		log.FieldMonth, st.Month.Format(core.MonthLayout),
		"ref", ref)
	return st, nil
}

// RefreshRecent snapshots the current month and the months-1 before it.
// Months are processed concurrently; the first failure is returned.
func (w *StatementWorker) RefreshRecent(ctx context.Context, months int) error {
	if months < 1 {
		months = 1
	}

	list := make([]core.Date, 0, months)
	month := core.MonthStart(w.today())
	for i := 0; i < months; i++ {
		list = append(list, month)
		month = core.PrevMonth(month)
	}
	return w.snapshotAll(ctx, list)
}
