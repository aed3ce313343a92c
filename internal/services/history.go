package services

import (
	"context"
	"fmt"
	"iter"

	"bilan/internal/core"
	"bilan/internal/ledger"
)

const (
	DefaultHistoryDays = 30
	MaxHistoryDays     = 365
)

// HistoryService builds the rolling per-day ledger.
type HistoryService struct {
	store       ledger.Reader
	defaultDays int
}

func NewHistoryService(store ledger.Reader, defaultDays int) *HistoryService {
	return &HistoryService{store: store, defaultDays: ClampHistoryLimit(defaultDays, DefaultHistoryDays)}
}

// ClampHistoryLimit returns fallback for non-positive limits and caps the
// result to [1, MaxHistoryDays].
func ClampHistoryLimit(limit, fallback int) int {
	if limit <= 0 {
		limit = fallback
	}
	if limit <= 0 {
		limit = DefaultHistoryDays
	}
	if limit > MaxHistoryDays {
		limit = MaxHistoryDays
	}
	return limit
}

// Rows yields the most recent days with sales, newest first. The store is
// read when iteration starts, so each range over the sequence sees
// current data.
func (s *HistoryService) Rows(ctx context.Context, limit int) iter.Seq2[core.HistoryRow, error] {
	limit = ClampHistoryLimit(limit, s.defaultDays)
	return func(yield func(core.HistoryRow, error) bool) {
		days, err := s.store.ListHistoryRows(ctx, limit)
		if err != nil {
			yield(core.HistoryRow{}, fmt.Errorf("history rows: %w", err))
			return
		}
		for _, day := range days {
			if err := ctx.Err(); err != nil {
				yield(core.HistoryRow{}, err)
				return
			}
			charges, err := s.store.SumDailyChargesForDate(ctx, day.Date)
			if err != nil {
				yield(core.HistoryRow{}, fmt.Errorf("charges for %s: %w", day.Date, err))
				return
			}
			row := core.HistoryRow{
				Date:              day.Date,
				GrossRevenue:      day.GrossRevenue,
				CostOfGoods:       day.CostOfGoods,
				GrossProfit:       day.GrossProfit,
				DailyChargesTotal: charges,
				NetProfit:         day.GrossProfit.Sub(charges),
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// Collect drains Rows into a slice.
func (s *HistoryService) Collect(ctx context.Context, limit int) ([]core.HistoryRow, error) {
	var out []core.HistoryRow
	for row, err := range s.Rows(ctx, limit) {
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}
