package http

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"bilan/internal/core"
	"bilan/internal/export"
	"bilan/internal/services"

	"github.com/shopspring/decimal"
)

func (s *Server) handleDailyTotals(w http.ResponseWriter, r *http.Request) {
	date, err := ParseDayParam(r.URL.Query(), "date", s.today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	totals, err := s.totals.DailyTotalsFromStore(r.Context(), date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Data(totals).Write(w)
}

// adHocSheet is an unsaved sales sheet priced from the catalogue.
type adHocSheet struct {
	Date       core.Date     `json:"date"`
	Quantities map[int64]int `json:"quantities"`
}

func (s *Server) handleDailyTotalsAdHoc(w http.ResponseWriter, r *http.Request) {
	var sheet adHocSheet
	if err := NewRequestBodyParser(w, r).Decode(&sheet); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	if sheet.Date.IsZero() {
		sheet.Date = s.today()
	}
	items, err := s.priceSheet(r.Context(), sheet.Quantities)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	totals, err := s.totals.DailyTotals(r.Context(), sheet.Date, items)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Data(totals).Write(w)
}

// priceSheet joins quantities with current catalogue prices.
func (s *Server) priceSheet(ctx context.Context, quantities map[int64]int) (map[int64]services.ItemSale, error) {
	catalogue, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]core.Item, len(catalogue))
	for _, it := range catalogue {
		byID[it.ID] = it
	}
	out := make(map[int64]services.ItemSale, len(quantities))
	for id, q := range quantities {
		it, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: item %d", core.ErrInvalidItem, id)
		}
		out[id] = services.ItemSale{Quantity: q, PurchasePrice: it.PurchasePrice, SalePrice: it.SalePrice}
	}
	return out, nil
}

func (s *Server) monthParam(w http.ResponseWriter, r *http.Request) (core.Date, bool) {
	month, err := ParseMonthParam(r.URL.Query(), "month", s.today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return core.Date{}, false
	}
	return month, true
}

// statementView adds the display label to a statement.
type statementView struct {
	core.MonthlyStatement
	Label string `json:"label"`
}

func (s *Server) handleStatement(w http.ResponseWriter, r *http.Request) {
	month, ok := s.monthParam(w, r)
	if !ok {
		return
	}
	st, err := s.totals.MonthlyStatement(r.Context(), month)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Data(statementView{MonthlyStatement: st, Label: core.FormatMonthFR(st.Month)}).Write(w)
}

// handleStatementSnapshot returns the statement last persisted by the worker.
func (s *Server) handleStatementSnapshot(w http.ResponseWriter, r *http.Request) {
	month, ok := s.monthParam(w, r)
	if !ok {
		return
	}
	if s.statements == nil {
		NotFoundError("statement snapshots are not available").Write(w)
		return
	}
	st, found, err := s.statements.GetStatement(r.Context(), month)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !found {
		NotFoundError("no snapshot for " + month.Format(core.MonthLayout)).Write(w)
		return
	}
	NewJSONResponse().Data(statementView{MonthlyStatement: st, Label: core.FormatMonthFR(st.Month)}).Write(w)
}

// monthlyReport serves from the report cache when one is configured.
func (s *Server) monthlyReport(ctx context.Context, month core.Date) (core.MonthlyReport, error) {
	if s.reports != nil {
		if rep, ok := s.reports.Get(month); ok {
			return rep, nil
		}
	}
	rep, err := s.totals.MonthlyReport(ctx, month)
	if err != nil {
		return core.MonthlyReport{}, err
	}
	if s.reports != nil {
		s.reports.Set(month, rep)
	}
	return rep, nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	month, ok := s.monthParam(w, r)
	if !ok {
		return
	}
	rep, err := s.monthlyReport(r.Context(), month)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Data(rep).Write(w)
}

func (s *Server) handleStatementCSV(w http.ResponseWriter, r *http.Request) {
	month, ok := s.monthParam(w, r)
	if !ok {
		return
	}
	rep, err := s.monthlyReport(r.Context(), month)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteReportCSV(&buf, s.title, rep, s.currency); err != nil {
		s.fail(w, r, err)
		return
	}
	writeCSV(w, export.ReportFilename(rep.Statement.Month), buf.Bytes())
}

// historyTotals sums the rows of the window.
type historyTotals struct {
	GrossRevenue      decimal.Decimal `json:"gross_revenue"`
	CostOfGoods       decimal.Decimal `json:"cost_of_goods"`
	GrossProfit       decimal.Decimal `json:"gross_profit"`
	DailyChargesTotal decimal.Decimal `json:"daily_charges_total"`
	NetProfit         decimal.Decimal `json:"net_profit"`
}

func sumHistory(rows []core.HistoryRow) historyTotals {
	var t historyTotals
	for _, row := range rows {
		t.GrossRevenue = t.GrossRevenue.Add(row.GrossRevenue)
		t.CostOfGoods = t.CostOfGoods.Add(row.CostOfGoods)
		t.GrossProfit = t.GrossProfit.Add(row.GrossProfit)
		t.DailyChargesTotal = t.DailyChargesTotal.Add(row.DailyChargesTotal)
		t.NetProfit = t.NetProfit.Add(row.NetProfit)
	}
	return t
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	rows, err := s.history.Collect(r.Context(), ParseLimitParam(r.URL.Query(), "limit"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if rows == nil {
		rows = []core.HistoryRow{}
	}
	NewJSONResponse().Data(map[string]any{
		"rows":   rows,
		"totals": sumHistory(rows),
	}).Write(w)
}

func (s *Server) handleHistoryCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := s.history.Collect(r.Context(), ParseLimitParam(r.URL.Query(), "limit"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteHistoryCSV(&buf, s.title, rows); err != nil {
		s.fail(w, r, err)
		return
	}
	first, last, ok := export.HistorySpan(rows)
	if !ok {
		first, last = s.today(), s.today()
	}
	writeCSV(w, export.HistoryFilename(first, last), buf.Bytes())
}

func writeCSV(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
