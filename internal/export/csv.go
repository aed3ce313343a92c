// Package export renders the history ledger and monthly reports as CSV
// files readable by spreadsheet software.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"bilan/internal/core"

	"github.com/shopspring/decimal"
)

// DefaultTitle heads every exported file.
const DefaultTitle = "BILAN"

// utf8BOM lets spreadsheet software detect the encoding of accented labels.
const utf8BOM = "\ufeff"

var historyHeader = []string{"Date", "Recette", "Coût Achat", "Bénéfice Brut", "Dépenses", "Bénéfice Net"}

// HistoryFilename names a history export after its date span.
func HistoryFilename(first, last core.Date) string {
	return fmt.Sprintf("Historique_%s_%s.csv", first.Format("20060102"), last.Format("20060102"))
}

// ReportFilename names a monthly report export.
func ReportFilename(month core.Date) string {
	return fmt.Sprintf("Bilan_%s.csv", core.MonthStart(month).Format(core.MonthLayout))
}

// HistorySpan returns the oldest and newest dates of rows. ok is false
// when rows is empty.
func HistorySpan(rows []core.HistoryRow) (first, last core.Date, ok bool) {
	for i, r := range rows {
		if i == 0 || r.Date.Before(first.Time) {
			first = r.Date
		}
		if i == 0 || r.Date.After(last.Time) {
			last = r.Date
		}
	}
	return first, last, len(rows) > 0
}

// WriteHistoryCSV writes a title row, a period row, a blank row, the
// column header and one line per history row, in the given order.
func WriteHistoryCSV(w io.Writer, title string, rows []core.HistoryRow) error {
	if title == "" {
		title = DefaultTitle
	}
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	records := [][]string{{"HISTORIQUE " + title}}
	if first, last, ok := HistorySpan(rows); ok {
		records = append(records, []string{fmt.Sprintf("Période: du %s au %s", core.FormatDateFR(first), core.FormatDateFR(last))})
	} else {
		records = append(records, []string{"Période: aucune donnée"})
	}
	records = append(records, []string{}, historyHeader)

	for _, r := range rows {
		records = append(records, []string{
			core.FormatDateFR(r.Date),
			amount(r.GrossRevenue),
			amount(r.CostOfGoods),
			amount(r.GrossProfit),
			amount(r.DailyChargesTotal),
			amount(r.NetProfit),
		})
	}

	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write history csv: %w", err)
	}
	return nil
}

// WriteReportCSV writes a monthly report in three sections: totals,
// quantities sold per item and itemized expenses.
func WriteReportCSV(w io.Writer, title string, r core.MonthlyReport, currency string) error {
	if title == "" {
		title = DefaultTitle
	}
	if currency == "" {
		currency = core.DefaultCurrency
	}
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	st := r.Statement
	records := [][]string{
		{"BILAN MENSUEL " + title},
		{core.FormatMonthFR(st.Month)},
		{fmt.Sprintf("Période: du %s au %s", core.FormatDateFR(st.FirstDay), core.FormatDateFR(st.LastDay))},
		{},
		{"Indicateur", "Montant (" + currency + ")"},
		{"Recette", amount(st.GrossRevenue)},
		{"Coût Achat", amount(st.CostOfGoods)},
		{"Bénéfice Brut", amount(st.GrossProfit)},
		{"Charges Journalières", amount(st.DailyChargesTotal)},
		{"Charges Fixes", amount(st.FixedChargesTotal)},
		{"Salaires", amount(st.SalariesTotal)},
		{"Total Dépenses", amount(st.TotalExpenses)},
		{"Bénéfice Net", amount(st.NetProfit)},
		{},
		{"Article", "Quantité", "Prix Unitaire", "Total"},
	}

	for _, it := range r.Items {
		records = append(records, []string{
			it.ItemName,
			strconv.Itoa(it.Quantity),
			amount(it.UnitPrice),
			amount(it.Total),
		})
	}

	records = append(records, []string{}, []string{"Date", "Description", "Montant"})
	for _, c := range r.DailyCharges {
		records = append(records, []string{core.FormatDateFR(c.Date), c.Description, amount(c.Amount)})
	}
	for _, l := range r.FixedCharges {
		records = append(records, []string{core.FormatMonthFR(l.Date), l.Description, amount(l.Amount)})
	}

	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("write report csv: %w", err)
	}
	return nil
}

func amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
