package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"bilan/internal/core"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func readRecords(t *testing.T, b []byte) [][]string {
	t.Helper()
	if !bytes.HasPrefix(b, []byte(utf8BOM)) {
		t.Fatal("missing byte order mark")
	}
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(b, []byte(utf8BOM))))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	return records
}

func TestFilenames(t *testing.T) {
	if got := HistoryFilename(core.NewDate(2024, 3, 1), core.NewDate(2024, 3, 31)); got != "Historique_20240301_20240331.csv" {
		t.Errorf("HistoryFilename = %q", got)
	}
	if got := ReportFilename(core.NewDate(2024, 3, 17)); got != "Bilan_2024-03.csv" {
		t.Errorf("ReportFilename = %q", got)
	}
}

func TestHistorySpan(t *testing.T) {
	rows := []core.HistoryRow{
		{Date: core.NewDate(2024, 3, 31)},
		{Date: core.NewDate(2024, 3, 1)},
		{Date: core.NewDate(2024, 3, 15)},
	}
	first, last, ok := HistorySpan(rows)
	if !ok || first != core.NewDate(2024, 3, 1) || last != core.NewDate(2024, 3, 31) {
		t.Errorf("HistorySpan = %s, %s, %v", first, last, ok)
	}
	if _, _, ok := HistorySpan(nil); ok {
		t.Error("empty rows should not have a span")
	}
}

func TestWriteHistoryCSV(t *testing.T) {
	rows := []core.HistoryRow{
		{
			Date:              core.NewDate(2024, 3, 31),
			GrossRevenue:      dec("925"),
			CostOfGoods:       dec("610"),
			GrossProfit:       dec("315"),
			DailyChargesTotal: dec("25"),
			NetProfit:         dec("290"),
		},
		{
			Date:              core.NewDate(2024, 3, 1),
			GrossRevenue:      dec("900"),
			CostOfGoods:       dec("600"),
			GrossProfit:       dec("300"),
			DailyChargesTotal: dec("20.5"),
			NetProfit:         dec("279.5"),
		},
	}

	var buf bytes.Buffer
	if err := WriteHistoryCSV(&buf, "SULTAN", rows); err != nil {
		t.Fatalf("WriteHistoryCSV: %v", err)
	}
	records := readRecords(t, buf.Bytes())

	// csv.Reader skips blank lines.
	if len(records) != 5 {
		t.Fatalf("got %d records: %v", len(records), records)
	}
	if records[0][0] != "HISTORIQUE SULTAN" {
		t.Errorf("title = %q", records[0][0])
	}
	if records[1][0] != "Période: du 01/03/2024 au 31/03/2024" {
		t.Errorf("period = %q", records[1][0])
	}
	if strings.Join(records[2], ",") != "Date,Recette,Coût Achat,Bénéfice Brut,Dépenses,Bénéfice Net" {
		t.Errorf("header = %v", records[2])
	}
	if strings.Join(records[3], ",") != "31/03/2024,925.00,610.00,315.00,25.00,290.00" {
		t.Errorf("first row = %v", records[3])
	}
	if strings.Join(records[4], ",") != "01/03/2024,900.00,600.00,300.00,20.50,279.50" {
		t.Errorf("second row = %v", records[4])
	}
	if !strings.Contains(buf.String(), "\n\nDate,") {
		t.Error("expected a blank row before the header")
	}
}

func TestWriteHistoryCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHistoryCSV(&buf, "", nil); err != nil {
		t.Fatalf("WriteHistoryCSV: %v", err)
	}
	records := readRecords(t, buf.Bytes())
	if records[0][0] != "HISTORIQUE "+DefaultTitle {
		t.Errorf("title = %q", records[0][0])
	}
	if len(records) != 3 {
		t.Errorf("expected title, period and header only, got %v", records)
	}
}

func TestWriteReportCSV(t *testing.T) {
	march := core.NewDate(2024, 3, 1)
	report := core.MonthlyReport{
		Statement: core.MonthlyStatement{
			Month:             march,
			FirstDay:          march,
			LastDay:           core.NewDate(2024, 3, 31),
			GrossRevenue:      dec("1860"),
			CostOfGoods:       dec("1230"),
			GrossProfit:       dec("630"),
			DailyChargesTotal: dec("45"),
			FixedChargesTotal: dec("300"),
			SalariesTotal:     dec("800"),
			TotalExpenses:     dec("1145"),
			NetProfit:         dec("-515"),
		},
		Items: []core.ItemQuantity{
			{ItemID: 1, ItemName: "Café", Quantity: 610, UnitPrice: dec("3"), Total: dec("1830")},
		},
		DailyCharges: []core.DailyCharge{
			{ID: 2, Date: core.NewDate(2024, 3, 31), Description: "Gaz, bouteille", Amount: dec("25")},
		},
		FixedCharges: []core.ChargeLine{
			{Category: core.CategoryRent, Description: "Loyer du local", Amount: dec("300"), Date: march},
			{Category: core.CategorySalary, Description: "Salaire - Sami", Amount: dec("500"), Date: march},
		},
	}

	var buf bytes.Buffer
	if err := WriteReportCSV(&buf, "SULTAN", report, ""); err != nil {
		t.Fatalf("WriteReportCSV: %v", err)
	}
	out := buf.String()
	records := readRecords(t, buf.Bytes())

	if records[0][0] != "BILAN MENSUEL SULTAN" || records[1][0] != "Mars 2024" {
		t.Errorf("heading = %v / %v", records[0], records[1])
	}
	for _, want := range []string{
		"Montant (DT)",
		"Bénéfice Net,-515.00",
		"Café,610,3.00,1830.00",
		`31/03/2024,"Gaz, bouteille",25.00`,
		"Mars 2024,Loyer du local,300.00",
		"Mars 2024,Salaire - Sami,500.00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
