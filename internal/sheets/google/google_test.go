package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bilan/internal/core"

	"github.com/shopspring/decimal"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{CredentialsJSON: "{}"})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	b, err := loadCredentials(Options{CredentialsJSON: ` {"type":"service_account"} `})
	if err != nil || string(b) != `{"type":"service_account"}` {
		t.Fatalf("inline credentials = %q, %v", b, err)
	}

	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"from":"file"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	b, err = loadCredentials(Options{CredentialsFile: path})
	if err != nil || string(b) != `{"from":"file"}` {
		t.Fatalf("file credentials = %q, %v", b, err)
	}

	if _, err := loadCredentials(Options{CredentialsFile: filepath.Join(t.TempDir(), "missing.json")}); err == nil {
		t.Error("expected error for unreadable file")
	}

	_, err = loadCredentials(Options{})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("expected missing credentials error, got %v", err)
	}
}

func TestLoadCredentials_ApplicationDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adc.json")
	if err := os.WriteFile(path, []byte(`{"adc":true}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)

	b, err := loadCredentials(Options{})
	if err != nil || string(b) != `{"adc":true}` {
		t.Fatalf("adc credentials = %q, %v", b, err)
	}
}

func TestExportStatement_Guards(t *testing.T) {
	e := &Exporter{spreadsheetID: "test", sheetBase: DefaultSheetName}

	if _, err := e.ExportStatement(context.Background(), core.MonthlyStatement{}); err != core.ErrInvalidMonth {
		t.Errorf("zero month: got %v", err)
	}

	st := core.MonthlyStatement{Month: core.NewDate(2024, 3, 1)}
	_, err := e.ExportStatement(context.Background(), st)
	if err == nil || err.Error() != "sheets service not initialized" {
		t.Errorf("nil service: got %v", err)
	}
}

func TestStatementRow(t *testing.T) {
	st := core.MonthlyStatement{
		Month:             core.NewDate(2024, 3, 1),
		GrossRevenue:      decimal.RequireFromString("1860"),
		CostOfGoods:       decimal.RequireFromString("1230"),
		GrossProfit:       decimal.RequireFromString("630"),
		DailyChargesTotal: decimal.RequireFromString("45"),
		FixedChargesTotal: decimal.RequireFromString("300"),
		SalariesTotal:     decimal.RequireFromString("800"),
		TotalExpenses:     decimal.RequireFromString("1145"),
		NetProfit:         decimal.RequireFromString("-515"),
	}

	row := statementRow(st)
	if len(row) != len(header) {
		t.Fatalf("row has %d cells, header has %d", len(row), len(header))
	}
	if row[0] != "2024-03" || row[1] != "Mars 2024" {
		t.Errorf("month cells = %v, %v", row[0], row[1])
	}
	if row[2] != 1860.0 || row[9] != -515.0 {
		t.Errorf("amount cells = %v, %v", row[2], row[9])
	}
}

func TestFindMonthRow(t *testing.T) {
	values := [][]any{{"Mois"}, {"2024-01"}, {}, {" 2024-03 "}}

	tests := []struct {
		key  string
		want int
	}{
		{"2024-01", 2},
		{"2024-03", 4},
		{"2024-02", 0},
		{"Mois", 1},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := findMonthRow(values, tt.key); got != tt.want {
				t.Errorf("findMonthRow(%q) = %d, want %d", tt.key, got, tt.want)
			}
		})
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Bilan", 2024, "2024 Bilan"},
		{"  Bilan ", 2025, "2025 Bilan"},
		{"2023 Bilan", 2024, "2023 Bilan"},
		{"", 2024, ""},
		{"1800 Bilan", 2024, "2024 1800 Bilan"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}
