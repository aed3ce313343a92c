package core

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMargin(t *testing.T) {
	tests := []struct {
		name     string
		purchase string
		sale     string
		amount   string
		percent  string
		negative bool
	}{
		{"negative margin", "10", "8", "-2", "-20", true},
		{"positive margin", "2.00", "3.00", "1", "50", false},
		{"zero purchase", "0", "5", "5", "0", false},
		{"equal prices", "4", "4", "0", "0", false},
		{"repeating fraction", "3", "4", "1", "33.33", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Margin(dec(tt.purchase), dec(tt.sale))
			if !m.Amount.Equal(dec(tt.amount)) {
				t.Errorf("amount = %s, want %s", m.Amount, tt.amount)
			}
			if !m.Percent.Equal(dec(tt.percent)) {
				t.Errorf("percent = %s, want %s", m.Percent, tt.percent)
			}
			if got := IsMarginNegative(dec(tt.purchase), dec(tt.sale)); got != tt.negative {
				t.Errorf("IsMarginNegative = %v, want %v", got, tt.negative)
			}
		})
	}
}

func TestItemValidate(t *testing.T) {
	good := Item{Name: "Thé", PurchasePrice: dec("0.5"), SalePrice: dec("1.2"), Active: true}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	// negative margins are allowed on the entity itself
	if err := (Item{Name: "Café", PurchasePrice: dec("10"), SalePrice: dec("8")}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Item{
		{Name: " ", PurchasePrice: dec("1"), SalePrice: dec("1")},
		{Name: "a", PurchasePrice: dec("-1"), SalePrice: dec("1")},
		{Name: "a", PurchasePrice: dec("1"), SalePrice: dec("-1")},
	}
	for i, it := range bads {
		if err := it.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDailyChargeAndSalaryValidate(t *testing.T) {
	day := NewDate(2024, 3, 10)
	if err := (DailyCharge{Date: day, Description: "Sucre", Amount: dec("3.5")}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []DailyCharge{
		{Date: day, Description: "", Amount: dec("1")},
		{Date: day, Description: "x", Amount: dec("0")},
		{Date: Date{}, Description: "x", Amount: dec("1")},
	}
	for i, c := range bads {
		if err := c.Validate(); err == nil {
			t.Fatalf("charge case %d expected error", i)
		}
	}

	if err := (Salary{Month: NewDate(2024, 3, 1), EmployeeName: "Sami", Amount: dec("0")}).Validate(); err != nil {
		t.Fatalf("zero salary should be valid, got %v", err)
	}
	if err := (Salary{Month: NewDate(2024, 3, 1), EmployeeName: "", Amount: dec("1")}).Validate(); err == nil {
		t.Fatalf("expected error for empty employee")
	}
}

func TestFixedMonthlyChargesTotalAndLines(t *testing.T) {
	f := FixedMonthlyCharges{
		Month:            NewDate(2024, 3, 1),
		Rent:             dec("300"),
		Water:            dec("12.40"),
		Other:            dec("7.60"),
		OtherDescription: "Entretien",
	}
	if !f.Total().Equal(dec("320")) {
		t.Fatalf("total = %s, want 320", f.Total())
	}
	lines := f.Lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0].Category != CategoryRent || lines[2].Description != "Entretien" {
		t.Fatalf("unexpected lines: %+v", lines)
	}
	if err := (FixedMonthlyCharges{Month: NewDate(2024, 3, 1), Tax: dec("-1")}).Validate(); err == nil {
		t.Fatalf("expected error for negative category")
	}
	if !(FixedMonthlyCharges{}).Total().IsZero() {
		t.Fatalf("empty record must total zero")
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Date `json:"d"`
	}{NewDate(2024, 3, 10)})
	if err != nil || string(b) != `{"d":"2024-03-10"}` {
		t.Fatalf("marshal = %s, %v", b, err)
	}
	var out struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2024-02-29"}`), &out); err != nil || out.D != NewDate(2024, 2, 29) {
		t.Fatalf("unmarshal = %v, %v", out.D, err)
	}
}

func TestClampQuantity(t *testing.T) {
	if ClampQuantity(-3) != 0 || ClampQuantity(4) != 4 {
		t.Fatalf("unexpected clamp")
	}
}
