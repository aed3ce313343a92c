package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.5", true},
		{"0", "0", true},
		{".5", "0.5", true},
		{"12.", "12", true},
		{"-1", "", false},
		{"+1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{".", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseQuantity(t *testing.T) {
	if q, err := ParseQuantity(" 5 "); err != nil || q != 5 {
		t.Fatalf("expected 5, got %d (err=%v)", q, err)
	}
	for _, in := range []string{"-1", "x", "", "1.5"} {
		if _, err := ParseQuantity(in); err == nil {
			t.Fatalf("%q expected error", in)
		}
	}
}

func TestCentsRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("12.34")
	if c := ToCents(d); c != 1234 {
		t.Fatalf("expected 1234 cents, got %d", c)
	}
	if !FromCents(1234).Equal(d) {
		t.Fatalf("expected %s, got %s", d, FromCents(1234))
	}
	if c := ToCents(decimal.RequireFromString("9.675")); c != 968 {
		t.Fatalf("expected half-up to 968, got %d", c)
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in       string
		currency string
		want     string
	}{
		{"15", "", "15.00 DT"},
		{"-525", "DT", "-525.00 DT"},
		{"9.677", "EUR", "9.68 EUR"},
	}
	for _, tt := range tests {
		if got := FormatCurrency(decimal.RequireFromString(tt.in), tt.currency); got != tt.want {
			t.Errorf("FormatCurrency(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := FormatPercent(decimal.NewFromInt(-20)); got != "-20.0%" {
		t.Errorf("FormatPercent = %q", got)
	}
}
