package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"bilan/internal/core"
)

func TestParseDayParam(t *testing.T) {
	today := core.NewDate(2024, 3, 15)
	tests := []struct {
		name    string
		query   url.Values
		want    core.Date
		wantErr bool
	}{
		{name: "absent uses today", query: url.Values{}, want: today},
		{name: "explicit date", query: url.Values{"date": {"2024-02-29"}}, want: core.NewDate(2024, 2, 29)},
		{name: "blank uses today", query: url.Values{"date": {"  "}}, want: today},
		{name: "invalid", query: url.Values{"date": {"2024-02-30"}}, wantErr: true},
		{name: "wrong layout", query: url.Values{"date": {"15/03/2024"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDayParam(tt.query, "date", today)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidDay) {
					t.Fatalf("expected ErrInvalidDay, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want.Time) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseMonthParam(t *testing.T) {
	today := core.NewDate(2024, 3, 15)
	tests := []struct {
		name    string
		query   url.Values
		want    core.Date
		wantErr bool
	}{
		{name: "absent uses current month", query: url.Values{}, want: core.NewDate(2024, 3, 1)},
		{name: "month key", query: url.Values{"month": {"2023-12"}}, want: core.NewDate(2023, 12, 1)},
		{name: "full date normalized", query: url.Values{"month": {"2024-02-17"}}, want: core.NewDate(2024, 2, 1)},
		{name: "invalid", query: url.Values{"month": {"2024-13"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthParam(tt.query, "month", today)
			if tt.wantErr {
				if !errors.Is(err, core.ErrInvalidMonth) {
					t.Fatalf("expected ErrInvalidMonth, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want.Time) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestParseLimitParam(t *testing.T) {
	tests := []struct {
		value string
		want  int
	}{
		{"", 0},
		{"10", 10},
		{"-3", 0},
		{"abc", 0},
		{" 7 ", 7},
	}
	for _, tt := range tests {
		got := ParseLimitParam(url.Values{"limit": {tt.value}}, "limit")
		if got != tt.want {
			t.Errorf("ParseLimitParam(%q) = %d, want %d", tt.value, got, tt.want)
		}
	}
}

func newParser(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return p
}

func TestRequestBodyParser_JSON(t *testing.T) {
	p := newParser(t, "application/json", `{"name":"  Café ","sale_price":3.5,"purchase_price":"2,10","qty":-2,"active":false,"id":42,"day":"2024-03-10"}`)

	if !p.IsJSON() {
		t.Fatal("expected JSON content")
	}
	if got := p.Get("name"); got != "Café" {
		t.Errorf("Get(name) = %q, want Café", got)
	}
	sale, err := p.GetAmount("sale_price")
	if err != nil || sale.StringFixed(2) != "3.50" {
		t.Errorf("GetAmount(sale_price) = %s, %v", sale, err)
	}
	purchase, err := p.GetAmount("purchase_price")
	if err != nil || purchase.StringFixed(2) != "2.10" {
		t.Errorf("GetAmount(purchase_price) = %s, %v", purchase, err)
	}
	if q, err := p.GetInt("qty"); err != nil || q != -2 {
		t.Errorf("GetInt(qty) = %d, %v", q, err)
	}
	if id, err := p.GetInt64("id"); err != nil || id != 42 {
		t.Errorf("GetInt64(id) = %d, %v", id, err)
	}
	if p.GetBool("active", true) {
		t.Error("GetBool(active) should be false")
	}
	if !p.GetBool("confirm", true) {
		t.Error("GetBool on absent key should return default")
	}
	d, err := p.GetDate("day")
	if err != nil || d.String() != "2024-03-10" {
		t.Errorf("GetDate(day) = %s, %v", d, err)
	}
}

func TestRequestBodyParser_Form(t *testing.T) {
	p := newParser(t, "application/x-www-form-urlencoded", "description=Pain%00&amount=12.345&month=2024-02")

	if p.IsJSON() {
		t.Fatal("form body reported as JSON")
	}
	if got := p.Get("description"); got != "Pain" {
		t.Errorf("Get(description) = %q, want control characters stripped", got)
	}
	amount, err := p.GetAmount("amount")
	if err != nil || amount.StringFixed(2) != "12.35" {
		t.Errorf("GetAmount(amount) = %s, %v", amount, err)
	}
	m, err := p.GetMonth("month")
	if err != nil || m.String() != "2024-02-01" {
		t.Errorf("GetMonth(month) = %s, %v", m, err)
	}
}

func TestRequestBodyParser_MissingAndInvalid(t *testing.T) {
	p := newParser(t, "application/json", `{"amount":"-5","spare":""}`)

	if _, err := p.GetAmount("missing"); !errors.Is(err, ErrMissingField) {
		t.Errorf("expected ErrMissingField, got %v", err)
	}
	if _, err := p.GetAmount("amount"); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount for negative amount, got %v", err)
	}
	got, err := p.GetAmountOr("spare")
	if err != nil || !got.IsZero() {
		t.Errorf("GetAmountOr(empty) = %s, %v; want 0", got, err)
	}
	if _, err := p.GetDate("missing"); !errors.Is(err, ErrMissingField) {
		t.Errorf("GetDate: expected ErrMissingField, got %v", err)
	}
}

func TestRequestBodyParser_EmptyAndMalformed(t *testing.T) {
	p := newParser(t, "", "")
	if p.Has("anything") || p.Get("anything") != "" {
		t.Error("empty body should have no fields")
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"broken":`))
	bad := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := bad.Parse(); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestRequestBodyParser_Decode(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"quantities":{"1":3,"7":0}}`))
	p := NewRequestBodyParser(httptest.NewRecorder(), req)

	var sheet saleSheet
	if err := p.Decode(&sheet); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if sheet.Quantities[1] != 3 || len(sheet.Quantities) != 2 {
		t.Errorf("unexpected quantities: %v", sheet.Quantities)
	}
}
