package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FixedChargeCategory names one of the eight fixed monthly cost buckets.
type FixedChargeCategory string

const (
	CategoryRent        FixedChargeCategory = "rent"
	CategoryElectricity FixedChargeCategory = "electricity"
	CategoryWater       FixedChargeCategory = "water"
	CategoryTax         FixedChargeCategory = "tax"
	CategoryMunicipal   FixedChargeCategory = "municipal"
	CategoryTerrace     FixedChargeCategory = "terrace"
	CategoryInternet    FixedChargeCategory = "internet"
	CategoryOther       FixedChargeCategory = "other"
	CategorySalary      FixedChargeCategory = "salary"
)

// FixedChargeCategories lists the fixed monthly categories in display order.
var FixedChargeCategories = []FixedChargeCategory{
	CategoryRent, CategoryElectricity, CategoryWater, CategoryTax,
	CategoryMunicipal, CategoryTerrace, CategoryInternet, CategoryOther,
}

var categoryLabels = map[FixedChargeCategory]string{
	CategoryRent:        "Loyer du local",
	CategoryElectricity: "Électricité",
	CategoryWater:       "Eau",
	CategoryTax:         "Impôt",
	CategoryMunicipal:   "Municipalité",
	CategoryTerrace:     "Terrasse",
	CategoryInternet:    "Internet",
	CategoryOther:       "Autres charges",
}

type (
	Date struct {
		time.Time
	}

	Item struct {
		ID            int64           `json:"id"`
		Name          string          `json:"name"`
		PurchasePrice decimal.Decimal `json:"purchase_price"`
		SalePrice     decimal.Decimal `json:"sale_price"`
		Active        bool            `json:"active"`
	}

	// SaleRecord is the quantity of one item sold on one day.
	// (Date, ItemID) is unique.
	SaleRecord struct {
		Date     Date  `json:"date"`
		ItemID   int64 `json:"item_id"`
		Quantity int   `json:"quantity"`
	}

	// SaleLine is a sale record joined with the item prices.
	SaleLine struct {
		Date          Date            `json:"date"`
		ItemID        int64           `json:"item_id"`
		ItemName      string          `json:"item_name"`
		Quantity      int             `json:"quantity"`
		PurchasePrice decimal.Decimal `json:"purchase_price"`
		SalePrice     decimal.Decimal `json:"sale_price"`
	}

	DailyCharge struct {
		ID          int64           `json:"id"`
		Date        Date            `json:"date"`
		Description string          `json:"description"`
		Amount      decimal.Decimal `json:"amount"`
	}

	// FixedMonthlyCharges holds one month of fixed costs. Month is the
	// first day of the month and is unique.
	FixedMonthlyCharges struct {
		Month            Date            `json:"month"`
		Rent             decimal.Decimal `json:"rent"`
		Electricity      decimal.Decimal `json:"electricity"`
		Water            decimal.Decimal `json:"water"`
		Tax              decimal.Decimal `json:"tax"`
		Municipal        decimal.Decimal `json:"municipal"`
		Terrace          decimal.Decimal `json:"terrace"`
		Internet         decimal.Decimal `json:"internet"`
		Other            decimal.Decimal `json:"other"`
		OtherDescription string          `json:"other_description"`
	}

	Salary struct {
		ID           int64           `json:"id"`
		Month        Date            `json:"month"`
		EmployeeName string          `json:"employee_name"`
		Amount       decimal.Decimal `json:"amount"`
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrInvalidItem      = errors.New("invalid item reference")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyDescription = errors.New("empty description")
	ErrNegativePrice    = errors.New("price cannot be negative")
)

// NewDate creates a new Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the clock part of t, keeping its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String returns the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD".
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AddDays returns the date n days later (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time.AddDate(0, 0, n))
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (i Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if len(i.Name) > 255 {
		return errors.New("name too long (max 255 characters)")
	}
	if i.PurchasePrice.IsNegative() || i.SalePrice.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// Margin returns the item's unit margin.
func (i Item) Margin() MarginResult {
	return Margin(i.PurchasePrice, i.SalePrice)
}

func (s SaleRecord) Validate() error {
	if err := s.Date.Validate(); err != nil {
		return err
	}
	if s.ItemID <= 0 {
		return ErrInvalidItem
	}
	if s.Quantity < 0 {
		return ErrInvalidQuantity
	}
	return nil
}

func (c DailyCharge) Validate() error {
	if err := c.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Description) == "" {
		return ErrEmptyDescription
	}
	if len(c.Description) > 255 {
		return errors.New("description too long (max 255 characters)")
	}
	if !c.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (f FixedMonthlyCharges) Validate() error {
	if err := f.Month.Validate(); err != nil {
		return err
	}
	for _, a := range f.amounts() {
		if a.IsNegative() {
			return ErrInvalidAmount
		}
	}
	return nil
}

func (f FixedMonthlyCharges) amounts() []decimal.Decimal {
	return []decimal.Decimal{
		f.Rent, f.Electricity, f.Water, f.Tax,
		f.Municipal, f.Terrace, f.Internet, f.Other,
	}
}

// Amount returns the value of one category.
func (f FixedMonthlyCharges) Amount(c FixedChargeCategory) decimal.Decimal {
	switch c {
	case CategoryRent:
		return f.Rent
	case CategoryElectricity:
		return f.Electricity
	case CategoryWater:
		return f.Water
	case CategoryTax:
		return f.Tax
	case CategoryMunicipal:
		return f.Municipal
	case CategoryTerrace:
		return f.Terrace
	case CategoryInternet:
		return f.Internet
	case CategoryOther:
		return f.Other
	}
	return decimal.Zero
}

// SetAmount sets the value of one category. Unknown categories are ignored.
func (f *FixedMonthlyCharges) SetAmount(c FixedChargeCategory, amount decimal.Decimal) {
	switch c {
	case CategoryRent:
		f.Rent = amount
	case CategoryElectricity:
		f.Electricity = amount
	case CategoryWater:
		f.Water = amount
	case CategoryTax:
		f.Tax = amount
	case CategoryMunicipal:
		f.Municipal = amount
	case CategoryTerrace:
		f.Terrace = amount
	case CategoryInternet:
		f.Internet = amount
	case CategoryOther:
		f.Other = amount
	}
}

// Total sums the eight fixed categories.
func (f FixedMonthlyCharges) Total() decimal.Decimal {
	return Sum(f.amounts()...)
}

// Lines itemizes the non-zero categories. The "other" line carries the
// free-text description when one was given.
func (f FixedMonthlyCharges) Lines() []ChargeLine {
	var lines []ChargeLine
	for _, c := range FixedChargeCategories {
		amount := f.Amount(c)
		if !amount.IsPositive() {
			continue
		}
		label := categoryLabels[c]
		if c == CategoryOther && strings.TrimSpace(f.OtherDescription) != "" {
			label = strings.TrimSpace(f.OtherDescription)
		}
		lines = append(lines, ChargeLine{
			Category:    c,
			Description: label,
			Amount:      amount,
			Date:        f.Month,
		})
	}
	return lines
}

func (s Salary) Validate() error {
	if err := s.Month.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(s.EmployeeName) == "" {
		return ErrEmptyName
	}
	if s.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// ClampQuantity returns q, or 0 when q is negative.
func ClampQuantity(q int) int {
	if q < 0 {
		return 0
	}
	return q
}
