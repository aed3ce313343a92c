// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating HTTP request data:
// body fields from JSON or form-encoded payloads, and date or month query
// parameters with a fallback to the current day.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bilan/internal/core"

	"github.com/shopspring/decimal"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// ErrMissingField is returned by the typed getters when the key is absent.
var ErrMissingField = errors.New("missing field")

// ParseDayParam reads a YYYY-MM-DD query parameter. An absent value
// returns today.
func ParseDayParam(query url.Values, key string, today core.Date) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return today, nil
	}
	return core.ParseDate(v)
}

// ParseMonthParam reads a YYYY-MM (or full date) query parameter and
// normalizes it to the first of the month. An absent value returns the
// current month.
func ParseMonthParam(query url.Values, key string, today core.Date) (core.Date, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return core.MonthStart(today), nil
	}
	return core.ParseMonth(v)
}

// ParseLimitParam reads a positive integer query parameter. Absent or
// malformed values return 0 so the caller falls back to its default.
func ParseLimitParam(query url.Values, key string) int {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := bytes.TrimSpace(p.body)
	if len(body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(body))
	return p.err
}

// Decode unmarshals a JSON body into v, for payloads with nested values.
func (p *RequestBodyParser) Decode(v any) error {
	if p.err != nil {
		return p.err
	}
	dec := json.NewDecoder(bytes.NewReader(p.body))
	dec.UseNumber()
	return dec.Decode(v)
}

// Has reports whether the key was sent.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// GetAmount parses the key as a money amount.
func (p *RequestBodyParser) GetAmount(key string) (decimal.Decimal, error) {
	if !p.Has(key) {
		return decimal.Zero, ErrMissingField
	}
	return core.ParseAmount(p.Get(key))
}

// GetAmountOr parses the key as an amount and returns zero when absent.
func (p *RequestBodyParser) GetAmountOr(key string) (decimal.Decimal, error) {
	if !p.Has(key) || p.Get(key) == "" {
		return decimal.Zero, nil
	}
	return core.ParseAmount(p.Get(key))
}

// GetInt parses the key as an integer. Negative values are returned as is.
func (p *RequestBodyParser) GetInt(key string) (int, error) {
	if !p.Has(key) {
		return 0, ErrMissingField
	}
	return strconv.Atoi(p.Get(key))
}

// GetInt64 parses the key as a 64-bit identifier.
func (p *RequestBodyParser) GetInt64(key string) (int64, error) {
	if !p.Has(key) {
		return 0, ErrMissingField
	}
	return strconv.ParseInt(p.Get(key), 10, 64)
}

// GetDate parses the key as YYYY-MM-DD.
func (p *RequestBodyParser) GetDate(key string) (core.Date, error) {
	if !p.Has(key) {
		return core.Date{}, ErrMissingField
	}
	return core.ParseDate(p.Get(key))
}

// GetMonth parses the key as YYYY-MM.
func (p *RequestBodyParser) GetMonth(key string) (core.Date, error) {
	if !p.Has(key) {
		return core.Date{}, ErrMissingField
	}
	return core.ParseMonth(p.Get(key))
}

// GetBool returns def when the key is absent or not a boolean.
func (p *RequestBodyParser) GetBool(key string, def bool) bool {
	if !p.Has(key) {
		return def
	}
	switch strings.ToLower(p.Get(key)) {
	case "true", "1", "on", "yes":
		return true
	case "false", "0", "off", "no":
		return false
	}
	return def
}

// GetRaw returns the raw body bytes.
func (p *RequestBodyParser) GetRaw() []byte {
	return p.body
}

// ContentType returns the Content-Type header value.
func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
