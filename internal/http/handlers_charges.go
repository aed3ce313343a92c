package http

import (
	"net/http"
	"strings"

	"bilan/internal/core"

	"github.com/shopspring/decimal"
)

// Daily charges

func (s *Server) handleListCharges(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var first, last core.Date
	if strings.TrimSpace(q.Get("month")) != "" {
		month, err := ParseMonthParam(q, "month", s.today())
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		first, last = core.MonthBounds(month)
	} else {
		day, err := ParseDayParam(q, "date", s.today())
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		first, last = day, day
	}

	charges, err := s.store.ListDailyChargesForRange(r.Context(), first, last)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if charges == nil {
		charges = []core.DailyCharge{}
	}
	total := decimal.Zero
	for _, c := range charges {
		total = total.Add(c.Amount)
	}
	NewJSONResponse().Data(map[string]any{
		"first_day": first,
		"last_day":  last,
		"charges":   charges,
		"total":     total,
	}).Write(w)
}

func (s *Server) handleAddCharge(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	date := s.today()
	if p.Has("date") {
		d, err := p.GetDate("date")
		if err != nil {
			invalid(w, "date", err)
			return
		}
		date = d
	}
	amount, err := p.GetAmount("amount")
	if err != nil {
		invalid(w, "amount", err)
		return
	}
	c := core.DailyCharge{Date: date, Description: p.Get("description"), Amount: amount}
	if err := c.Validate(); err != nil {
		invalid(w, "charge", err)
		return
	}
	created, err := s.ledger.AddDailyCharge(r.Context(), c)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	Created(created).Write(w)
}

func (s *Server) handleDeleteCharge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		BadRequestError("invalid charge id").Write(w)
		return
	}
	if err := s.ledger.DeleteDailyCharge(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	NoContent().Write(w)
}

// Fixed monthly charges

func (s *Server) handleGetFixedCharges(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonthParam(r.URL.Query(), "month", s.today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	f, found, err := s.store.GetFixedMonthlyCharges(r.Context(), month)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !found {
		f = core.FixedMonthlyCharges{Month: month}
	}
	lines := f.Lines()
	if lines == nil {
		lines = []core.ChargeLine{}
	}
	NewJSONResponse().Data(map[string]any{
		"charges": f,
		"found":   found,
		"lines":   lines,
		"total":   f.Total(),
	}).Write(w)
}

func (s *Server) handleSaveFixedCharges(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	month, err := p.GetMonth("month")
	if err != nil {
		invalid(w, "month", err)
		return
	}
	f := core.FixedMonthlyCharges{Month: month, OtherDescription: p.Get("other_description")}
	for _, c := range core.FixedChargeCategories {
		amount, err := p.GetAmountOr(string(c))
		if err != nil {
			invalid(w, string(c), err)
			return
		}
		f.SetAmount(c, amount)
	}
	if err := f.Validate(); err != nil {
		invalid(w, "fixed_charges", err)
		return
	}
	if err := s.ledger.SaveFixedCharges(r.Context(), f); err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Data(map[string]any{
		"charges": f,
		"total":   f.Total(),
	}).Write(w)
}

// Salaries

func (s *Server) handleListSalaries(w http.ResponseWriter, r *http.Request) {
	month, err := ParseMonthParam(r.URL.Query(), "month", s.today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	salaries, err := s.store.ListSalariesForMonth(r.Context(), month)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if salaries == nil {
		salaries = []core.Salary{}
	}
	total := decimal.Zero
	for _, sal := range salaries {
		total = total.Add(sal.Amount)
	}
	NewJSONResponse().Data(map[string]any{
		"month":    month,
		"salaries": salaries,
		"total":    total,
	}).Write(w)
}

func (s *Server) handleAddSalary(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	month, err := p.GetMonth("month")
	if err != nil {
		invalid(w, "month", err)
		return
	}
	amount, err := p.GetAmount("amount")
	if err != nil {
		invalid(w, "amount", err)
		return
	}
	sal := core.Salary{Month: month, EmployeeName: p.Get("employee_name"), Amount: amount}
	if err := sal.Validate(); err != nil {
		invalid(w, "salary", err)
		return
	}
	created, err := s.ledger.AddSalary(r.Context(), sal)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	Created(created).Write(w)
}

func (s *Server) handleDeleteSalary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		BadRequestError("invalid salary id").Write(w)
		return
	}
	if err := s.ledger.DeleteSalary(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	NoContent().Write(w)
}
