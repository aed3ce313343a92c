package http

import (
	"net/http"

	"bilan/internal/core"
)

func (s *Server) pathDate(w http.ResponseWriter, r *http.Request) (core.Date, bool) {
	d, err := core.ParseDate(r.PathValue("date"))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return core.Date{}, false
	}
	return d, true
}

// handleListSales returns the day's sale sheet: every recorded line and
// the day's totals.
func (s *Server) handleListSales(w http.ResponseWriter, r *http.Request) {
	date, err := ParseDayParam(r.URL.Query(), "date", s.today())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	lines, err := s.store.ListSalesForDate(r.Context(), date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if lines == nil {
		lines = []core.SaleLine{}
	}
	NewJSONResponse().Data(map[string]any{
		"date":  date,
		"lines": lines,
	}).Write(w)
}

func (s *Server) handleSaveSale(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	date, err := p.GetDate("date")
	if err != nil {
		invalid(w, "date", err)
		return
	}
	itemID, err := p.GetInt64("item_id")
	if err != nil || itemID <= 0 {
		invalid(w, "item_id", core.ErrInvalidItem)
		return
	}
	qty, err := p.GetInt("quantity")
	if err != nil {
		invalid(w, "quantity", core.ErrInvalidQuantity)
		return
	}
	if err := s.ledger.SaveSale(r.Context(), date, itemID, qty); err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Data(core.SaleRecord{
		Date:     date,
		ItemID:   itemID,
		Quantity: core.ClampQuantity(qty),
	}).Write(w)
}

// saleSheet is a whole day of quantities keyed by item id.
type saleSheet struct {
	Quantities map[int64]int `json:"quantities"`
}

func (s *Server) handleSaveSales(w http.ResponseWriter, r *http.Request) {
	date, ok := s.pathDate(w, r)
	if !ok {
		return
	}
	var sheet saleSheet
	if err := NewRequestBodyParser(w, r).Decode(&sheet); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	if err := s.ledger.SaveSales(r.Context(), date, sheet.Quantities); err != nil {
		s.fail(w, r, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleResetDay(w http.ResponseWriter, r *http.Request) {
	date, ok := s.pathDate(w, r)
	if !ok {
		return
	}
	if err := s.ledger.ResetDay(r.Context(), date); err != nil {
		s.fail(w, r, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleDeleteDay(w http.ResponseWriter, r *http.Request) {
	date, ok := s.pathDate(w, r)
	if !ok {
		return
	}
	if err := s.ledger.DeleteDay(r.Context(), date); err != nil {
		s.fail(w, r, err)
		return
	}
	NoContent().Write(w)
}
