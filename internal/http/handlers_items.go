package http

import (
	"net/http"
	"strings"

	"bilan/internal/core"

	"github.com/shopspring/decimal"
)

// itemView adds the computed margin to an item.
type itemView struct {
	core.Item
	Margin         core.MarginResult `json:"margin"`
	NegativeMargin bool              `json:"negative_margin"`
}

func newItemView(it core.Item) itemView {
	return itemView{
		Item:           it,
		Margin:         it.Margin(),
		NegativeMargin: core.IsMarginNegative(it.PurchasePrice, it.SalePrice),
	}
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	var (
		items []core.Item
		err   error
	)
	if r.URL.Query().Get("active") == "true" {
		items, err = s.store.ListActiveItems(r.Context())
	} else {
		items, err = s.store.ListItems(r.Context())
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	views := make([]itemView, 0, len(items))
	for _, it := range items {
		views = append(views, newItemView(it))
	}
	NewJSONResponse().Data(views).Write(w)
}

// parseItem reads name, prices and the active flag. Absent prices are 0.
func parseItem(p *RequestBodyParser) (core.Item, string, error) {
	purchase, err := p.GetAmountOr("purchase_price")
	if err != nil {
		return core.Item{}, "purchase_price", err
	}
	sale, err := p.GetAmountOr("sale_price")
	if err != nil {
		return core.Item{}, "sale_price", err
	}
	it := core.Item{
		Name:          p.Get("name"),
		PurchasePrice: purchase,
		SalePrice:     sale,
		Active:        p.GetBool("active", true),
	}
	if err := it.Validate(); err != nil {
		return core.Item{}, "item", err
	}
	return it, "", nil
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	it, field, err := parseItem(p)
	if err != nil {
		invalid(w, field, err)
		return
	}
	created, err := s.ledger.CreateItem(r.Context(), it, p.GetBool("confirm", false))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	Created(newItemView(created)).Write(w)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		BadRequestError("invalid item id").Write(w)
		return
	}
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}
	it, field, err := parseItem(p)
	if err != nil {
		invalid(w, field, err)
		return
	}
	it.ID = id
	if err := s.ledger.UpdateItem(r.Context(), it, p.GetBool("confirm", false)); err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Data(newItemView(it)).Write(w)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		BadRequestError("invalid item id").Write(w)
		return
	}
	if err := s.ledger.DeleteItem(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	NoContent().Write(w)
}

// handleDeleteAllItems wipes the catalogue and every sale. It needs
// confirm=true in the query.
func (s *Server) handleDeleteAllItems(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		ConfirmationRequiredError("deleting every item requires confirm=true").Write(w)
		return
	}
	if err := s.ledger.DeleteAllItems(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	NoContent().Write(w)
}

func (s *Server) handleItemMargin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		BadRequestError("invalid item id").Write(w)
		return
	}
	it, err := s.store.GetItem(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	NewJSONResponse().Data(marginView(it.PurchasePrice, it.SalePrice, s.currency)).Write(w)
}

// handleMargin evaluates prices that are not saved yet.
func (s *Server) handleMargin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	purchase, err := core.ParseAmount(strings.TrimSpace(q.Get("purchase")))
	if err != nil {
		invalid(w, "purchase", err)
		return
	}
	sale, err := core.ParseAmount(strings.TrimSpace(q.Get("sale")))
	if err != nil {
		invalid(w, "sale", err)
		return
	}
	NewJSONResponse().Data(marginView(purchase, sale, s.currency)).Write(w)
}

func marginView(purchase, sale decimal.Decimal, currency string) map[string]any {
	m := core.Margin(purchase, sale)
	return map[string]any{
		"purchase_price":  purchase,
		"sale_price":      sale,
		"amount":          m.Amount,
		"percent":         m.Percent,
		"negative":        core.IsMarginNegative(purchase, sale),
		"amount_display":  core.FormatCurrency(m.Amount, currency),
		"percent_display": core.FormatPercent(m.Percent),
	}
}
