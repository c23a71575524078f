package http

import (
	"net/http"

	"saldo/internal/core"
)

type recurringTemplateDTO struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
	DayOfMonth  int    `json:"day_of_month"`
	Active      bool   `json:"active"`
}

type createRecurringRequest struct {
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"`
	DayOfMonth  int    `json:"day_of_month"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	templates, err := s.ledger.ListRecurringTemplates(r.Context())
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	out := make([]recurringTemplateDTO, len(templates))
	for i, t := range templates {
		out[i] = recurringTemplateDTO{
			ID:          t.ID,
			Description: t.Description,
			Category:    t.Category,
			AmountCents: t.Amount.Cents,
			DayOfMonth:  t.DayOfMonth,
			Active:      t.Active,
		}
	}

	NewResponse().Data(out).Write(w)
}

func (s *Server) handleCreateRecurring(w http.ResponseWriter, r *http.Request) {
	var req createRecurringRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	template := core.RecurringTemplate{
		Description: sanitizeInput(req.Description),
		Category:    sanitizeInput(req.Category),
		Amount:      core.Money{Cents: cents},
		DayOfMonth:  req.DayOfMonth,
		Active:      true,
	}

	id, err := s.ledger.CreateRecurringTemplate(r.Context(), template)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	NewResponse().Status(http.StatusCreated).Data(createdResponse{ID: id}).Write(w)
}

// handleSetRecurringActive toggles a template. Deactivation stops future
// periods only; entries already materialized stay.
func (s *Server) handleSetRecurringActive(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDPath(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var req setActiveRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	if err := s.ledger.SetRecurringTemplateActive(r.Context(), id, req.Active); err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}
	s.invalidateBalances()

	NewResponse().Data(setActiveRequest{Active: req.Active}).Write(w)
}
