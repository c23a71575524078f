package http

import (
	"net/http"

	"saldo/internal/core"
)

type createExpenseRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Amount      string `json:"amount"` // decimal, e.g. "12,34" or "12.34"
	Status      string `json:"status,omitempty"`
}

type createdResponse struct {
	ID int64 `json:"id"`
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	date, err := ParseDateField(req.Date)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	status := core.StatusPaid
	if req.Status != "" {
		status = core.EntryStatus(req.Status)
	}

	entry := core.Entry{
		Date:        date,
		Description: sanitizeInput(req.Description),
		Category:    sanitizeInput(req.Category),
		Amount:      core.Money{Cents: cents},
		Status:      status,
	}

	startDay, err := s.resolveStartDay(r)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	id, err := s.ledger.CreateExpense(r.Context(), entry, startDay)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}
	s.invalidateBalances()

	NewResponse().Status(http.StatusCreated).Data(createdResponse{ID: id}).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDPath(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	startDay, err := s.resolveStartDay(r)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	if err := s.ledger.DeleteExpense(r.Context(), id, startDay); err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}
	s.invalidateBalances()

	NewResponse().Status(http.StatusNoContent).Write(w)
}
