package http

import (
	"net/http"

	"saldo/internal/core"
)

type upsertSalaryRequest struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Amount string `json:"amount"`
}

// handleUpsertSalary records the salary for a nominal calendar month. One
// salary per month; repeating the call replaces the amount.
func (s *Server) handleUpsertSalary(w http.ResponseWriter, r *http.Request) {
	var req upsertSalaryRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	salary := core.Salary{
		Year:   req.Year,
		Month:  req.Month,
		Amount: core.Money{Cents: cents},
	}

	id, err := s.ledger.RecordSalary(r.Context(), salary)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}
	s.invalidateBalances()

	NewResponse().Status(http.StatusCreated).Data(createdResponse{ID: id}).Write(w)
}

type createExtraIncomeRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

func (s *Server) handleCreateExtraIncome(w http.ResponseWriter, r *http.Request) {
	var req createExtraIncomeRequest
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

	income := core.ExtraIncome{
		Date:        date,
		Description: sanitizeInput(req.Description),
		Amount:      core.Money{Cents: cents},
	}

	startDay, err := s.resolveStartDay(r)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	id, err := s.ledger.RecordExtraIncome(r.Context(), income, startDay)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}
	s.invalidateBalances()

	NewResponse().Status(http.StatusCreated).Data(createdResponse{ID: id}).Write(w)
}

type invoiceItemRequest struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

type createInvoiceRequest struct {
	CardID string               `json:"card_id"`
	Month  string               `json:"month"` // nominal calendar month, YYYY-MM
	Items  []invoiceItemRequest `json:"items"`
}

func (s *Server) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	items := make([]core.InvoiceItem, len(req.Items))
	for i, item := range req.Items {
		cents, err := core.ParseDecimalToCents(item.Amount)
		if err != nil {
			ErrorResponseFor(err).Write(w)
			return
		}
		items[i] = core.InvoiceItem{
			Description: sanitizeInput(item.Description),
			Amount:      core.Money{Cents: cents},
		}
	}

	invoice := core.Invoice{
		CardID: sanitizeInput(req.CardID),
		Month:  sanitizeInput(req.Month),
		Items:  items,
	}

	startDay, err := s.resolveStartDay(r)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	id, err := s.ledger.RecordInvoice(r.Context(), invoice, startDay)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}
	s.invalidateBalances()

	NewResponse().Status(http.StatusCreated).Data(createdResponse{ID: id}).Write(w)
}

type setInvoicePaidRequest struct {
	Paid  bool   `json:"paid"`
	Month string `json:"month"`
}

// handleSetInvoicePaid flips the paid flag. Only paid invoices participate
// in balance folds, so the cache is dropped either way.
func (s *Server) handleSetInvoicePaid(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDPath(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	var req setInvoicePaidRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	startDay, err := s.resolveStartDay(r)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	if err := s.ledger.SetInvoicePaid(r.Context(), id, req.Paid, sanitizeInput(req.Month), startDay); err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}
	s.invalidateBalances()

	NewResponse().Data(setInvoicePaidRequest{Paid: req.Paid, Month: req.Month}).Write(w)
}
