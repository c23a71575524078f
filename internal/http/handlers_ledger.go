package http

import (
	"net/http"

	"saldo/internal/core"
)

// periodBalanceDTO is the wire form of a folded period balance.
type periodBalanceDTO struct {
	PeriodKey         string `json:"period_key"`
	IncomeCents       int64  `json:"income_cents"`
	ExpensesCents     int64  `json:"expenses_cents"`
	PaidInvoicesCents int64  `json:"paid_invoices_cents"`
	CarryOverCents    int64  `json:"carry_over_cents"`
	BalanceCents      int64  `json:"balance_cents"`
	StartDay          int    `json:"start_day"`
}

func toBalanceDTO(pb core.PeriodBalance, startDay int) periodBalanceDTO {
	return periodBalanceDTO{
		PeriodKey:         pb.PeriodKey,
		IncomeCents:       pb.Income.Cents,
		ExpensesCents:     pb.Expenses.Cents,
		PaidInvoicesCents: pb.PaidInvoices.Cents,
		CarryOverCents:    pb.CarryOver.Cents,
		BalanceCents:      pb.Balance.Cents,
		StartDay:          startDay,
	}
}

type entryDTO struct {
	ID          int64  `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
	IsRecurring bool   `json:"is_recurring"`
}

// handlePeriodBalance returns the balance of the period containing the
// requested date, serving from the short-lived cache when possible.
func (s *Server) handlePeriodBalance(w http.ResponseWriter, r *http.Request) {
	date, err := ParseDateQuery(r)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}
	startDay, err := s.resolveStartDay(r)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	key := balanceCacheKey(core.KeyForDate(date, startDay), startDay)
	if cached, ok := s.balanceCache.Get(key); ok {
		NewResponse().Header("X-Cache", "HIT").Data(toBalanceDTO(cached, startDay)).Write(w)
		return
	}

	balance, err := s.ledger.PeriodBalance(r.Context(), date, startDay)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}
	s.balanceCache.Set(key, balance)

	NewResponse().Header("X-Cache", "MISS").Data(toBalanceDTO(balance, startDay)).Write(w)
}

// handlePeriodEntries lists the entries of the period containing the
// requested date, recurrence flag included.
func (s *Server) handlePeriodEntries(w http.ResponseWriter, r *http.Request) {
	date, err := ParseDateQuery(r)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}
	startDay, err := s.resolveStartDay(r)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	views, err := s.ledger.PeriodEntries(r.Context(), date, startDay)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	out := make([]entryDTO, len(views))
	for i, v := range views {
		out[i] = entryDTO{
			ID:          v.ID,
			Date:        v.Date.Format("2006-01-02"),
			Description: v.Description,
			Category:    v.Category,
			AmountCents: v.Amount.Cents,
			Status:      string(v.Status),
			IsRecurring: v.IsRecurring,
		}
	}

	NewResponse().Data(out).Write(w)
}

type startDayRequest struct {
	StartDay int `json:"start_day"`
}

func (s *Server) handleGetStartDay(w http.ResponseWriter, r *http.Request) {
	day, err := s.ledger.MonthStartDay(r.Context())
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}
	NewResponse().Data(startDayRequest{StartDay: day}).Write(w)
}

// handleSetStartDay changes the billing start day. Every derived balance
// moves, so all caches are dropped.
func (s *Server) handleSetStartDay(w http.ResponseWriter, r *http.Request) {
	var req startDayRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	if err := s.ledger.SetMonthStartDay(r.Context(), req.StartDay); err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}
	s.invalidateBalances()

	NewResponse().Data(startDayRequest{StartDay: req.StartDay}).Write(w)
}
