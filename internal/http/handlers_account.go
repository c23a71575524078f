package http

import (
	"net/http"
	"strings"

	"saldo/internal/core"
)

type accountDTO struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	InitialBalanceCents int64  `json:"initial_balance_cents"`
}

type createAccountRequest struct {
	Name           string `json:"name"`
	InitialBalance string `json:"initial_balance"` // signed decimal
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	cents := int64(0)
	if strings.TrimSpace(req.InitialBalance) != "" {
		var err error
		cents, err = core.ParseSignedDecimalToCents(req.InitialBalance)
		if err != nil {
			ErrorResponseFor(err).Write(w)
			return
		}
	}

	account, err := s.accounts.CreateAccount(r.Context(), req.Name, core.Money{Cents: cents})
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	NewResponse().Status(http.StatusCreated).Data(accountDTO{
		ID:                  account.ID,
		Name:                account.Name,
		InitialBalanceCents: account.InitialBalance.Cents,
	}).Write(w)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.accounts.ListAccounts(r.Context())
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	out := make([]accountDTO, len(accounts))
	for i, a := range accounts {
		out[i] = accountDTO{
			ID:                  a.ID,
			Name:                a.Name,
			InitialBalanceCents: a.InitialBalance.Cents,
		}
	}

	NewResponse().Data(out).Write(w)
}

type accountBalanceDTO struct {
	AccountID    string `json:"account_id"`
	BalanceCents int64  `json:"balance_cents"`
}

func (s *Server) handleAccountBalance(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimSpace(r.PathValue("id"))
	if accountID == "" {
		BadRequestError("missing account id").Write(w)
		return
	}

	balance, err := s.accounts.Balance(r.Context(), accountID)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	NewResponse().Data(accountBalanceDTO{
		AccountID:    accountID,
		BalanceCents: balance.Cents,
	}).Write(w)
}

type createAdjustmentRequest struct {
	Amount string `json:"amount"` // signed decimal, negative allowed
	Reason string `json:"reason"`
	Date   string `json:"date"`
}

func (s *Server) handleCreateAdjustment(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimSpace(r.PathValue("id"))
	if accountID == "" {
		BadRequestError("missing account id").Write(w)
		return
	}

	var req createAdjustmentRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	cents, err := core.ParseSignedDecimalToCents(req.Amount)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}
	date, err := ParseDateField(req.Date)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	adjustment, err := s.accounts.Adjust(r.Context(), accountID, core.Money{Cents: cents}, sanitizeInput(req.Reason), date)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	NewResponse().Status(http.StatusCreated).Data(createdResponse{ID: adjustment.ID}).Write(w)
}

type createTransferRequest struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Amount        string `json:"amount"`
	Date          string `json:"date"`
}

type transferDTO struct {
	ID            string `json:"id"`
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	AmountCents   int64  `json:"amount_cents"`
	Date          string `json:"date"`
}

// handleCreateTransfer records one transfer fact; both account balances are
// derived from it, never updated in place.
func (s *Server) handleCreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req createTransferRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}
	date, err := ParseDateField(req.Date)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	transfer, err := s.accounts.Transfer(r.Context(),
		strings.TrimSpace(req.FromAccountID),
		strings.TrimSpace(req.ToAccountID),
		core.Money{Cents: cents}, date)
	if err != nil {
		ErrorResponseFor(err).Write(w)
		return
	}

	NewResponse().Status(http.StatusCreated).Data(transferDTO{
		ID:            transfer.ID,
		FromAccountID: transfer.FromAccountID,
		ToAccountID:   transfer.ToAccountID,
		AmountCents:   transfer.Amount.Cents,
		Date:          transfer.Date.Format("2006-01-02"),
	}).Write(w)
}
