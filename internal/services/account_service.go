package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"saldo/internal/core"
)

// AccountService manages the per-account ledger. Balances are always derived
// from the initial balance plus the full adjustment and transfer history;
// nothing is incremented in place.
type AccountService struct {
	store AccountStore
}

func NewAccountService(store AccountStore) *AccountService {
	if store == nil {
		panic("services: nil account store")
	}
	return &AccountService{store: store}
}

func (s *AccountService) CreateAccount(ctx context.Context, name string, initialBalance core.Money) (core.Account, error) {
	account := core.Account{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(name),
		InitialBalance: initialBalance,
	}
	if err := account.Validate(); err != nil {
		return core.Account{}, err
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return core.Account{}, err
	}
	return account, nil
}

func (s *AccountService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.store.ListAccounts(ctx)
}

// Balance derives the current balance of one account from its full history.
func (s *AccountService) Balance(ctx context.Context, accountID string) (core.Money, error) {
	account, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return core.Money{}, err
	}
	adjustments, err := s.store.ListAccountAdjustments(ctx)
	if err != nil {
		return core.Money{}, err
	}
	transfers, err := s.store.ListAccountTransfers(ctx)
	if err != nil {
		return core.Money{}, err
	}
	return core.AccountBalance(account, adjustments, transfers), nil
}

// Adjust records a manual correction. Amount may be negative and is
// unconstrained in magnitude: the ledger tracks facts, not overdraft policy.
func (s *AccountService) Adjust(ctx context.Context, accountID string, amount core.Money, reason string, date core.Date) (core.AccountAdjustment, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		return core.AccountAdjustment{}, fmt.Errorf("adjust unknown account: %w", err)
	}

	adj := core.AccountAdjustment{
		AccountID: accountID,
		Amount:    amount,
		Reason:    strings.TrimSpace(reason),
		Date:      date,
	}
	if err := adj.Validate(); err != nil {
		return core.AccountAdjustment{}, err
	}

	id, err := s.store.CreateAccountAdjustment(ctx, adj)
	if err != nil {
		return core.AccountAdjustment{}, err
	}
	adj.ID = id
	return adj, nil
}

// Transfer moves money between two distinct accounts as a single fact with
// two derived effects. Both endpoints must exist, the amount must be
// positive, and self-transfers are rejected.
func (s *AccountService) Transfer(ctx context.Context, fromID, toID string, amount core.Money, date core.Date) (core.AccountTransfer, error) {
	transfer := core.AccountTransfer{
		ID:            uuid.NewString(),
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        amount,
		Date:          date,
	}
	if err := transfer.Validate(); err != nil {
		return core.AccountTransfer{}, err
	}

	if _, err := s.store.GetAccount(ctx, fromID); err != nil {
		return core.AccountTransfer{}, fmt.Errorf("transfer source: %w", err)
	}
	if _, err := s.store.GetAccount(ctx, toID); err != nil {
		return core.AccountTransfer{}, fmt.Errorf("transfer destination: %w", err)
	}

	if err := s.store.CreateAccountTransfer(ctx, transfer); err != nil {
		return core.AccountTransfer{}, err
	}

	slog.InfoContext(ctx, "Transfer completed",
		"transfer_id", transfer.ID,
		"from", fromID,
		"to", toID,
		"amount_cents", amount.Cents)

	return transfer, nil
}
