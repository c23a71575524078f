package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"saldo/internal/core"
)

func TestCreateAccountAssignsID(t *testing.T) {
	store := newFakeStore()
	svc := NewAccountService(store)

	account, err := svc.CreateAccount(context.Background(), "  Conto corrente  ", core.Money{Cents: 100000})
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if account.ID == "" {
		t.Error("expected a generated id")
	}
	if account.Name != "Conto corrente" {
		t.Errorf("name = %q, want trimmed", account.Name)
	}
	if _, ok := store.accounts[account.ID]; !ok {
		t.Error("account not persisted")
	}
}

func TestCreateAccountRejectsEmptyName(t *testing.T) {
	svc := NewAccountService(newFakeStore())
	if _, err := svc.CreateAccount(context.Background(), "   ", core.Money{}); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestAccountBalanceScenario(t *testing.T) {
	store := newFakeStore()
	svc := NewAccountService(store)
	ctx := context.Background()

	checking, err := svc.CreateAccount(ctx, "Conto corrente", core.Money{Cents: 100000})
	if err != nil {
		t.Fatalf("create checking: %v", err)
	}
	savings, err := svc.CreateAccount(ctx, "Risparmi", core.Money{Cents: 0})
	if err != nil {
		t.Fatalf("create savings: %v", err)
	}

	when := core.Date{Time: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)}
	if _, err := svc.Adjust(ctx, checking.ID, core.Money{Cents: 20000}, "interessi", when); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if _, err := svc.Transfer(ctx, checking.ID, savings.ID, core.Money{Cents: 30000}, when); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	got, err := svc.Balance(ctx, checking.ID)
	if err != nil {
		t.Fatalf("balance checking: %v", err)
	}
	if got.Cents != 90000 {
		t.Errorf("checking balance = %d, want 90000", got.Cents)
	}

	got, err = svc.Balance(ctx, savings.ID)
	if err != nil {
		t.Fatalf("balance savings: %v", err)
	}
	if got.Cents != 30000 {
		t.Errorf("savings balance = %d, want 30000", got.Cents)
	}
}

func TestAdjustAllowsNegativeAmounts(t *testing.T) {
	store := newFakeStore()
	svc := NewAccountService(store)
	ctx := context.Background()

	account, err := svc.CreateAccount(ctx, "Contanti", core.Money{Cents: 1000})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	when := core.Date{Time: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)}
	if _, err := svc.Adjust(ctx, account.ID, core.Money{Cents: -4000}, "commissioni", when); err != nil {
		t.Fatalf("negative adjust: %v", err)
	}

	got, err := svc.Balance(ctx, account.ID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	// No overdraft policy: the derived balance may go below zero.
	if got.Cents != -3000 {
		t.Errorf("balance = %d, want -3000", got.Cents)
	}
}

func TestAdjustUnknownAccount(t *testing.T) {
	svc := NewAccountService(newFakeStore())
	when := core.Date{Time: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)}
	if _, err := svc.Adjust(context.Background(), "missing", core.Money{Cents: 100}, "x", when); err == nil {
		t.Fatal("expected error for unknown account")
	}
}

func TestTransferValidation(t *testing.T) {
	store := newFakeStore()
	svc := NewAccountService(store)
	ctx := context.Background()

	a, _ := svc.CreateAccount(ctx, "A", core.Money{Cents: 5000})
	b, _ := svc.CreateAccount(ctx, "B", core.Money{})
	when := core.Date{Time: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)}

	tests := []struct {
		name    string
		from    string
		to      string
		amount  int64
		wantErr error
	}{
		{"self transfer rejected", a.ID, a.ID, 100, core.ErrSelfTransfer},
		{"zero amount rejected", a.ID, b.ID, 0, core.ErrInvalidAmount},
		{"negative amount rejected", a.ID, b.ID, -50, core.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Transfer(ctx, tt.from, tt.to, core.Money{Cents: tt.amount}, when)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Transfer() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if len(store.transfers) != 0 {
		t.Errorf("transfers stored = %d, want 0", len(store.transfers))
	}
}

func TestTransferUnknownEndpoints(t *testing.T) {
	store := newFakeStore()
	svc := NewAccountService(store)
	ctx := context.Background()

	a, _ := svc.CreateAccount(ctx, "A", core.Money{Cents: 5000})
	when := core.Date{Time: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)}

	if _, err := svc.Transfer(ctx, a.ID, "ghost", core.Money{Cents: 100}, when); err == nil {
		t.Error("expected error for unknown destination")
	}
	if _, err := svc.Transfer(ctx, "ghost", a.ID, core.Money{Cents: 100}, when); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestTransferConservesMoney(t *testing.T) {
	store := newFakeStore()
	svc := NewAccountService(store)
	ctx := context.Background()

	a, _ := svc.CreateAccount(ctx, "A", core.Money{Cents: 70000})
	b, _ := svc.CreateAccount(ctx, "B", core.Money{Cents: 30000})
	when := core.Date{Time: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)}

	for _, cents := range []int64{10000, 2500, 499} {
		if _, err := svc.Transfer(ctx, a.ID, b.ID, core.Money{Cents: cents}, when); err != nil {
			t.Fatalf("transfer %d: %v", cents, err)
		}
	}

	balA, _ := svc.Balance(ctx, a.ID)
	balB, _ := svc.Balance(ctx, b.ID)
	if balA.Cents+balB.Cents != 100000 {
		t.Errorf("total = %d, want 100000 conserved across transfers", balA.Cents+balB.Cents)
	}
}
