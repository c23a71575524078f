// Package core — account ledger.
//
// Per-account balances are independent of financial periods: an account's
// balance is its initial balance plus all adjustments, plus transfers in,
// minus transfers out. A transfer is one fact with two derived effects, so
// money is never created or destroyed by moving it between accounts.
package core

// AccountBalance derives the current balance of an account from its initial
// balance and every adjustment and transfer referencing it. Adjustments and
// transfers for other accounts are ignored, so callers may pass unfiltered
// history.
func AccountBalance(account Account, adjustments []AccountAdjustment, transfers []AccountTransfer) Money {
	cents := account.InitialBalance.Cents
	for _, adj := range adjustments {
		if adj.AccountID == account.ID {
			cents += adj.Amount.Cents
		}
	}
	for _, t := range transfers {
		if t.ToAccountID == account.ID {
			cents += t.Amount.Cents
		}
		if t.FromAccountID == account.ID {
			cents -= t.Amount.Cents
		}
	}
	return Money{Cents: cents}
}
