// Package core — balance replay.
//
// The running balance is a strict left-fold over financial periods ordered by
// key, seeded at zero: every income/expense/invoice fact ever recorded is
// bucketed into a period, then periods are folded in ascending key order with
// each period's closing balance carried into the next. The fold is pure and
// deterministic over an already-fetched fact set; it never touches storage.
package core

import (
	"fmt"
	"sort"
)

// FactSet is the complete history of facts consumed by the balance fold.
// Variants are kept separate so bucketing stays exhaustive and type-checked.
type FactSet struct {
	Expenses     []Entry
	Salaries     []Salary
	ExtraIncomes []ExtraIncome
	Invoices     []Invoice
}

// periodTotals accumulates the per-period sums before folding.
type periodTotals struct {
	income       int64
	expenses     int64
	paidInvoices int64
}

// ComputeBalance replays the full fact history and returns the balance
// snapshot for the period identified by targetKey.
//
// Bucketing rules:
//   - expenses and extra incomes bucket by their date through the period
//     function;
//   - salaries bucket by their nominal month/year, which by definition names
//     the period key directly;
//   - invoices expand their nominal "YYYY-MM" calendar month to its
//     first-of-month date and re-bucket that through the period function,
//     because invoice cycles are calendar-month based while the ledger
//     period may not align with calendar months.
//
// Folding stops once the target key has been processed: later periods cannot
// affect an earlier snapshot. When no facts exist at all the result is the
// all-zero balance for targetKey.
//
// Malformed facts (zero dates, bad invoice months) fail the whole
// computation; a partial balance is never returned.
func ComputeBalance(targetKey string, facts FactSet, startDay int) (PeriodBalance, error) {
	if err := ValidateStartDay(startDay); err != nil {
		return PeriodBalance{}, err
	}
	if _, err := ParseMonthKey(targetKey); err != nil {
		return PeriodBalance{}, fmt.Errorf("target period %q: %w", targetKey, err)
	}

	totals := make(map[string]*periodTotals)
	at := func(key string) *periodTotals {
		t, ok := totals[key]
		if !ok {
			t = &periodTotals{}
			totals[key] = t
		}
		return t
	}

	for _, e := range facts.Expenses {
		if e.Date.IsZero() {
			return PeriodBalance{}, fmt.Errorf("expense %d: %w", e.ID, ErrInvalidDate)
		}
		at(KeyForDate(e.Date.Time, startDay)).expenses += e.Amount.Cents
	}
	for _, s := range facts.Salaries {
		if s.Month < 1 || s.Month > 12 {
			return PeriodBalance{}, fmt.Errorf("salary %d: %w", s.ID, ErrInvalidMonth)
		}
		at(MonthKey(s.Year, s.Month)).income += s.Amount.Cents
	}
	for _, i := range facts.ExtraIncomes {
		if i.Date.IsZero() {
			return PeriodBalance{}, fmt.Errorf("extra income %d: %w", i.ID, ErrInvalidDate)
		}
		at(KeyForDate(i.Date.Time, startDay)).income += i.Amount.Cents
	}
	for _, inv := range facts.Invoices {
		if !inv.Paid {
			continue
		}
		firstOfMonth, err := ParseMonthKey(inv.Month)
		if err != nil {
			return PeriodBalance{}, fmt.Errorf("invoice %d month %q: %w", inv.ID, inv.Month, err)
		}
		at(KeyForDate(firstOfMonth, startDay)).paidInvoices += inv.Total().Cents
	}

	keys := make([]string, 0, len(totals)+1)
	for key := range totals {
		keys = append(keys, key)
	}
	if _, ok := totals[targetKey]; !ok {
		keys = append(keys, targetKey)
	}
	// Zero-padded YYYY-MM keys order correctly under plain string sort.
	sort.Strings(keys)

	var carryOver int64
	for _, key := range keys {
		if key > targetKey {
			break
		}
		t := totals[key]
		if t == nil {
			t = &periodTotals{}
		}
		balance := carryOver + t.income - t.expenses - t.paidInvoices
		if key == targetKey {
			return PeriodBalance{
				PeriodKey:    key,
				Income:       Money{Cents: t.income},
				Expenses:     Money{Cents: t.expenses},
				PaidInvoices: Money{Cents: t.paidInvoices},
				CarryOver:    Money{Cents: carryOver},
				Balance:      Money{Cents: balance},
			}, nil
		}
		carryOver = balance
	}

	// Unreachable: targetKey is always present in keys.
	return PeriodBalance{PeriodKey: targetKey}, nil
}
