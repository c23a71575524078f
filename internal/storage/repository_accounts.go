package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"saldo/internal/core"
)

// --- accounts ---

func (r *Repository) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, initial_balance_cents) VALUES (?, ?, ?)`,
		a.ID, a.Name, a.InitialBalance.Cents)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	slog.InfoContext(ctx, "Account created",
		"account_id", a.ID,
		"name", a.Name,
		"initial_balance_cents", a.InitialBalance.Cents)

	return nil
}

func (r *Repository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	var (
		a         core.Account
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, initial_balance_cents, created_at FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.InitialBalance.Cents, &createdAt)
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %s: %w", id, err)
	}
	if t, err := time.Parse("2006-01-02 15:04:05", createdAt); err == nil {
		a.CreatedAt = t
	}
	return a, nil
}

func (r *Repository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, initial_balance_cents FROM accounts ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.InitialBalance.Cents); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *Repository) CreateAccountAdjustment(ctx context.Context, adj core.AccountAdjustment) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO account_adjustments (account_id, amount_cents, reason, date) VALUES (?, ?, ?, ?)`,
		adj.AccountID, adj.Amount.Cents, adj.Reason, formatDate(adj.Date))
	if err != nil {
		return 0, fmt.Errorf("create account adjustment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("account adjustment id: %w", err)
	}

	slog.InfoContext(ctx, "Account adjusted",
		"account_id", adj.AccountID,
		"amount_cents", adj.Amount.Cents,
		"reason", adj.Reason)

	return id, nil
}

func (r *Repository) ListAccountAdjustments(ctx context.Context) ([]core.AccountAdjustment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, amount_cents, reason, date FROM account_adjustments ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list account adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []core.AccountAdjustment
	for rows.Next() {
		var (
			adj     core.AccountAdjustment
			dateStr string
		)
		if err := rows.Scan(&adj.ID, &adj.AccountID, &adj.Amount.Cents, &adj.Reason, &dateStr); err != nil {
			return nil, fmt.Errorf("scan account adjustment: %w", err)
		}
		date, err := parseDate(dateStr)
		if err != nil {
			return nil, err
		}
		adj.Date = date
		adjustments = append(adjustments, adj)
	}
	return adjustments, rows.Err()
}

func (r *Repository) CreateAccountTransfer(ctx context.Context, t core.AccountTransfer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO account_transfers (id, from_account_id, to_account_id, amount_cents, date)
		 VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.FromAccountID, t.ToAccountID, t.Amount.Cents, formatDate(t.Date))
	if err != nil {
		return fmt.Errorf("create account transfer: %w", err)
	}

	slog.InfoContext(ctx, "Transfer recorded",
		"transfer_id", t.ID,
		"from", t.FromAccountID,
		"to", t.ToAccountID,
		"amount_cents", t.Amount.Cents)

	return nil
}

func (r *Repository) ListAccountTransfers(ctx context.Context) ([]core.AccountTransfer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, from_account_id, to_account_id, amount_cents, date FROM account_transfers ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list account transfers: %w", err)
	}
	defer rows.Close()

	var transfers []core.AccountTransfer
	for rows.Next() {
		var (
			t       core.AccountTransfer
			dateStr string
		)
		if err := rows.Scan(&t.ID, &t.FromAccountID, &t.ToAccountID, &t.Amount.Cents, &dateStr); err != nil {
			return nil, fmt.Errorf("scan account transfer: %w", err)
		}
		date, err := parseDate(dateStr)
		if err != nil {
			return nil, err
		}
		t.Date = date
		transfers = append(transfers, t)
	}
	return transfers, rows.Err()
}

// --- period snapshots ---

// UpsertPeriodSnapshot caches a folded balance. Snapshots are advisory: the
// replay engine recomputes from raw facts on every query and callers must
// treat stale snapshots as disposable.
func (r *Repository) UpsertPeriodSnapshot(ctx context.Context, pb core.PeriodBalance) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO period_snapshots
		   (period_key, income_cents, expenses_cents, paid_invoices_cents, carry_over_cents, balance_cents, computed_at)
		 VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
		 ON CONFLICT (period_key) DO UPDATE SET
		   income_cents = excluded.income_cents,
		   expenses_cents = excluded.expenses_cents,
		   paid_invoices_cents = excluded.paid_invoices_cents,
		   carry_over_cents = excluded.carry_over_cents,
		   balance_cents = excluded.balance_cents,
		   computed_at = excluded.computed_at`,
		pb.PeriodKey, pb.Income.Cents, pb.Expenses.Cents, pb.PaidInvoices.Cents, pb.CarryOver.Cents, pb.Balance.Cents)
	if err != nil {
		return fmt.Errorf("upsert period snapshot: %w", err)
	}
	return nil
}

func (r *Repository) ListPeriodSnapshots(ctx context.Context) ([]core.PeriodBalance, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT period_key, income_cents, expenses_cents, paid_invoices_cents, carry_over_cents, balance_cents
		 FROM period_snapshots ORDER BY period_key`)
	if err != nil {
		return nil, fmt.Errorf("list period snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []core.PeriodBalance
	for rows.Next() {
		var pb core.PeriodBalance
		if err := rows.Scan(&pb.PeriodKey, &pb.Income.Cents, &pb.Expenses.Cents,
			&pb.PaidInvoices.Cents, &pb.CarryOver.Cents, &pb.Balance.Cents); err != nil {
			return nil, fmt.Errorf("scan period snapshot: %w", err)
		}
		snapshots = append(snapshots, pb)
	}
	return snapshots, rows.Err()
}

// DeleteAllPeriodSnapshots drops the warmed cache. Called when the month
// start day changes, since every historical bucket moves at once.
func (r *Repository) DeleteAllPeriodSnapshots(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM period_snapshots`); err != nil {
		return fmt.Errorf("delete period snapshots: %w", err)
	}
	return nil
}

// --- settings ---

const settingMonthStartDay = "month_start_day"

// GetMonthStartDay returns the configured billing start day, defaulting to 1.
func (r *Repository) GetMonthStartDay(ctx context.Context) (int, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, settingMonthStartDay).Scan(&value)
	if err == sql.ErrNoRows {
		return 1, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get month start day: %w", err)
	}
	day, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("stored month start day %q: %w", value, core.ErrInvalidStartDay)
	}
	if err := core.ValidateStartDay(day); err != nil {
		return 0, err
	}
	return day, nil
}

func (r *Repository) SetMonthStartDay(ctx context.Context, day int) error {
	if err := core.ValidateStartDay(day); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		settingMonthStartDay, strconv.Itoa(day))
	if err != nil {
		return fmt.Errorf("set month start day: %w", err)
	}

	slog.InfoContext(ctx, "Month start day updated", "start_day", day)
	return nil
}
