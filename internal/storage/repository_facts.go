package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"saldo/internal/core"
)

// --- salaries ---

// UpsertSalary records the salary for a nominal month, replacing any
// previous declaration for the same month.
func (r *Repository) UpsertSalary(ctx context.Context, s core.Salary) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO salaries (year, month, amount_cents) VALUES (?, ?, ?)
		 ON CONFLICT (year, month) DO UPDATE SET amount_cents = excluded.amount_cents`,
		s.Year, s.Month, s.Amount.Cents)
	if err != nil {
		return 0, fmt.Errorf("upsert salary: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("salary id: %w", err)
	}

	slog.InfoContext(ctx, "Salary recorded",
		"year", s.Year,
		"month", s.Month,
		"amount_cents", s.Amount.Cents)

	return id, nil
}

func (r *Repository) ListSalaries(ctx context.Context) ([]core.Salary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, year, month, amount_cents FROM salaries ORDER BY year, month`)
	if err != nil {
		return nil, fmt.Errorf("list salaries: %w", err)
	}
	defer rows.Close()

	var salaries []core.Salary
	for rows.Next() {
		var s core.Salary
		if err := rows.Scan(&s.ID, &s.Year, &s.Month, &s.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan salary: %w", err)
		}
		salaries = append(salaries, s)
	}
	return salaries, rows.Err()
}

// --- extra incomes ---

func (r *Repository) CreateExtraIncome(ctx context.Context, i core.ExtraIncome) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO extra_incomes (date, description, amount_cents) VALUES (?, ?, ?)`,
		formatDate(i.Date), i.Description, i.Amount.Cents)
	if err != nil {
		return 0, fmt.Errorf("create extra income: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("extra income id: %w", err)
	}

	slog.InfoContext(ctx, "Extra income recorded",
		"id", id,
		"description", i.Description,
		"amount_cents", i.Amount.Cents)

	return id, nil
}

func (r *Repository) ListExtraIncomes(ctx context.Context) ([]core.ExtraIncome, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, description, amount_cents FROM extra_incomes ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list extra incomes: %w", err)
	}
	defer rows.Close()

	var incomes []core.ExtraIncome
	for rows.Next() {
		var (
			i       core.ExtraIncome
			dateStr string
		)
		if err := rows.Scan(&i.ID, &dateStr, &i.Description, &i.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan extra income: %w", err)
		}
		date, err := parseDate(dateStr)
		if err != nil {
			return nil, err
		}
		i.Date = date
		incomes = append(incomes, i)
	}
	return incomes, rows.Err()
}

// --- invoices ---

func (r *Repository) CreateInvoice(ctx context.Context, inv core.Invoice) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin invoice: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO invoices (card_id, month, paid) VALUES (?, ?, ?)`,
		inv.CardID, inv.Month, boolToInt(inv.Paid))
	if err != nil {
		return 0, fmt.Errorf("create invoice: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("invoice id: %w", err)
	}

	for _, item := range inv.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO invoice_items (invoice_id, description, amount_cents) VALUES (?, ?, ?)`,
			id, item.Description, item.Amount.Cents); err != nil {
			return 0, fmt.Errorf("create invoice item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit invoice: %w", err)
	}

	slog.InfoContext(ctx, "Invoice recorded",
		"id", id,
		"card_id", inv.CardID,
		"month", inv.Month,
		"items", len(inv.Items),
		"total_cents", inv.Total().Cents)

	return id, nil
}

func (r *Repository) SetInvoicePaid(ctx context.Context, id int64, paid bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET paid = ? WHERE id = ?`, boolToInt(paid), id)
	if err != nil {
		return fmt.Errorf("set invoice paid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set invoice paid: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *Repository) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, card_id, month, paid FROM invoices ORDER BY month, id`)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []core.Invoice
	byID := make(map[int64]int)
	for rows.Next() {
		var (
			inv  core.Invoice
			paid int
		)
		if err := rows.Scan(&inv.ID, &inv.CardID, &inv.Month, &paid); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		inv.Paid = paid != 0
		byID[inv.ID] = len(invoices)
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemRows, err := r.db.QueryContext(ctx,
		`SELECT id, invoice_id, description, amount_cents FROM invoice_items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list invoice items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var (
			item      core.InvoiceItem
			invoiceID int64
		)
		if err := itemRows.Scan(&item.ID, &invoiceID, &item.Description, &item.Amount.Cents); err != nil {
			return nil, fmt.Errorf("scan invoice item: %w", err)
		}
		if idx, ok := byID[invoiceID]; ok {
			invoices[idx].Items = append(invoices[idx].Items, item)
		}
	}
	return invoices, itemRows.Err()
}
