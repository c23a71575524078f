// Package storage persists the ledger in SQLite.
//
// All dates are stored as "YYYY-MM-DD" text. Rows that fail to parse back are
// surfaced as data-integrity errors, never silently coerced.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"saldo/internal/core"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func formatDate(d core.Date) string {
	return d.Format(dateLayout)
}

func parseDate(s string) (core.Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return core.Date{}, fmt.Errorf("stored date %q: %w", s, core.ErrInvalidDate)
	}
	return core.Date{Time: t}, nil
}

// --- expenses ---

func (r *Repository) CreateExpense(ctx context.Context, e core.Entry) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (date, description, category, amount_cents, status, account_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		formatDate(e.Date), e.Description, e.Category, e.Amount.Cents, string(e.Status), e.AccountID)
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"date", formatDate(e.Date))

	return id, nil
}

func (r *Repository) GetExpense(ctx context.Context, id int64) (core.Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, date, description, category, amount_cents, status, account_id
		 FROM expenses WHERE id = ? AND deleted_at IS NULL`, id)
	return scanExpense(row)
}

// ListExpenses returns the full non-deleted expense history, oldest first.
func (r *Repository) ListExpenses(ctx context.Context) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, description, category, amount_cents, status, account_id
		 FROM expenses WHERE deleted_at IS NULL ORDER BY date, id`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListExpensesBetween returns non-deleted expenses with from <= date < to.
func (r *Repository) ListExpensesBetween(ctx context.Context, from, to time.Time) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, description, category, amount_cents, status, account_id
		 FROM expenses WHERE deleted_at IS NULL AND date >= ? AND date < ?
		 ORDER BY date, id`,
		from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list expenses between: %w", err)
	}
	defer rows.Close()

	var entries []core.Entry
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *Repository) SoftDeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET deleted_at = datetime('now') WHERE id = ? AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete expense: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Entry, error) {
	var (
		e       core.Entry
		dateStr string
		status  string
	)
	if err := row.Scan(&e.ID, &dateStr, &e.Description, &e.Category, &e.Amount.Cents, &status, &e.AccountID); err != nil {
		return core.Entry{}, fmt.Errorf("scan expense: %w", err)
	}
	date, err := parseDate(dateStr)
	if err != nil {
		return core.Entry{}, err
	}
	e.Date = date
	e.Status = core.EntryStatus(status)
	return e, nil
}

// --- recurring templates ---

func (r *Repository) CreateRecurringTemplate(ctx context.Context, rt core.RecurringTemplate) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_templates (description, category, amount_cents, day_of_month, active)
		 VALUES (?, ?, ?, ?, ?)`,
		rt.Description, rt.Category, rt.Amount.Cents, rt.DayOfMonth, boolToInt(rt.Active))
	if err != nil {
		return 0, fmt.Errorf("create recurring template: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recurring template id: %w", err)
	}

	slog.InfoContext(ctx, "Recurring template created",
		"id", id,
		"description", rt.Description,
		"day_of_month", rt.DayOfMonth)

	return id, nil
}

func (r *Repository) ListRecurringTemplates(ctx context.Context) ([]core.RecurringTemplate, error) {
	return r.listTemplates(ctx,
		`SELECT id, description, category, amount_cents, day_of_month, active
		 FROM recurring_templates ORDER BY id`)
}

func (r *Repository) ListActiveRecurringTemplates(ctx context.Context) ([]core.RecurringTemplate, error) {
	return r.listTemplates(ctx,
		`SELECT id, description, category, amount_cents, day_of_month, active
		 FROM recurring_templates WHERE active = 1 ORDER BY id`)
}

func (r *Repository) listTemplates(ctx context.Context, query string) ([]core.RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	defer rows.Close()

	var templates []core.RecurringTemplate
	for rows.Next() {
		var (
			rt     core.RecurringTemplate
			active int
		)
		if err := rows.Scan(&rt.ID, &rt.Description, &rt.Category, &rt.Amount.Cents, &rt.DayOfMonth, &active); err != nil {
			return nil, fmt.Errorf("scan recurring template: %w", err)
		}
		rt.Active = active != 0
		templates = append(templates, rt)
	}
	return templates, rows.Err()
}

// SetRecurringTemplateActive toggles a template. Templates are never hard
// deleted: history keeps its provenance through materialization records.
func (r *Repository) SetRecurringTemplateActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_templates SET active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("set recurring template active: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set recurring template active: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// --- materialization ---

func (r *Repository) ListMaterializationRecords(ctx context.Context, periodKey string, templateIDs []int64) ([]core.MaterializationRecord, error) {
	if len(templateIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(templateIDs)), ",")
	args := make([]any, 0, len(templateIDs)+1)
	args = append(args, periodKey)
	for _, id := range templateIDs {
		args = append(args, id)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT template_id, period_key, entry_id FROM materialization_records
		 WHERE period_key = ? AND template_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("list materialization records: %w", err)
	}
	defer rows.Close()

	var records []core.MaterializationRecord
	for rows.Next() {
		var rec core.MaterializationRecord
		if err := rows.Scan(&rec.TemplateID, &rec.PeriodKey, &rec.EntryID); err != nil {
			return nil, fmt.Errorf("scan materialization record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CreateMaterializedEntry atomically creates the entry and its
// materialization record in one transaction. The record insert uses
// ON CONFLICT DO NOTHING on (template_id, period_key), so a concurrent or
// repeated call for the same pair creates nothing and reports created=false.
// There is no window in which the entry exists without its record.
func (r *Repository) CreateMaterializedEntry(ctx context.Context, e core.Entry, templateID int64, periodKey string) (int64, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin materialization: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO materialization_records (template_id, period_key, entry_id)
		 VALUES (?, ?, 0)
		 ON CONFLICT (template_id, period_key) DO NOTHING`,
		templateID, periodKey)
	if err != nil {
		return 0, false, fmt.Errorf("insert materialization record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("insert materialization record: %w", err)
	}
	if affected == 0 {
		// Already materialized for this period.
		return 0, false, nil
	}

	entryRes, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (date, description, category, amount_cents, status, account_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		formatDate(e.Date), e.Description, e.Category, e.Amount.Cents, string(e.Status), e.AccountID)
	if err != nil {
		return 0, false, fmt.Errorf("insert materialized entry: %w", err)
	}
	entryID, err := entryRes.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("materialized entry id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE materialization_records SET entry_id = ? WHERE template_id = ? AND period_key = ?`,
		entryID, templateID, periodKey); err != nil {
		return 0, false, fmt.Errorf("link materialization record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit materialization: %w", err)
	}

	slog.InfoContext(ctx, "Materialized recurring entry",
		"template_id", templateID,
		"period_key", periodKey,
		"entry_id", entryID,
		"amount_cents", e.Amount.Cents)

	return entryID, true, nil
}

// ListMaterializedEntryIDs returns the ids of entries generated for a period.
// Entry recurrence is derived from this set, never stored on the entry.
func (r *Repository) ListMaterializedEntryIDs(ctx context.Context, periodKey string) (map[int64]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT entry_id FROM materialization_records WHERE period_key = ? AND entry_id > 0`, periodKey)
	if err != nil {
		return nil, fmt.Errorf("list materialized entry ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan materialized entry id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
