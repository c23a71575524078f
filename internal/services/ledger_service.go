package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"saldo/internal/core"
)

// LedgerService orchestrates the financial period ledger: it sequences
// materialization before balance reads, gathers the full fact history, and
// hands it to the pure replay fold. Every query replays from raw facts, so
// changing the month start day re-buckets all history with no stored state
// to migrate.
type LedgerService struct {
	store        LedgerStore
	snapshots    SnapshotStore
	settings     SettingsStore
	materializer *Materializer
	events       EventPublisher // optional
}

// EntryView is an expense entry together with its derived recurrence flag.
// Recurrence is membership in the period's materialization records, never a
// column on the entry.
type EntryView struct {
	core.Entry
	IsRecurring bool
}

func NewLedgerService(store LedgerStore, snapshots SnapshotStore, settings SettingsStore, materializer *Materializer, events EventPublisher) *LedgerService {
	return &LedgerService{
		store:        store,
		snapshots:    snapshots,
		settings:     settings,
		materializer: materializer,
		events:       events,
	}
}

// MonthStartDay returns the persisted billing start day preference.
func (s *LedgerService) MonthStartDay(ctx context.Context) (int, error) {
	return s.settings.GetMonthStartDay(ctx)
}

// SetMonthStartDay updates the billing start day and drops every warmed
// snapshot: all historical buckets move at once, so incremental patching is
// never attempted.
func (s *LedgerService) SetMonthStartDay(ctx context.Context, day int) error {
	if err := core.ValidateStartDay(day); err != nil {
		return err
	}
	if err := s.settings.SetMonthStartDay(ctx, day); err != nil {
		return err
	}
	if err := s.snapshots.DeleteAllPeriodSnapshots(ctx); err != nil {
		return fmt.Errorf("invalidate snapshots: %w", err)
	}
	return nil
}

// PeriodBalance materializes the period containing date, replays the full
// fact history, and returns the folded snapshot for that period.
// Materialization runs first so freshly due recurring entries participate in
// the same fold — this ordering is a causal dependency, not a timing
// assumption. On any failure no balance is returned: a wrong number is worse
// than no number.
func (s *LedgerService) PeriodBalance(ctx context.Context, date time.Time, startDay int) (core.PeriodBalance, error) {
	if err := core.ValidateStartDay(startDay); err != nil {
		return core.PeriodBalance{}, err
	}

	if _, err := s.materializer.EnsureMaterialized(ctx, date, startDay); err != nil {
		return core.PeriodBalance{}, fmt.Errorf("ensure materialized: %w", err)
	}

	facts, err := s.gatherFacts(ctx)
	if err != nil {
		return core.PeriodBalance{}, err
	}

	targetKey := core.KeyForDate(date, startDay)
	balance, err := core.ComputeBalance(targetKey, facts, startDay)
	if err != nil {
		return core.PeriodBalance{}, fmt.Errorf("compute balance for %s: %w", targetKey, err)
	}

	// Warm the snapshot cache for dashboards and exports; losing this write
	// costs nothing, the fold is authoritative.
	if s.snapshots != nil {
		if err := s.snapshots.UpsertPeriodSnapshot(ctx, balance); err != nil {
			slog.WarnContext(ctx, "Failed to warm period snapshot",
				"period_key", balance.PeriodKey,
				"error", err)
		}
	}

	return balance, nil
}

// BalanceForKey replays history for an explicit period key. Used by the
// snapshot worker, which receives keys rather than dates.
func (s *LedgerService) BalanceForKey(ctx context.Context, periodKey string, startDay int) (core.PeriodBalance, error) {
	if err := core.ValidateStartDay(startDay); err != nil {
		return core.PeriodBalance{}, err
	}
	facts, err := s.gatherFacts(ctx)
	if err != nil {
		return core.PeriodBalance{}, err
	}
	balance, err := core.ComputeBalance(periodKey, facts, startDay)
	if err != nil {
		return core.PeriodBalance{}, fmt.Errorf("compute balance for %s: %w", periodKey, err)
	}
	return balance, nil
}

func (s *LedgerService) gatherFacts(ctx context.Context) (core.FactSet, error) {
	var facts core.FactSet

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		expenses, err := s.store.ListExpenses(gctx)
		if err != nil {
			return fmt.Errorf("gather expenses: %w", err)
		}
		facts.Expenses = expenses
		return nil
	})
	g.Go(func() error {
		salaries, err := s.store.ListSalaries(gctx)
		if err != nil {
			return fmt.Errorf("gather salaries: %w", err)
		}
		facts.Salaries = salaries
		return nil
	})
	g.Go(func() error {
		incomes, err := s.store.ListExtraIncomes(gctx)
		if err != nil {
			return fmt.Errorf("gather extra incomes: %w", err)
		}
		facts.ExtraIncomes = incomes
		return nil
	})
	g.Go(func() error {
		invoices, err := s.store.ListInvoices(gctx)
		if err != nil {
			return fmt.Errorf("gather invoices: %w", err)
		}
		facts.Invoices = invoices
		return nil
	})

	if err := g.Wait(); err != nil {
		return core.FactSet{}, err
	}
	return facts, nil
}

// PeriodEntries lists the entries of the period containing date, with the
// recurrence flag derived from materialization records. Materialization is
// sequenced before the read so a freshly due entry is never invisible.
func (s *LedgerService) PeriodEntries(ctx context.Context, date time.Time, startDay int) ([]EntryView, error) {
	if err := core.ValidateStartDay(startDay); err != nil {
		return nil, err
	}

	if _, err := s.materializer.EnsureMaterialized(ctx, date, startDay); err != nil {
		return nil, fmt.Errorf("ensure materialized: %w", err)
	}

	period := core.PeriodFor(date, startDay)
	entries, err := s.store.ListExpensesBetween(ctx, period.Start, period.EndExclusive)
	if err != nil {
		return nil, fmt.Errorf("list period entries: %w", err)
	}
	generated, err := s.store.ListMaterializedEntryIDs(ctx, period.Key)
	if err != nil {
		return nil, fmt.Errorf("list materialized entry ids: %w", err)
	}

	views := make([]EntryView, len(entries))
	for i, e := range entries {
		_, isRecurring := generated[e.ID]
		views[i] = EntryView{Entry: e, IsRecurring: isRecurring}
	}
	return views, nil
}

// --- fact producers ---

func (s *LedgerService) CreateExpense(ctx context.Context, e core.Entry, startDay int) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	id, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, "expense", "create", id, core.KeyForDate(e.Date.Time, startDay))
	return id, nil
}

func (s *LedgerService) DeleteExpense(ctx context.Context, id int64, startDay int) error {
	entry, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("get expense %d: %w", id, err)
	}
	if err := s.store.SoftDeleteExpense(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, "expense", "delete", id, core.KeyForDate(entry.Date.Time, startDay))
	return nil
}

func (s *LedgerService) RecordSalary(ctx context.Context, sal core.Salary) (int64, error) {
	if err := sal.Validate(); err != nil {
		return 0, err
	}
	id, err := s.store.UpsertSalary(ctx, sal)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, "salary", "upsert", id, core.MonthKey(sal.Year, sal.Month))
	return id, nil
}

func (s *LedgerService) RecordExtraIncome(ctx context.Context, inc core.ExtraIncome, startDay int) (int64, error) {
	if err := inc.Validate(); err != nil {
		return 0, err
	}
	id, err := s.store.CreateExtraIncome(ctx, inc)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, "extra_income", "create", id, core.KeyForDate(inc.Date.Time, startDay))
	return id, nil
}

func (s *LedgerService) RecordInvoice(ctx context.Context, inv core.Invoice, startDay int) (int64, error) {
	if err := inv.Validate(); err != nil {
		return 0, err
	}
	id, err := s.store.CreateInvoice(ctx, inv)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, "invoice", "create", id, s.invoicePeriodKey(inv.Month, startDay))
	return id, nil
}

func (s *LedgerService) SetInvoicePaid(ctx context.Context, id int64, paid bool, month string, startDay int) error {
	if err := s.store.SetInvoicePaid(ctx, id, paid); err != nil {
		return err
	}
	s.publish(ctx, "invoice", "update", id, s.invoicePeriodKey(month, startDay))
	return nil
}

// invoicePeriodKey re-buckets an invoice's nominal calendar month into the
// financial period containing its first day.
func (s *LedgerService) invoicePeriodKey(month string, startDay int) string {
	firstOfMonth, err := core.ParseMonthKey(month)
	if err != nil {
		return month
	}
	return core.KeyForDate(firstOfMonth, startDay)
}

// --- recurring templates ---

func (s *LedgerService) ListRecurringTemplates(ctx context.Context) ([]core.RecurringTemplate, error) {
	return s.store.ListRecurringTemplates(ctx)
}

func (s *LedgerService) CreateRecurringTemplate(ctx context.Context, rt core.RecurringTemplate) (int64, error) {
	if err := rt.Validate(); err != nil {
		return 0, err
	}
	return s.store.CreateRecurringTemplate(ctx, rt)
}

// SetRecurringTemplateActive toggles a template. Deactivation stops future
// materialization; re-activation applies from the next touched period only.
func (s *LedgerService) SetRecurringTemplateActive(ctx context.Context, id int64, active bool) error {
	return s.store.SetRecurringTemplateActive(ctx, id, active)
}

func (s *LedgerService) publish(ctx context.Context, kind, op string, id int64, periodKey string) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishLedgerEvent(ctx, kind, op, id, periodKey); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", kind,
			"op", op,
			"id", id,
			"period_key", periodKey,
			"error", err)
	}
}
