package worker

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/services"
	"saldo/internal/sheets/memory"
)

type workerStore struct {
	salaries  []core.Salary
	snapshots map[string]core.PeriodBalance
	startDay  int
}

func (s *workerStore) ListExpenses(ctx context.Context) ([]core.Entry, error) { return nil, nil }
func (s *workerStore) ListExpensesBetween(ctx context.Context, from, to time.Time) ([]core.Entry, error) {
	return nil, nil
}
func (s *workerStore) CreateExpense(ctx context.Context, e core.Entry) (int64, error) { return 0, nil }
func (s *workerStore) SoftDeleteExpense(ctx context.Context, id int64) error          { return nil }
func (s *workerStore) GetExpense(ctx context.Context, id int64) (core.Entry, error) {
	return core.Entry{}, sql.ErrNoRows
}
func (s *workerStore) ListMaterializedEntryIDs(ctx context.Context, periodKey string) (map[int64]struct{}, error) {
	return nil, nil
}
func (s *workerStore) ListSalaries(ctx context.Context) ([]core.Salary, error) { return s.salaries, nil }
func (s *workerStore) UpsertSalary(ctx context.Context, sal core.Salary) (int64, error) {
	return 0, nil
}
func (s *workerStore) ListExtraIncomes(ctx context.Context) ([]core.ExtraIncome, error) {
	return nil, nil
}
func (s *workerStore) CreateExtraIncome(ctx context.Context, i core.ExtraIncome) (int64, error) {
	return 0, nil
}
func (s *workerStore) ListInvoices(ctx context.Context) ([]core.Invoice, error) { return nil, nil }
func (s *workerStore) CreateInvoice(ctx context.Context, inv core.Invoice) (int64, error) {
	return 0, nil
}
func (s *workerStore) SetInvoicePaid(ctx context.Context, id int64, paid bool) error { return nil }
func (s *workerStore) ListRecurringTemplates(ctx context.Context) ([]core.RecurringTemplate, error) {
	return nil, nil
}
func (s *workerStore) CreateRecurringTemplate(ctx context.Context, rt core.RecurringTemplate) (int64, error) {
	return 0, nil
}
func (s *workerStore) SetRecurringTemplateActive(ctx context.Context, id int64, active bool) error {
	return nil
}
func (s *workerStore) ListActiveRecurringTemplates(ctx context.Context) ([]core.RecurringTemplate, error) {
	return nil, nil
}
func (s *workerStore) ListMaterializationRecords(ctx context.Context, periodKey string, templateIDs []int64) ([]core.MaterializationRecord, error) {
	return nil, nil
}
func (s *workerStore) CreateMaterializedEntry(ctx context.Context, e core.Entry, templateID int64, periodKey string) (int64, bool, error) {
	return 0, false, nil
}
func (s *workerStore) UpsertPeriodSnapshot(ctx context.Context, pb core.PeriodBalance) error {
	s.snapshots[pb.PeriodKey] = pb
	return nil
}
func (s *workerStore) DeleteAllPeriodSnapshots(ctx context.Context) error {
	s.snapshots = make(map[string]core.PeriodBalance)
	return nil
}
func (s *workerStore) GetMonthStartDay(ctx context.Context) (int, error) { return s.startDay, nil }
func (s *workerStore) SetMonthStartDay(ctx context.Context, day int) error {
	s.startDay = day
	return nil
}

func newWorkerFixture() (*SnapshotWorker, *workerStore, *memory.Store) {
	store := &workerStore{
		snapshots: make(map[string]core.PeriodBalance),
		startDay:  1,
		salaries: []core.Salary{
			{ID: 1, Year: 2026, Month: 5, Amount: core.Money{Cents: 320000}},
		},
	}
	ledger := services.NewLedgerService(store, store, store, services.NewMaterializer(store), nil)
	report := memory.New()
	return NewSnapshotWorker(ledger, store, report), store, report
}

func TestHandleLedgerEventRefreshesSnapshot(t *testing.T) {
	w, store, report := newWorkerFixture()

	err := w.HandleLedgerEvent(context.Background(), &amqp.LedgerEventMessage{
		Kind:      "salary",
		Op:        "upsert",
		ID:        1,
		PeriodKey: "2026-05",
	})
	if err != nil {
		t.Fatalf("HandleLedgerEvent() error = %v", err)
	}

	snap, ok := store.snapshots["2026-05"]
	if !ok {
		t.Fatal("expected a snapshot for 2026-05")
	}
	if snap.Balance.Cents != 320000 {
		t.Errorf("snapshot balance = %d, want 320000", snap.Balance.Cents)
	}

	rows := report.Rows()
	if len(rows) != 1 || rows[0].PeriodKey != "2026-05" {
		t.Fatalf("report rows = %+v, want one row for 2026-05", rows)
	}
}

func TestHandleLedgerEventDropsMalformedKey(t *testing.T) {
	w, store, report := newWorkerFixture()

	err := w.HandleLedgerEvent(context.Background(), &amqp.LedgerEventMessage{
		Kind:      "expense",
		Op:        "create",
		ID:        7,
		PeriodKey: "not-a-key",
	})
	if err != nil {
		t.Fatalf("malformed key must be dropped without error, got %v", err)
	}
	if len(store.snapshots) != 0 || len(report.Rows()) != 0 {
		t.Error("malformed key must not produce a snapshot or report row")
	}
}

func TestHandleLedgerEventIsIdempotent(t *testing.T) {
	w, store, report := newWorkerFixture()
	msg := &amqp.LedgerEventMessage{Kind: "salary", Op: "upsert", ID: 1, PeriodKey: "2026-05"}

	for i := 0; i < 3; i++ {
		if err := w.HandleLedgerEvent(context.Background(), msg); err != nil {
			t.Fatalf("delivery %d: %v", i+1, err)
		}
	}

	if len(store.snapshots) != 1 {
		t.Errorf("snapshots = %d, want 1 regardless of redeliveries", len(store.snapshots))
	}
	if len(report.Rows()) != 1 {
		t.Errorf("report rows = %d, want 1 regardless of redeliveries", len(report.Rows()))
	}
}
