package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"saldo/internal/core"
)

// fakeStore is an in-memory stand-in for storage.Repository covering every
// port the services need.
type fakeStore struct {
	expenses      map[int64]core.Entry
	deleted       map[int64]bool
	nextExpenseID int64

	templates      map[int64]core.RecurringTemplate
	nextTemplateID int64

	records map[string]core.MaterializationRecord // key: "templateID/periodKey"

	salaries  []core.Salary
	incomes   []core.ExtraIncome
	invoices  []core.Invoice
	snapshots map[string]core.PeriodBalance
	startDay  int

	accounts    map[string]core.Account
	adjustments []core.AccountAdjustment
	transfers   []core.AccountTransfer

	failCreateEntry bool
	listErr         error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		expenses:  make(map[int64]core.Entry),
		deleted:   make(map[int64]bool),
		templates: make(map[int64]core.RecurringTemplate),
		records:   make(map[string]core.MaterializationRecord),
		snapshots: make(map[string]core.PeriodBalance),
		accounts:  make(map[string]core.Account),
		startDay:  1,
	}
}

func recordKey(templateID int64, periodKey string) string {
	return fmt.Sprintf("%d/%s", templateID, periodKey)
}

// --- RecurringStore ---

func (f *fakeStore) ListActiveRecurringTemplates(ctx context.Context) ([]core.RecurringTemplate, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var active []core.RecurringTemplate
	for _, t := range f.templates {
		if t.Active {
			active = append(active, t)
		}
	}
	return active, nil
}

func (f *fakeStore) ListMaterializationRecords(ctx context.Context, periodKey string, templateIDs []int64) ([]core.MaterializationRecord, error) {
	var out []core.MaterializationRecord
	for _, id := range templateIDs {
		if rec, ok := f.records[recordKey(id, periodKey)]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateMaterializedEntry(ctx context.Context, e core.Entry, templateID int64, periodKey string) (int64, bool, error) {
	if f.failCreateEntry {
		return 0, false, fmt.Errorf("storage unavailable")
	}
	key := recordKey(templateID, periodKey)
	if _, exists := f.records[key]; exists {
		return 0, false, nil
	}
	f.nextExpenseID++
	e.ID = f.nextExpenseID
	f.expenses[e.ID] = e
	f.records[key] = core.MaterializationRecord{TemplateID: templateID, PeriodKey: periodKey, EntryID: e.ID}
	return e.ID, true, nil
}

// --- LedgerStore ---

func (f *fakeStore) ListExpenses(ctx context.Context) ([]core.Entry, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []core.Entry
	for id, e := range f.expenses {
		if !f.deleted[id] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) ListExpensesBetween(ctx context.Context, from, to time.Time) ([]core.Entry, error) {
	var out []core.Entry
	for id, e := range f.expenses {
		if f.deleted[id] {
			continue
		}
		if !e.Date.Before(from) && e.Date.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateExpense(ctx context.Context, e core.Entry) (int64, error) {
	f.nextExpenseID++
	e.ID = f.nextExpenseID
	f.expenses[e.ID] = e
	return e.ID, nil
}

func (f *fakeStore) SoftDeleteExpense(ctx context.Context, id int64) error {
	if _, ok := f.expenses[id]; !ok || f.deleted[id] {
		return sql.ErrNoRows
	}
	f.deleted[id] = true
	return nil
}

func (f *fakeStore) GetExpense(ctx context.Context, id int64) (core.Entry, error) {
	e, ok := f.expenses[id]
	if !ok || f.deleted[id] {
		return core.Entry{}, sql.ErrNoRows
	}
	return e, nil
}

func (f *fakeStore) ListMaterializedEntryIDs(ctx context.Context, periodKey string) (map[int64]struct{}, error) {
	ids := make(map[int64]struct{})
	for _, rec := range f.records {
		if rec.PeriodKey == periodKey {
			ids[rec.EntryID] = struct{}{}
		}
	}
	return ids, nil
}

func (f *fakeStore) ListSalaries(ctx context.Context) ([]core.Salary, error) {
	return f.salaries, nil
}

func (f *fakeStore) UpsertSalary(ctx context.Context, s core.Salary) (int64, error) {
	for i, existing := range f.salaries {
		if existing.Year == s.Year && existing.Month == s.Month {
			s.ID = existing.ID
			f.salaries[i] = s
			return s.ID, nil
		}
	}
	s.ID = int64(len(f.salaries) + 1)
	f.salaries = append(f.salaries, s)
	return s.ID, nil
}

func (f *fakeStore) ListExtraIncomes(ctx context.Context) ([]core.ExtraIncome, error) {
	return f.incomes, nil
}

func (f *fakeStore) CreateExtraIncome(ctx context.Context, i core.ExtraIncome) (int64, error) {
	i.ID = int64(len(f.incomes) + 1)
	f.incomes = append(f.incomes, i)
	return i.ID, nil
}

func (f *fakeStore) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	return f.invoices, nil
}

func (f *fakeStore) CreateInvoice(ctx context.Context, inv core.Invoice) (int64, error) {
	inv.ID = int64(len(f.invoices) + 1)
	f.invoices = append(f.invoices, inv)
	return inv.ID, nil
}

func (f *fakeStore) SetInvoicePaid(ctx context.Context, id int64, paid bool) error {
	for i := range f.invoices {
		if f.invoices[i].ID == id {
			f.invoices[i].Paid = paid
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeStore) ListRecurringTemplates(ctx context.Context) ([]core.RecurringTemplate, error) {
	var out []core.RecurringTemplate
	for _, t := range f.templates {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) CreateRecurringTemplate(ctx context.Context, rt core.RecurringTemplate) (int64, error) {
	f.nextTemplateID++
	rt.ID = f.nextTemplateID
	f.templates[rt.ID] = rt
	return rt.ID, nil
}

func (f *fakeStore) SetRecurringTemplateActive(ctx context.Context, id int64, active bool) error {
	t, ok := f.templates[id]
	if !ok {
		return sql.ErrNoRows
	}
	t.Active = active
	f.templates[id] = t
	return nil
}

// --- SnapshotStore ---

func (f *fakeStore) UpsertPeriodSnapshot(ctx context.Context, pb core.PeriodBalance) error {
	f.snapshots[pb.PeriodKey] = pb
	return nil
}

func (f *fakeStore) DeleteAllPeriodSnapshots(ctx context.Context) error {
	f.snapshots = make(map[string]core.PeriodBalance)
	return nil
}

// --- SettingsStore ---

func (f *fakeStore) GetMonthStartDay(ctx context.Context) (int, error) {
	return f.startDay, nil
}

func (f *fakeStore) SetMonthStartDay(ctx context.Context, day int) error {
	if err := core.ValidateStartDay(day); err != nil {
		return err
	}
	f.startDay = day
	return nil
}

// --- AccountStore ---

func (f *fakeStore) CreateAccount(ctx context.Context, a core.Account) error {
	f.accounts[a.ID] = a
	return nil
}

func (f *fakeStore) GetAccount(ctx context.Context, id string) (core.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return core.Account{}, sql.ErrNoRows
	}
	return a, nil
}

func (f *fakeStore) ListAccounts(ctx context.Context) ([]core.Account, error) {
	var out []core.Account
	for _, a := range f.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeStore) CreateAccountAdjustment(ctx context.Context, adj core.AccountAdjustment) (int64, error) {
	adj.ID = int64(len(f.adjustments) + 1)
	f.adjustments = append(f.adjustments, adj)
	return adj.ID, nil
}

func (f *fakeStore) ListAccountAdjustments(ctx context.Context) ([]core.AccountAdjustment, error) {
	return f.adjustments, nil
}

func (f *fakeStore) CreateAccountTransfer(ctx context.Context, t core.AccountTransfer) error {
	f.transfers = append(f.transfers, t)
	return nil
}

func (f *fakeStore) ListAccountTransfers(ctx context.Context) ([]core.AccountTransfer, error) {
	return f.transfers, nil
}

// fakePublisher records published ledger events.
type fakePublisher struct {
	events []string
	err    error
}

func (p *fakePublisher) PublishLedgerEvent(ctx context.Context, kind, op string, id int64, periodKey string) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, fmt.Sprintf("%s:%s:%d:%s", kind, op, id, periodKey))
	return nil
}
