package services

import (
	"context"
	"time"

	"saldo/internal/core"
)

// Ports for the storage and messaging collaborators. Implemented by
// storage.Repository and amqp.Client; tests substitute in-memory fakes.
type (
	// RecurringStore is what the materializer needs: the active templates,
	// the deduplication ledger, and the atomic entry+record insert.
	RecurringStore interface {
		ListActiveRecurringTemplates(ctx context.Context) ([]core.RecurringTemplate, error)
		ListMaterializationRecords(ctx context.Context, periodKey string, templateIDs []int64) ([]core.MaterializationRecord, error)
		CreateMaterializedEntry(ctx context.Context, e core.Entry, templateID int64, periodKey string) (entryID int64, created bool, err error)
	}

	// LedgerStore covers fact reads and writes for the replay engine and the
	// fact-producing operations.
	LedgerStore interface {
		ListExpenses(ctx context.Context) ([]core.Entry, error)
		ListExpensesBetween(ctx context.Context, from, to time.Time) ([]core.Entry, error)
		CreateExpense(ctx context.Context, e core.Entry) (int64, error)
		SoftDeleteExpense(ctx context.Context, id int64) error
		GetExpense(ctx context.Context, id int64) (core.Entry, error)
		ListMaterializedEntryIDs(ctx context.Context, periodKey string) (map[int64]struct{}, error)

		ListSalaries(ctx context.Context) ([]core.Salary, error)
		UpsertSalary(ctx context.Context, s core.Salary) (int64, error)
		ListExtraIncomes(ctx context.Context) ([]core.ExtraIncome, error)
		CreateExtraIncome(ctx context.Context, i core.ExtraIncome) (int64, error)
		ListInvoices(ctx context.Context) ([]core.Invoice, error)
		CreateInvoice(ctx context.Context, inv core.Invoice) (int64, error)
		SetInvoicePaid(ctx context.Context, id int64, paid bool) error

		ListRecurringTemplates(ctx context.Context) ([]core.RecurringTemplate, error)
		CreateRecurringTemplate(ctx context.Context, rt core.RecurringTemplate) (int64, error)
		SetRecurringTemplateActive(ctx context.Context, id int64, active bool) error
	}

	SnapshotStore interface {
		UpsertPeriodSnapshot(ctx context.Context, pb core.PeriodBalance) error
		DeleteAllPeriodSnapshots(ctx context.Context) error
	}

	SettingsStore interface {
		GetMonthStartDay(ctx context.Context) (int, error)
		SetMonthStartDay(ctx context.Context, day int) error
	}

	AccountStore interface {
		CreateAccount(ctx context.Context, a core.Account) error
		GetAccount(ctx context.Context, id string) (core.Account, error)
		ListAccounts(ctx context.Context) ([]core.Account, error)
		CreateAccountAdjustment(ctx context.Context, adj core.AccountAdjustment) (int64, error)
		ListAccountAdjustments(ctx context.Context) ([]core.AccountAdjustment, error)
		CreateAccountTransfer(ctx context.Context, t core.AccountTransfer) error
		ListAccountTransfers(ctx context.Context) ([]core.AccountTransfer, error)
	}

	// EventPublisher announces fact mutations so the snapshot worker can
	// re-fold the affected period. Publishing is best effort: a failed
	// publish never fails the mutation that triggered it.
	EventPublisher interface {
		PublishLedgerEvent(ctx context.Context, kind, op string, id int64, periodKey string) error
	}
)
