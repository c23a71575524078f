package worker

import (
	"context"
	"fmt"
	"log/slog"

	"saldo/internal/amqp"
	"saldo/internal/core"
	"saldo/internal/services"
	"saldo/internal/sheets"
)

// SnapshotWorker re-folds period balances when ledger events arrive, warms
// the snapshot cache, and optionally exports the result to an external
// report. Messages carry only identities; every balance is recomputed from
// the database, so duplicate or reordered deliveries converge on the same
// result.
type SnapshotWorker struct {
	ledger    *services.LedgerService
	snapshots services.SnapshotStore
	report    sheets.ReportWriter // optional
}

func NewSnapshotWorker(ledger *services.LedgerService, snapshots services.SnapshotStore, report sheets.ReportWriter) *SnapshotWorker {
	return &SnapshotWorker{
		ledger:    ledger,
		snapshots: snapshots,
		report:    report,
	}
}

// HandleLedgerEvent processes a single ledger event from AMQP.
func (w *SnapshotWorker) HandleLedgerEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	slog.InfoContext(ctx, "Processing ledger event",
		"kind", msg.Kind,
		"op", msg.Op,
		"id", msg.ID,
		"period_key", msg.PeriodKey)

	return w.refreshPeriod(ctx, msg.PeriodKey)
}

// RefreshCurrentPeriod re-folds the period containing now. Called on a timer
// as a backup for lost messages and to pick up newly due recurring entries.
func (w *SnapshotWorker) RefreshCurrentPeriod(ctx context.Context, periodKey string) error {
	return w.refreshPeriod(ctx, periodKey)
}

func (w *SnapshotWorker) refreshPeriod(ctx context.Context, periodKey string) error {
	if _, err := core.ParseMonthKey(periodKey); err != nil {
		// A malformed key can never succeed; drop instead of requeueing.
		slog.ErrorContext(ctx, "Dropping event with malformed period key",
			"period_key", periodKey,
			"error", err)
		return nil
	}

	startDay, err := w.ledger.MonthStartDay(ctx)
	if err != nil {
		return fmt.Errorf("load month start day: %w", err)
	}

	balance, err := w.ledger.BalanceForKey(ctx, periodKey, startDay)
	if err != nil {
		return fmt.Errorf("fold period %s: %w", periodKey, err)
	}

	if err := w.snapshots.UpsertPeriodSnapshot(ctx, balance); err != nil {
		return fmt.Errorf("store snapshot %s: %w", periodKey, err)
	}

	if w.report != nil {
		ref, err := w.report.AppendPeriodReport(ctx, balance)
		if err != nil {
			// The snapshot is already stored; export failure is not worth a requeue storm.
			slog.ErrorContext(ctx, "Failed to export period report",
				"period_key", periodKey,
				"error", err)
		} else {
			slog.InfoContext(ctx, "Exported period report",
				"period_key", periodKey,
				"row_ref", ref)
		}
	}

	slog.InfoContext(ctx, "Period snapshot refreshed",
		"period_key", periodKey,
		"balance_cents", balance.Balance.Cents,
		"carry_over_cents", balance.CarryOver.Cents)

	return nil
}
