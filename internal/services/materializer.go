package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"saldo/internal/core"
)

// Materializer turns active recurring templates into concrete dated entries,
// exactly once per financial period. Idempotency comes from the
// materialization-record ledger: the store's conditional insert on
// (template_id, period_key) makes repeated or concurrent calls harmless.
type Materializer struct {
	store RecurringStore
}

func NewMaterializer(store RecurringStore) *Materializer {
	if store == nil {
		panic("services: nil recurring store")
	}
	return &Materializer{store: store}
}

// EnsureMaterialized makes sure every active template has its entry for the
// period containing date. Safe to call any number of times for the same
// period. Templates that were inactive when a period was touched are skipped
// for good: re-activating a template never backfills skipped periods.
//
// Returns the number of entries created by this call.
func (m *Materializer) EnsureMaterialized(ctx context.Context, date time.Time, startDay int) (int, error) {
	if err := core.ValidateStartDay(startDay); err != nil {
		return 0, err
	}
	period := core.PeriodFor(date, startDay)

	templates, err := m.store.ListActiveRecurringTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active templates: %w", err)
	}
	if len(templates) == 0 {
		return 0, nil
	}

	templateIDs := make([]int64, len(templates))
	for i, t := range templates {
		templateIDs[i] = t.ID
	}

	records, err := m.store.ListMaterializationRecords(ctx, period.Key, templateIDs)
	if err != nil {
		return 0, fmt.Errorf("list materialization records: %w", err)
	}
	done := make(map[int64]struct{}, len(records))
	for _, rec := range records {
		done[rec.TemplateID] = struct{}{}
	}

	created := 0
	var errs []error
	for _, t := range templates {
		if _, ok := done[t.ID]; ok {
			continue
		}

		entry := core.Entry{
			Date:        core.Date{Time: core.ClampToMonth(t.DayOfMonth, period.Start)},
			Description: t.Description,
			Category:    t.Category,
			Amount:      t.Amount,
			Status:      core.StatusPaid,
		}

		entryID, inserted, err := m.store.CreateMaterializedEntry(ctx, entry, t.ID, period.Key)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to materialize template",
				"template_id", t.ID,
				"period_key", period.Key,
				"error", err)
			errs = append(errs, fmt.Errorf("template %d: %w", t.ID, err))
			continue
		}
		if !inserted {
			// Lost the race to another invocation; nothing to do.
			continue
		}

		created++
		slog.InfoContext(ctx, "Created entry from recurring template",
			"template_id", t.ID,
			"period_key", period.Key,
			"entry_id", entryID,
			"amount_cents", t.Amount.Cents)
	}

	if len(errs) > 0 {
		return created, fmt.Errorf("materialize period %s: %w", period.Key, errors.Join(errs...))
	}

	slog.DebugContext(ctx, "Materialization complete",
		"period_key", period.Key,
		"templates_checked", len(templates),
		"entries_created", created)

	return created, nil
}
