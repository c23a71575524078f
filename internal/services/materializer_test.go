package services

import (
	"context"
	"testing"
	"time"

	"saldo/internal/core"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func addTemplate(f *fakeStore, desc string, cents int64, day int, active bool) int64 {
	f.nextTemplateID++
	f.templates[f.nextTemplateID] = core.RecurringTemplate{
		ID:          f.nextTemplateID,
		Description: desc,
		Category:    "casa",
		Amount:      core.Money{Cents: cents},
		DayOfMonth:  day,
		Active:      active,
	}
	return f.nextTemplateID
}

func TestEnsureMaterializedCreatesEntriesOnce(t *testing.T) {
	store := newFakeStore()
	addTemplate(store, "Affitto", 80000, 1, true)
	addTemplate(store, "Internet", 2999, 15, true)

	m := NewMaterializer(store)
	ctx := context.Background()

	created, err := m.EnsureMaterialized(ctx, date(2026, time.March, 10), 1)
	if err != nil {
		t.Fatalf("EnsureMaterialized() error = %v", err)
	}
	if created != 2 {
		t.Fatalf("created = %d, want 2", created)
	}
	if len(store.expenses) != 2 {
		t.Fatalf("expenses stored = %d, want 2", len(store.expenses))
	}
	if len(store.records) != 2 {
		t.Fatalf("materialization records = %d, want 2", len(store.records))
	}

	// Second call for the same period is a no-op.
	created, err = m.EnsureMaterialized(ctx, date(2026, time.March, 25), 1)
	if err != nil {
		t.Fatalf("second EnsureMaterialized() error = %v", err)
	}
	if created != 0 {
		t.Errorf("second call created = %d, want 0", created)
	}
	if len(store.expenses) != 2 {
		t.Errorf("expenses after second call = %d, want 2", len(store.expenses))
	}
	if len(store.records) != 2 {
		t.Errorf("records after second call = %d, want 2", len(store.records))
	}
}

func TestEnsureMaterializedNewPeriodCreatesAgain(t *testing.T) {
	store := newFakeStore()
	addTemplate(store, "Affitto", 80000, 1, true)

	m := NewMaterializer(store)
	ctx := context.Background()

	if _, err := m.EnsureMaterialized(ctx, date(2026, time.March, 10), 1); err != nil {
		t.Fatalf("march: %v", err)
	}
	if _, err := m.EnsureMaterialized(ctx, date(2026, time.April, 10), 1); err != nil {
		t.Fatalf("april: %v", err)
	}

	if len(store.expenses) != 2 {
		t.Errorf("expenses = %d, want one per period", len(store.expenses))
	}
}

func TestEnsureMaterializedClampsDayOfMonth(t *testing.T) {
	tests := []struct {
		name     string
		day      int
		date     time.Time
		wantDate time.Time
	}{
		{"day 31 in april lands on the 30th", 31, date(2026, time.April, 12), date(2026, time.April, 30)},
		{"day 31 in february lands on the 28th", 31, date(2026, time.February, 3), date(2026, time.February, 28)},
		{"day 29 kept in leap february", 29, date(2028, time.February, 3), date(2028, time.February, 29)},
		{"day 10 untouched", 10, date(2026, time.April, 12), date(2026, time.April, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			addTemplate(store, "Abbonamento", 999, tt.day, true)

			m := NewMaterializer(store)
			if _, err := m.EnsureMaterialized(context.Background(), tt.date, 1); err != nil {
				t.Fatalf("EnsureMaterialized() error = %v", err)
			}

			if len(store.expenses) != 1 {
				t.Fatalf("expenses = %d, want 1", len(store.expenses))
			}
			for _, e := range store.expenses {
				if !e.Date.Equal(tt.wantDate) {
					t.Errorf("entry date = %s, want %s",
						e.Date.Format("2006-01-02"), tt.wantDate.Format("2006-01-02"))
				}
				if e.Status != core.StatusPaid {
					t.Errorf("entry status = %s, want %s", e.Status, core.StatusPaid)
				}
			}
		})
	}
}

func TestEnsureMaterializedSkipsInactiveTemplates(t *testing.T) {
	store := newFakeStore()
	addTemplate(store, "Attivo", 1000, 5, true)
	addTemplate(store, "Sospeso", 2000, 5, false)

	m := NewMaterializer(store)
	created, err := m.EnsureMaterialized(context.Background(), date(2026, time.May, 7), 1)
	if err != nil {
		t.Fatalf("EnsureMaterialized() error = %v", err)
	}
	if created != 1 {
		t.Errorf("created = %d, want 1", created)
	}
}

func TestEnsureMaterializedNoBackfillAfterReactivation(t *testing.T) {
	store := newFakeStore()
	id := addTemplate(store, "Palestra", 4500, 1, true)

	m := NewMaterializer(store)
	ctx := context.Background()

	if _, err := m.EnsureMaterialized(ctx, date(2026, time.January, 10), 1); err != nil {
		t.Fatalf("january: %v", err)
	}

	// Deactivate; February and March pass without the template.
	tmpl := store.templates[id]
	tmpl.Active = false
	store.templates[id] = tmpl
	for _, d := range []time.Time{date(2026, time.February, 10), date(2026, time.March, 10)} {
		if created, err := m.EnsureMaterialized(ctx, d, 1); err != nil || created != 0 {
			t.Fatalf("inactive period %s: created=%d err=%v", d.Format("2006-01"), created, err)
		}
	}

	// Re-activate in April: only April materializes, the skipped periods stay skipped.
	tmpl.Active = true
	store.templates[id] = tmpl
	created, err := m.EnsureMaterialized(ctx, date(2026, time.April, 10), 1)
	if err != nil {
		t.Fatalf("april: %v", err)
	}
	if created != 1 {
		t.Errorf("april created = %d, want 1", created)
	}
	if len(store.expenses) != 2 {
		t.Errorf("total entries = %d, want 2 (january and april only)", len(store.expenses))
	}
	for _, key := range []string{"2026-02", "2026-03"} {
		if _, ok := store.records[recordKey(id, key)]; ok {
			t.Errorf("unexpected backfilled record for %s", key)
		}
	}
}

func TestEnsureMaterializedRespectsStartDay(t *testing.T) {
	store := newFakeStore()
	addTemplate(store, "Affitto", 80000, 3, true)

	m := NewMaterializer(store)
	// March 1st with startDay 5 is still in the period starting February 5th.
	if _, err := m.EnsureMaterialized(context.Background(), date(2026, time.March, 1), 5); err != nil {
		t.Fatalf("EnsureMaterialized() error = %v", err)
	}

	for _, rec := range store.records {
		if rec.PeriodKey != "2026-02" {
			t.Errorf("period key = %s, want 2026-02", rec.PeriodKey)
		}
	}
	for _, e := range store.expenses {
		want := date(2026, time.February, 3)
		if !e.Date.Equal(want) {
			t.Errorf("entry date = %s, want %s", e.Date.Format("2006-01-02"), want.Format("2006-01-02"))
		}
	}
}

func TestEnsureMaterializedInvalidStartDay(t *testing.T) {
	m := NewMaterializer(newFakeStore())
	for _, day := range []int{0, 29, -1} {
		if _, err := m.EnsureMaterialized(context.Background(), date(2026, time.March, 1), day); err == nil {
			t.Errorf("EnsureMaterialized(startDay=%d) expected error", day)
		}
	}
}

func TestEnsureMaterializedStoreFailure(t *testing.T) {
	store := newFakeStore()
	addTemplate(store, "Affitto", 80000, 1, true)
	store.failCreateEntry = true

	m := NewMaterializer(store)
	created, err := m.EnsureMaterialized(context.Background(), date(2026, time.March, 10), 1)
	if err == nil {
		t.Fatal("expected error when the store rejects the insert")
	}
	if created != 0 {
		t.Errorf("created = %d, want 0", created)
	}
}
