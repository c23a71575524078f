package core

import (
	"testing"
	"time"
)

func TestPeriodStart(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		startDay int
		want     time.Time
	}{
		{
			name:     "day before start day falls into previous month",
			date:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			startDay: 5,
			want:     time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "day equal to start day opens the current month",
			date:     time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
			startDay: 5,
			want:     time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "day after start day stays in the current month",
			date:     time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC),
			startDay: 5,
			want:     time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "start day 1 aligns with calendar months",
			date:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			startDay: 1,
			want:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "january date before start day rolls into december",
			date:     time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
			startDay: 10,
			want:     time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PeriodStart(tt.date, tt.startDay)
			if !got.Equal(tt.want) {
				t.Errorf("PeriodStart() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPeriodKey(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		want  string
	}{
		{
			name:  "zero padded month",
			start: time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC),
			want:  "2026-02",
		},
		{
			name:  "december",
			start: time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC),
			want:  "2025-12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PeriodKey(tt.start); got != tt.want {
				t.Errorf("PeriodKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyForDateScenario(t *testing.T) {
	// startDay=5, 2026-03-01 belongs to the period that started 2026-02-05.
	got := KeyForDate(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 5)
	if got != "2026-02" {
		t.Errorf("KeyForDate() = %q, want %q", got, "2026-02")
	}
}

func TestAddPeriods(t *testing.T) {
	start := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		offset int
		want   time.Time
	}{
		{name: "next period", offset: 1, want: time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)},
		{name: "previous period", offset: -1, want: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)},
		{name: "year boundary forward", offset: 11, want: time.Date(2027, 1, 5, 0, 0, 0, 0, time.UTC)},
		{name: "year boundary backward", offset: -2, want: time.Date(2025, 12, 5, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddPeriods(start, tt.offset, 5)
			if !got.Equal(tt.want) {
				t.Errorf("AddPeriods() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Periods must tile the timeline: every date sits inside its own period, and
// the next period starts exactly where this one ends.
func TestPeriodTilingProperty(t *testing.T) {
	dates := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC),
	}

	for startDay := MinStartDay; startDay <= MaxStartDay; startDay++ {
		for _, d := range dates {
			start := PeriodStart(d, startDay)
			end := AddPeriods(start, 1, startDay)
			if start.After(d) {
				t.Fatalf("startDay=%d date=%v: period start %v is after the date", startDay, d, start)
			}
			if !d.Before(end) {
				t.Fatalf("startDay=%d date=%v: date not before period end %v", startDay, d, end)
			}
			if p := PeriodFor(d, startDay); !p.EndExclusive.Equal(end) {
				t.Fatalf("startDay=%d date=%v: PeriodFor end %v, want %v", startDay, d, p.EndExclusive, end)
			}
		}
	}
}

// Bucketing a period's own start date must land in the same period.
func TestKeyForDateRoundTrip(t *testing.T) {
	dates := []time.Time{
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
	}

	for startDay := MinStartDay; startDay <= MaxStartDay; startDay++ {
		for _, d := range dates {
			want := KeyForDate(d, startDay)
			got := KeyForDate(PeriodStart(d, startDay), startDay)
			if got != want {
				t.Errorf("startDay=%d date=%v: round trip key %q, want %q", startDay, d, got, want)
			}
		}
	}
}

func TestValidateStartDay(t *testing.T) {
	tests := []struct {
		name    string
		day     int
		wantErr bool
	}{
		{name: "lower bound", day: 1, wantErr: false},
		{name: "upper bound", day: 28, wantErr: false},
		{name: "zero", day: 0, wantErr: true},
		{name: "29 would skip short februaries", day: 29, wantErr: true},
		{name: "negative", day: -3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStartDay(tt.day)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateStartDay(%d) error = %v, wantErr %v", tt.day, err, tt.wantErr)
			}
		})
	}
}

func TestParseMonthKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    time.Time
		wantErr bool
	}{
		{name: "valid", key: "2026-02", want: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)},
		{name: "missing padding", key: "2026-2", wantErr: true},
		{name: "month out of range", key: "2026-13", wantErr: true},
		{name: "garbage", key: "febbraio", wantErr: true},
		{name: "empty", key: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMonthKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseMonthKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestClampToMonth(t *testing.T) {
	tests := []struct {
		name        string
		day         int
		periodStart time.Time
		want        time.Time
	}{
		{
			name:        "day 31 in a 30-day month clamps to 30",
			day:         31,
			periodStart: time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC),
			want:        time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			name:        "day 31 in non-leap february clamps to 28",
			day:         31,
			periodStart: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			want:        time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		},
		{
			name:        "day 29 in leap february is kept",
			day:         29,
			periodStart: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
			want:        time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:        "day within range is untouched",
			day:         15,
			periodStart: time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC),
			want:        time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampToMonth(tt.day, tt.periodStart)
			if !got.Equal(tt.want) {
				t.Errorf("ClampToMonth() = %v, want %v", got, tt.want)
			}
		})
	}
}
