// Package core — financial period calculation.
//
// A financial period is a billing cycle anchored on a configurable start day
// (1-28), not necessarily aligned to calendar months. Periods tile the
// timeline with no gaps and no overlaps: the exclusive end of one period is
// the start of the next. Nothing is stored per period; every fact is
// re-bucketed from its raw date on each computation, so changing the start
// day retroactively re-buckets all history by construction.
package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	MinStartDay = 1
	MaxStartDay = 28
)

// Period is a derived value, never a stored entity.
type Period struct {
	Start        time.Time
	EndExclusive time.Time
	Key          string
}

// ValidateStartDay rejects start days outside 1-28. Capping at 28 keeps the
// start day valid in every month, February included.
func ValidateStartDay(startDay int) error {
	if startDay < MinStartDay || startDay > MaxStartDay {
		return ErrInvalidStartDay
	}
	return nil
}

// PeriodStart maps a date to the start of its financial period: the startDay
// of the current calendar month when the date's day has reached startDay,
// otherwise the startDay of the previous month.
func PeriodStart(date time.Time, startDay int) time.Time {
	year, month, day := date.Date()
	if day < startDay {
		month--
	}
	// time.Date normalizes month 0 to December of the previous year.
	return time.Date(year, month, startDay, 0, 0, 0, 0, time.UTC)
}

// PeriodKey formats a period start as its zero-padded "YYYY-MM" key. The key
// carries the year and month of the start date, which for start days > 1 is
// not necessarily the month containing "today".
func PeriodKey(periodStart time.Time) string {
	return fmt.Sprintf("%04d-%02d", periodStart.Year(), int(periodStart.Month()))
}

// KeyForDate buckets any timestamped fact into its period key.
func KeyForDate(date time.Time, startDay int) string {
	return PeriodKey(PeriodStart(date, startDay))
}

// AddPeriods advances a period start by offset calendar months, pinning the
// day to startDay. Offsets may be negative. Months with fewer days are not a
// concern because startDay never exceeds 28.
func AddPeriods(periodStart time.Time, offset, startDay int) time.Time {
	year, month, _ := periodStart.Date()
	return time.Date(year, month+time.Month(offset), startDay, 0, 0, 0, 0, time.UTC)
}

// PeriodFor derives the full half-open period containing date.
func PeriodFor(date time.Time, startDay int) Period {
	start := PeriodStart(date, startDay)
	return Period{
		Start:        start,
		EndExclusive: AddPeriods(start, 1, startDay),
		Key:          PeriodKey(start),
	}
}

// MonthKey formats a nominal year/month pair the same way period keys are
// formatted, so nominal-month facts (salaries) compare directly against
// period keys.
func MonthKey(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// ParseMonthKey parses a "YYYY-MM" key back into year and month.
func ParseMonthKey(key string) (time.Time, error) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return time.Time{}, ErrInvalidPeriodKey
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, ErrInvalidPeriodKey
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, ErrInvalidPeriodKey
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

// LastDayOfMonth returns the number of days in the given month.
func LastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampToMonth clamps a day-of-month to the last valid day of the month that
// contains the given period start (e.g. day 31 in a 30-day month becomes 30).
func ClampToMonth(day int, periodStart time.Time) time.Time {
	year, month, _ := periodStart.Date()
	if last := LastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
