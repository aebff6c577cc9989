// Package analytics implements the transaction analytics used by reports:
// date-window selection, grouping, ranking and cashback estimation.
//
// Every function here is pure. Inputs are never mutated and no state is kept
// between calls, so callers may share a transaction slice across goroutines.
package analytics

import (
	"time"

	"spendview/internal/core"
)

// SelectWindow computes the inclusive window for period ending at ref.
// store is only consulted for core.All, where the window starts at the
// earliest operation time. Unknown periods behave like core.Month.
func SelectWindow(ref time.Time, period core.Period, store []core.Transaction) (core.Window, error) {
	if ref.IsZero() {
		return core.Window{}, core.ErrInvalidTimestamp
	}

	var start time.Time
	switch period {
	case core.Week:
		start = startOfWeek(ref)
	case core.Year:
		start = time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, ref.Location())
	case core.All:
		start = ref
		if earliest, ok := earliestOperation(store); ok && earliest.Before(ref) {
			start = earliest
		}
	default:
		// core.Month, core.CalendarMonth and anything unrecognized
		start = startOfMonth(ref)
	}
	return core.Window{Start: start, End: ref}, nil
}

// FilterWindow returns the transactions whose operation time lies in w,
// preserving input order.
func FilterWindow(txs []core.Transaction, w core.Window) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if w.Contains(t.OperationTime) {
			out = append(out, t)
		}
	}
	return out
}

// MonthWindow covers a whole calendar month, from its first to its last instant.
func MonthWindow(year int, month time.Month, loc *time.Location) core.Window {
	if loc == nil {
		loc = time.Local
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return core.Window{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Nanosecond)}
}

// TrailingMonthsWindow covers the months calendar months ending at ref. Day
// overflow is clamped, so May 31 minus three months is Feb 28 (or 29).
func TrailingMonthsWindow(ref time.Time, months int) core.Window {
	return core.Window{Start: addMonthsClamped(ref, -months), End: ref}
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// startOfWeek returns Monday 00:00 of t's ISO week.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

func earliestOperation(txs []core.Transaction) (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, t := range txs {
		if t.OperationTime.IsZero() {
			continue
		}
		if !found || t.OperationTime.Before(earliest) {
			earliest = t.OperationTime
			found = true
		}
	}
	return earliest, found
}

func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return first.AddDate(0, 0, day-1)
}
