// Package recurrence expands fixed-period recurring events against a
// closed-open query window. Periods are flat durations: MONTHLY is 30 days
// and YEARLY 365, so long series drift against true calendar months.
package recurrence

import (
	"time"

	"github.com/chronograph-app/chronograph/internal/apperr"
	"github.com/chronograph-app/chronograph/internal/models"
)

const (
	minute = time.Minute
	hour   = 60 * minute
	day    = 24 * hour
	week   = 7 * day
	month  = 30 * day
	year   = 365 * day
)

// Period derives the repeat period from a frequency and a positive interval.
func Period(frequency models.Frequency, interval int) (time.Duration, error) {
	if interval <= 0 {
		return 0, apperr.Validation("interval must be a positive integer")
	}

	var unit time.Duration

	switch frequency {
	case models.FrequencyMinutely:
		unit = minute
	case models.FrequencyHourly:
		unit = hour
	case models.FrequencyDaily:
		unit = day
	case models.FrequencyWeekly:
		unit = week
	case models.FrequencyMonthly:
		unit = month
	case models.FrequencyYearly:
		unit = year
	default:
		return 0, apperr.Validation("invalid frequency")
	}

	return time.Duration(interval) * unit, nil
}

// InWindow reports whether t falls in the closed-open window [from, to).
func InWindow(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

// Matches reports whether a series starting at start with the given period
// has an occurrence in [from, to); that is, whether some integer multiple of
// period away from start lands inside the window. A zero period means the
// event does not recur: it matches when start or end is in the window.
func Matches(start time.Time, end *time.Time, period time.Duration, from, to time.Time) bool {
	if period <= 0 {
		if InWindow(start, from, to) {
			return true
		}
		return end != nil && InWindow(*end, from, to)
	}

	if InWindow(start, from, to) {
		return true
	}

	// lastOccurrence is the greatest start+k*period <= from; floor division
	// keeps that true for windows before the series start as well.
	elapsed := from.Sub(start)
	k := floorDiv(int64(elapsed), int64(period))
	last := start.Add(time.Duration(k) * period)
	next := last.Add(period)

	return InWindow(last, from, to) || InWindow(next, from, to)
}

// Occurrences lists the concrete instants of the series inside [from, to),
// never before the series start and never more than limit entries.
func Occurrences(start time.Time, period time.Duration, from, to time.Time, limit int) []time.Time {
	if limit <= 0 {
		return nil
	}

	if period <= 0 {
		if InWindow(start, from, to) {
			return []time.Time{start}
		}
		return nil
	}

	first := start
	if from.After(start) {
		k := floorDiv(int64(from.Sub(start)), int64(period))
		first = start.Add(time.Duration(k) * period)
		if first.Before(from) {
			first = first.Add(period)
		}
	}

	var out []time.Time
	for t := first; t.Before(to) && len(out) < limit; t = t.Add(period) {
		out = append(out, t)
	}

	return out
}

// floorDiv rounds toward negative infinity, unlike Go's truncating division.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
