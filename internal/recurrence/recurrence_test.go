package recurrence

import (
	"testing"
	"time"

	"github.com/chronograph-app/chronograph/internal/models"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestPeriod(t *testing.T) {
	cases := []struct {
		frequency models.Frequency
		interval  int
		want      time.Duration
	}{
		{models.FrequencyMinutely, 1, time.Minute},
		{models.FrequencyHourly, 2, 2 * time.Hour},
		{models.FrequencyDaily, 1, 24 * time.Hour},
		{models.FrequencyWeekly, 1, 7 * 24 * time.Hour},
		{models.FrequencyMonthly, 1, 30 * 24 * time.Hour},
		{models.FrequencyYearly, 1, 365 * 24 * time.Hour},
		{models.FrequencyWeekly, 3, 21 * 24 * time.Hour},
	}

	for _, c := range cases {
		got, err := Period(c.frequency, c.interval)
		if err != nil {
			t.Fatalf("Period(%s, %d): %v", c.frequency, c.interval, err)
		}
		if got != c.want {
			t.Fatalf("Period(%s, %d) = %v, want %v", c.frequency, c.interval, got, c.want)
		}
	}
}

func TestPeriodRejectsBadInput(t *testing.T) {
	if _, err := Period(models.FrequencyDaily, 0); err == nil {
		t.Fatal("expected error for zero interval")
	}
	if _, err := Period(models.FrequencyDaily, -1); err == nil {
		t.Fatal("expected error for negative interval")
	}
	if _, err := Period("FORTNIGHTLY", 1); err == nil {
		t.Fatal("expected error for unknown frequency")
	}
}

func TestInWindowClosedOpen(t *testing.T) {
	from := date(2024, 1, 22, 0, 0)
	to := date(2024, 1, 23, 0, 0)

	if !InWindow(from, from, to) {
		t.Fatal("from itself should be inside")
	}
	if InWindow(to, from, to) {
		t.Fatal("to itself should be outside")
	}
	if InWindow(from.Add(-time.Nanosecond), from, to) {
		t.Fatal("instant before from should be outside")
	}
}

func TestMatchesWeeklySeries(t *testing.T) {
	start := date(2024, 1, 1, 10, 0)
	period := 7 * 24 * time.Hour

	// 2024-01-22 10:00 is exactly three weeks after start.
	if !Matches(start, nil, period, date(2024, 1, 22, 0, 0), date(2024, 1, 23, 0, 0)) {
		t.Fatal("expected occurrence on 2024-01-22")
	}

	// No Tuesday occurrence for a Monday series.
	if Matches(start, nil, period, date(2024, 1, 16, 0, 0), date(2024, 1, 17, 0, 0)) {
		t.Fatal("expected no occurrence on 2024-01-16")
	}
}

func TestMatchesWindowBoundaries(t *testing.T) {
	start := date(2024, 1, 1, 10, 0)
	period := 24 * time.Hour

	// Occurrence exactly at from is included.
	if !Matches(start, nil, period, date(2024, 1, 5, 10, 0), date(2024, 1, 5, 11, 0)) {
		t.Fatal("occurrence at from should match")
	}

	// Occurrence exactly at to is excluded.
	if Matches(start, nil, period, date(2024, 1, 5, 9, 0), date(2024, 1, 5, 10, 0)) {
		t.Fatal("occurrence at to should not match")
	}
}

func TestMatchesWindowBeforeSeriesStart(t *testing.T) {
	start := date(2024, 6, 1, 10, 0)
	period := 7 * 24 * time.Hour

	// The window predates the series; no phantom occurrence from negative
	// multiples may surface.
	if Matches(start, nil, period, date(2024, 1, 1, 0, 0), date(2024, 1, 8, 0, 0)) {
		t.Fatal("window before series start should not match")
	}

	// A window that reaches the series start does match.
	if !Matches(start, nil, period, date(2024, 5, 31, 0, 0), date(2024, 6, 2, 0, 0)) {
		t.Fatal("window covering series start should match")
	}
}

func TestMatchesNonRecurring(t *testing.T) {
	start := date(2024, 3, 10, 9, 0)
	end := date(2024, 3, 12, 9, 0)

	if !Matches(start, nil, 0, date(2024, 3, 10, 0, 0), date(2024, 3, 11, 0, 0)) {
		t.Fatal("start in window should match")
	}
	if Matches(start, nil, 0, date(2024, 3, 11, 0, 0), date(2024, 3, 12, 0, 0)) {
		t.Fatal("start outside window should not match")
	}
	// An event whose end falls in the window is still visible.
	if !Matches(start, &end, 0, date(2024, 3, 12, 0, 0), date(2024, 3, 13, 0, 0)) {
		t.Fatal("end in window should match")
	}
}

func TestMatchesMinutely(t *testing.T) {
	start := date(2024, 1, 1, 0, 0)

	// Every 15 minutes; any window of a minute containing a quarter hour hits.
	period := 15 * time.Minute
	if !Matches(start, nil, period, date(2024, 1, 1, 12, 45), date(2024, 1, 1, 12, 46)) {
		t.Fatal("expected occurrence at 12:45")
	}
	if Matches(start, nil, period, date(2024, 1, 1, 12, 46), date(2024, 1, 1, 12, 59)) {
		t.Fatal("expected no occurrence between quarter hours")
	}
}

func TestOccurrences(t *testing.T) {
	start := date(2024, 1, 1, 10, 0)
	period := 7 * 24 * time.Hour

	got := Occurrences(start, period, date(2024, 1, 1, 0, 0), date(2024, 1, 31, 0, 0), 10)
	want := []time.Time{
		date(2024, 1, 1, 10, 0),
		date(2024, 1, 8, 10, 0),
		date(2024, 1, 15, 10, 0),
		date(2024, 1, 22, 10, 0),
		date(2024, 1, 29, 10, 0),
	}

	if len(got) != len(want) {
		t.Fatalf("got %d occurrences, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("occurrence %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestOccurrencesNeverBeforeStart(t *testing.T) {
	start := date(2024, 6, 1, 10, 0)
	period := 24 * time.Hour

	got := Occurrences(start, period, date(2024, 5, 1, 0, 0), date(2024, 6, 3, 0, 0), 10)
	if len(got) != 2 {
		t.Fatalf("got %d occurrences, want 2: %v", len(got), got)
	}
	if !got[0].Equal(start) {
		t.Fatalf("first occurrence = %v, want series start", got[0])
	}
}

func TestOccurrencesLimit(t *testing.T) {
	start := date(2024, 1, 1, 0, 0)
	got := Occurrences(start, time.Minute, start, date(2024, 1, 2, 0, 0), 5)
	if len(got) != 5 {
		t.Fatalf("got %d occurrences, want 5", len(got))
	}
}

func TestFloorDiv(t *testing.T) {
	cases := []struct{ a, b, want int64 }{
		{7, 2, 3},
		{-7, 2, -4},
		{6, 3, 2},
		{-6, 3, -2},
		{1, 7, 0},
		{-1, 7, -1},
	}

	for _, c := range cases {
		if got := floorDiv(c.a, c.b); got != c.want {
			t.Fatalf("floorDiv(%d, %d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
