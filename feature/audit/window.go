package audit

import (
	"fmt"
	"regexp"
	"time"

	"freight-reconciler/core/canon"
)

var leadingDate = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

// Window is an inclusive date range [start, end]. It drives both the API
// query parameters and the DB row filtering and is immutable once
// constructed.
type Window struct {
	start time.Time
	end   time.Time
}

// NewWindow builds a window from inclusive start and end dates.
func NewWindow(start, end time.Time) (Window, error) {
	start = truncateDay(start)
	end = truncateDay(end)
	if end.Before(start) {
		return Window{}, fmt.Errorf("invalid window: start %s is after end %s",
			start.Format(time.DateOnly), end.Format(time.DateOnly))
	}
	return Window{start: start, end: end}, nil
}

// ParseWindow builds a window from optional "YYYY-MM-DD" bounds. An empty
// end defaults to today; an empty start defaults to the day before end.
func ParseWindow(start, end string, now func() time.Time) (Window, error) {
	if now == nil {
		now = time.Now
	}

	endDate := truncateDay(now())
	if end != "" {
		parsed, err := time.Parse(time.DateOnly, end)
		if err != nil {
			return Window{}, fmt.Errorf("invalid end date %q: %w", end, err)
		}
		endDate = parsed
	}

	startDate := endDate.AddDate(0, 0, -1)
	if start != "" {
		parsed, err := time.Parse(time.DateOnly, start)
		if err != nil {
			return Window{}, fmt.Errorf("invalid start date %q: %w", start, err)
		}
		startDate = parsed
	}

	return NewWindow(startDate, endDate)
}

// Start returns the inclusive lower bound.
func (w Window) Start() time.Time { return w.start }

// End returns the inclusive upper bound.
func (w Window) End() time.Time { return w.end }

// StartISO returns the lower bound as "YYYY-MM-DD".
func (w Window) StartISO() string { return w.start.Format(time.DateOnly) }

// EndISO returns the upper bound as "YYYY-MM-DD".
func (w Window) EndISO() string { return w.end.Format(time.DateOnly) }

// RangeExpr renders the window as the "start - end" expression the
// page-protocol search filter expects.
func (w Window) RangeExpr() string { return w.StartISO() + " - " + w.EndISO() }

// Days lists every day in the window in order.
func (w Window) Days() []time.Time {
	var days []time.Time
	for d := w.start; !d.After(w.end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether the day is inside the window.
func (w Window) Contains(d time.Time) bool {
	d = truncateDay(d)
	return !d.Before(w.start) && !d.After(w.end)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// parseRecordDate extracts the leading YYYY-MM-DD date from a record
// value. Timestamps with time and zone suffixes are accepted; anything
// without a leading date is not.
func parseRecordDate(v any) (time.Time, bool) {
	if v == nil {
		return time.Time{}, false
	}
	m := leadingDate.FindStringSubmatch(canon.Safe(v))
	if m == nil {
		return time.Time{}, false
	}
	d, err := time.Parse(time.DateOnly, m[1])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// dateInWindow is the common time-window predicate for DB snapshots.
func dateInWindow(v any, w Window) bool {
	d, ok := parseRecordDate(v)
	return ok && w.Contains(d)
}

// dateBetween checks a record date against explicit bounds, used where an
// entity's predicate widens the window (manifests look one day back).
func dateBetween(v any, from, to time.Time) bool {
	d, ok := parseRecordDate(v)
	return ok && !d.Before(truncateDay(from)) && !d.After(truncateDay(to))
}
