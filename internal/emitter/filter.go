package emitter

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Status selects records by activity.
type Status string

const (
	StatusAll      Status = "all"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ParseStatus validates a status selector. An empty string means all.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusAll:
		return StatusAll, nil
	case StatusActive:
		return StatusActive, nil
	case StatusInactive:
		return StatusInactive, nil
	}
	return "", fmt.Errorf("unknown status %q (want all, active or inactive)", s)
}

// Next cycles all → active → inactive → all.
func (s Status) Next() Status {
	switch s {
	case StatusActive:
		return StatusInactive
	case StatusInactive:
		return StatusAll
	default:
		return StatusActive
	}
}

// Date is a calendar date used as a filter bound. The zero value means
// the bound is not set.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses YYYY-MM-DD. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// IsZero reports whether the bound is unset.
func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// StartOfDay is 00:00:00.000 of d in loc.
func (d Date) StartOfDay(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// EndOfDay is 23:59:59.999 of d in loc.
func (d Date) EndOfDay(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 23, 59, 59, int(999*time.Millisecond), loc)
}

// Filter is the operator's current view selection. It is comparable so it
// can key the memoized projection.
type Filter struct {
	Query  string
	Status Status
	Start  Date
	End    Date
	Loc    *time.Location // nil = time.Local
}

func (f Filter) location() *time.Location {
	if f.Loc == nil {
		return time.Local
	}
	return f.Loc
}

// Apply projects raw into the visible list: normalize, then filter by
// status, date range and text, then sort active-first by id. raw is not
// modified.
func Apply(raw []Record, f Filter) []Record {
	loc := f.location()
	needle := strings.ToLower(strings.TrimSpace(f.Query))

	var start, end time.Time
	hasStart, hasEnd := !f.Start.IsZero(), !f.End.IsZero()
	if hasStart {
		start = f.Start.StartOfDay(loc)
	}
	if hasEnd {
		end = f.End.EndOfDay(loc)
	}

	out := make([]Record, 0, len(raw))
	for _, r := range raw {
		r = Normalize(r)

		switch f.Status {
		case StatusActive:
			if !r.Active {
				continue
			}
		case StatusInactive:
			if r.Active {
				continue
			}
		}

		if hasStart || hasEnd {
			t, ok := r.FechaAlta.Parse(loc)
			if !ok {
				continue
			}
			t = t.Truncate(time.Millisecond)
			if hasStart && t.Before(start) {
				continue
			}
			if hasEnd && t.After(end) {
				continue
			}
		}

		if needle != "" && !matches(r, needle) {
			continue
		}
		out = append(out, r)
	}

	slices.SortStableFunc(out, compareRecords)
	return out
}

func matches(r Record, needle string) bool {
	if strings.Contains(strings.ToLower(string(r.ID)), needle) {
		return true
	}
	return r.Name != "" && strings.Contains(strings.ToLower(r.Name), needle)
}

func compareRecords(a, b Record) int {
	if a.Active != b.Active {
		if a.Active {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.ID, b.ID)
}
