// Package emitter holds the emitter record model and the pure projection
// that turns a fetched list into the visible, ordered list.
package emitter

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// ID is an emitter identifier in its stringified form. The backend sends
// either strings or numbers; both decode to their literal text.
type ID string

// UnmarshalJSON accepts strings, numbers and null. Any other JSON value
// keeps its raw text so a malformed identifier never fails the whole list.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
	default:
		*id = ID(data)
	}
	return nil
}

// Timestamp is the raw fechaAlta value as sent by the backend. Parsing is
// deferred so the raw text can be shown when it is not a date.
type Timestamp struct {
	Raw string
}

// NewTimestamp wraps t in RFC 3339 form with millisecond precision.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Raw: t.Format("2006-01-02T15:04:05.000Z07:00")}
}

// UnmarshalJSON accepts strings and numbers (epoch values).
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		ts.Raw = s
		return nil
	}
	ts.Raw = string(data)
	return nil
}

// MarshalJSON writes the raw value back as a string.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.Raw)
}

// Layouts without a zone are read in the caller's location.
var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
const epochMillisThreshold = 100_000_000_000

// Parse interprets the raw value as a point in time. Zone-less values are
// read in loc (time.Local when nil).
func (ts *Timestamp) Parse(loc *time.Location) (time.Time, bool) {
	if ts == nil {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	raw := strings.TrimSpace(ts.Raw)
	if raw == "" {
		return time.Time{}, false
	}

	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n >= epochMillisThreshold || n <= -epochMillisThreshold {
			return time.UnixMilli(n).In(loc), true
		}
		return time.Unix(n, 0).In(loc), true
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
			return time.Time{}, false
		}
		if math.Abs(f) >= epochMillisThreshold {
			return time.UnixMilli(int64(f)).In(loc), true
		}
		sec, frac := math.Modf(f)
		return time.Unix(int64(sec), int64(math.Round(frac*1e9))).In(loc), true
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.In(loc), true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Record is one emitter as returned by the backend. Active is derived by
// Normalize and never read from the wire.
type Record struct {
	ID        ID         `json:"idEmisor"`
	Name      string     `json:"name,omitempty"`
	FechaAlta *Timestamp `json:"fechaAlta"`
	Active    bool       `json:"-"`
}

// UnmarshalJSON reads a backend record. A name that is not a string keeps
// its raw text, as the identifier does.
func (r *Record) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID        ID         `json:"idEmisor"`
		Name      ID         `json:"name"`
		FechaAlta *Timestamp `json:"fechaAlta"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = Record{ID: wire.ID, Name: string(wire.Name), FechaAlta: wire.FechaAlta}
	return nil
}

// Label is the display title: "name (id)" when a name exists, else the id.
func (r Record) Label() string {
	if r.Name != "" {
		return r.Name + " (" + string(r.ID) + ")"
	}
	return string(r.ID)
}

// Normalize returns r with Active derived from FechaAlta. A blank
// fechaAlta counts as null.
func Normalize(r Record) Record {
	if r.FechaAlta != nil && strings.TrimSpace(r.FechaAlta.Raw) == "" {
		r.FechaAlta = nil
	}
	r.Active = r.FechaAlta != nil
	return r
}

// Counts returns how many records are active and inactive.
func Counts(records []Record) (active, inactive int) {
	for _, r := range records {
		if Normalize(r).Active {
			active++
		} else {
			inactive++
		}
	}
	return active, inactive
}
