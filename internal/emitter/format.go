package emitter

import (
	"strings"
	"time"
)

// NotAvailable is shown when an emitter has no fechaAlta.
const NotAvailable = "N/A"

// DisplayLayout is the date/time layout used for payment dates.
const DisplayLayout = "02/01/2006 15:04:05"

// FormatDate renders ts for display in loc. A nil timestamp renders as
// NotAvailable, as does a blank one; a value that is not a date is returned unchanged.
func FormatDate(ts *Timestamp, loc *time.Location) string {
	if ts == nil || strings.TrimSpace(ts.Raw) == "" {
		return NotAvailable
	}
	if loc == nil {
		loc = time.Local
	}
	t, ok := ts.Parse(loc)
	if !ok {
		return ts.Raw
	}
	return t.In(loc).Format(DisplayLayout)
}
