package emitter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecords_MixedShapes(t *testing.T) {
	body := `[
		{"idEmisor": "ABC123", "name": "Kiosco Centro", "fechaAlta": "2024-03-05T10:15:00Z"},
		{"idEmisor": 42, "fechaAlta": null},
		{"idEmisor": "X9"},
		{"idEmisor": null, "fechaAlta": 1709633700000},
		{"idEmisor": "E1", "fechaAlta": ""}
	]`

	var records []Record
	require.NoError(t, json.Unmarshal([]byte(body), &records))
	require.Len(t, records, 5)

	assert.Equal(t, ID("ABC123"), records[0].ID)
	assert.Equal(t, "Kiosco Centro", records[0].Name)
	require.NotNil(t, records[0].FechaAlta)
	assert.Equal(t, "2024-03-05T10:15:00Z", records[0].FechaAlta.Raw)

	assert.Equal(t, ID("42"), records[1].ID)
	assert.Nil(t, records[1].FechaAlta)

	assert.Nil(t, records[2].FechaAlta, "missing fechaAlta decodes as null")

	assert.Equal(t, ID(""), records[3].ID)
	require.NotNil(t, records[3].FechaAlta)
	assert.Equal(t, "1709633700000", records[3].FechaAlta.Raw)

	require.NotNil(t, records[4].FechaAlta)
	assert.False(t, Normalize(records[4]).Active, "blank fechaAlta is not active")
}

func TestDecodeRecord_ActiveIsNeverRead(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"idEmisor":"a","fechaAlta":null,"Active":true}`), &r))
	assert.False(t, Normalize(r).Active)
}

func TestDecodeRecord_NonStringName(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"idEmisor":"A1","name":5,"fechaAlta":null}`), &r))
	assert.Equal(t, ID("A1"), r.ID)
	assert.Equal(t, "5", r.Name)
	assert.Nil(t, r.FechaAlta)

	require.NoError(t, json.Unmarshal([]byte(`{"idEmisor":"A2","name":null}`), &r))
	assert.Equal(t, "", r.Name)
	assert.Equal(t, "A2", r.Label())
}

func TestNormalize(t *testing.T) {
	active := Normalize(Record{ID: "a", FechaAlta: &Timestamp{Raw: "2024-01-01"}})
	assert.True(t, active.Active)

	inactive := Normalize(Record{ID: "b"})
	assert.False(t, inactive.Active)

	// Normalize recomputes rather than trusting a stale flag.
	stale := Normalize(Record{ID: "c", Active: true})
	assert.False(t, stale.Active)
}

func TestTimestampParse(t *testing.T) {
	loc := time.FixedZone("ART", -3*3600)

	tests := []struct {
		raw  string
		want time.Time
		ok   bool
	}{
		{"2024-03-05T10:15:00Z", time.Date(2024, 3, 5, 10, 15, 0, 0, time.UTC), true},
		{"2024-03-05T10:15:00.250-03:00", time.Date(2024, 3, 5, 10, 15, 0, int(250*time.Millisecond), loc), true},
		{"2024-03-05T10:15:00", time.Date(2024, 3, 5, 10, 15, 0, 0, loc), true},
		{"2024-03-05 10:15:00", time.Date(2024, 3, 5, 10, 15, 0, 0, loc), true},
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, loc), true},
		{"1709633700000", time.UnixMilli(1709633700000), true},
		{"1709633700", time.Unix(1709633700, 0), true},
		{"1700000000.5", time.Unix(1700000000, 500_000_000), true},
		{"1709633700000.0", time.UnixMilli(1709633700000), true},
		{"NaN", time.Time{}, false},
		{"Inf", time.Time{}, false},
		{"-Inf", time.Time{}, false},
		{"Infinity", time.Time{}, false},
		{"1e300", time.Time{}, false},
		{"not a date", time.Time{}, false},
		{"  ", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := (&Timestamp{Raw: tt.raw}).Parse(loc)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
			}
		})
	}

	var nilTS *Timestamp
	_, ok := nilTS.Parse(loc)
	assert.False(t, ok)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Kiosco (A1)", Record{ID: "A1", Name: "Kiosco"}.Label())
	assert.Equal(t, "A1", Record{ID: "A1"}.Label())
}

func TestCounts(t *testing.T) {
	active, inactive := Counts([]Record{
		{ID: "a", FechaAlta: &Timestamp{Raw: "2024-01-01"}},
		{ID: "b"},
		{ID: "c", FechaAlta: &Timestamp{Raw: ""}},
	})
	assert.Equal(t, 1, active)
	assert.Equal(t, 2, inactive)
}

func TestFormatDate(t *testing.T) {
	loc := time.UTC
	assert.Equal(t, NotAvailable, FormatDate(nil, loc))
	assert.Equal(t, NotAvailable, FormatDate(&Timestamp{Raw: ""}, loc))
	assert.Equal(t, "05/03/2024 10:15:00", FormatDate(&Timestamp{Raw: "2024-03-05T10:15:00Z"}, loc))
	assert.Equal(t, "ayer", FormatDate(&Timestamp{Raw: "ayer"}, loc), "unparseable values fall back to the raw text")
	assert.Equal(t, "NaN", FormatDate(&Timestamp{Raw: "NaN"}, loc))
	assert.Equal(t, "14/11/2023 22:13:20", FormatDate(&Timestamp{Raw: "1700000000.5"}, loc))
}
