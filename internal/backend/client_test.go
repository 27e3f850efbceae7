package backend

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/febros/localesdash/internal/config"
	"github.com/febros/localesdash/internal/emitter"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := config.Defaults().Backend
	cfg.URL = srv.URL + "/api/"
	return New(cfg, testLogger())
}

func TestEmitters(t *testing.T) {
	var gotPath, gotReqID string
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotReqID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"idEmisor":"E1","name":"Kiosco","fechaAlta":"2024-03-01T10:00:00Z"},
			{"idEmisor":42,"fechaAlta":null},
			{"idEmisor":"E3","fechaAlta":""}
		]`)
	})

	records, err := c.Emitters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/emitters-last-seen", gotPath)
	assert.Len(t, gotReqID, 36)

	require.Len(t, records, 3)
	assert.Equal(t, emitter.ID("E1"), records[0].ID)
	assert.Equal(t, "Kiosco", records[0].Name)
	assert.True(t, records[0].Active)
	assert.Equal(t, emitter.ID("42"), records[1].ID)
	assert.False(t, records[1].Active)
	assert.Nil(t, records[2].FechaAlta, "blank date is null")
	assert.False(t, records[2].Active)
}

func TestEmitters_NonArrayBodyIsEmpty(t *testing.T) {
	for _, body := range []string{`{"error":"nope"}`, `null`, `"x"`} {
		c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, body)
		})
		records, err := c.Emitters(context.Background())
		require.NoError(t, err, body)
		assert.Empty(t, records, body)
	}
}

func TestEmitters_MalformedElementsDoNotFailTheList(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []emitter.ID
	}{
		{"non-string name", `[{"idEmisor":"A1","name":5,"fechaAlta":null},{"idEmisor":"B2","name":"ok","fechaAlta":"2024-01-15T12:30:00Z"}]`, []emitter.ID{"A1", "B2"}},
		{"non-object element", `["junk",{"idEmisor":"B2","name":"ok","fechaAlta":"2024-01-15T12:30:00Z"}]`, []emitter.ID{"B2"}},
		{"null and number elements", `[null,7,{"idEmisor":"B2","fechaAlta":null}]`, []emitter.ID{"B2"}},
		{"bad date type", `[{"idEmisor":"C3","fechaAlta":{"y":2024}},{"idEmisor":"D4","fechaAlta":[1]}]`, []emitter.ID{"C3", "D4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})
			records, err := c.Emitters(context.Background())
			require.NoError(t, err)
			ids := make([]emitter.ID, 0, len(records))
			for _, r := range records {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"idEmisor":"A1","name":5,"fechaAlta":null}]`)
	})
	records, err := c.Emitters(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "5", records[0].Name)
	assert.False(t, records[0].Active)
}

func TestUsers_SkipsMalformedEntries(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `["junk",{"nombre":1,"sha256":"x"},{"nombre":"ana","sha256":"abc"}]`)
	})
	users, err := c.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "ana", users[0].Nombre)
}

func TestEmitters_InvalidJSON(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"idEmisor":`)
	})
	_, err := c.Emitters(context.Background())
	assert.Error(t, err)
}

func TestEmitters_StatusError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	})
	_, err := c.Emitters(context.Background())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Contains(t, se.Error(), "502")
}

func TestUsers(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users", r.URL.Path)
		_, _ = io.WriteString(w, `[{"nombre":"ana","sha256":"abc"},{"nombre":"bob","sha256":"def"}]`)
	})

	users, err := c.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "ana", users[0].Nombre)
	assert.Equal(t, "def", users[1].SHA256)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := config.Defaults().Backend
	cfg.URL = srv.URL
	cfg.Timeout = 50 * time.Millisecond

	_, err := New(cfg, testLogger()).Emitters(context.Background())
	assert.Error(t, err)
}

func TestContextCancel(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Emitters(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
