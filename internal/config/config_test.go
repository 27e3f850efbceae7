package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	content := `
backend:
  url: http://backend.local/api
  timeout: 5s
poll:
  interval_ms: 15000
session:
  driver: redis
  redis_url: redis://127.0.0.1:6379/0
log_level: debug
`
	dir := t.TempDir()
	path := filepath.Join(dir, "localesdash.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Backend.URL != "http://backend.local/api" {
		t.Errorf("backend url = %q", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", cfg.Backend.Timeout)
	}
	if cfg.Backend.EmittersPath != "/emitters-last-seen" {
		t.Errorf("emitters_path default not applied: %q", cfg.Backend.EmittersPath)
	}
	if cfg.PollInterval() != 15*time.Second {
		t.Errorf("poll interval = %v, want 15s", cfg.PollInterval())
	}
	if cfg.Session.Driver != "redis" {
		t.Errorf("session driver = %q, want redis", cfg.Session.Driver)
	}
	if cfg.Session.Key != "user" {
		t.Errorf("session key = %q, want user", cfg.Session.Key)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoad_RejectsSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real.yaml")
	if err := os.WriteFile(target, []byte("log_level: info\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.yaml")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if _, err := Load(link); err == nil {
		t.Error("symlinked config should be rejected")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Poll.IntervalMS != 30000 {
		t.Errorf("default interval = %d, want 30000", cfg.Poll.IntervalMS)
	}
	if cfg.Session.Driver != "sqlite" {
		t.Errorf("default session driver = %q, want sqlite", cfg.Session.Driver)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvPollIntervalMS: "5000",
		EnvBackendURL:     "http://override/api",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Defaults()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatal(err)
	}
	if cfg.Poll.IntervalMS != 5000 {
		t.Errorf("interval = %d, want 5000", cfg.Poll.IntervalMS)
	}
	if cfg.Backend.URL != "http://override/api" {
		t.Errorf("backend url = %q", cfg.Backend.URL)
	}

	env[EnvPollIntervalMS] = "soon"
	if err := Defaults().ApplyEnv(lookup); err == nil {
		t.Error("non-numeric interval should be rejected")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero interval", func(c *Config) { c.Poll.IntervalMS = 0 }},
		{"negative interval", func(c *Config) { c.Poll.IntervalMS = -1 }},
		{"missing backend", func(c *Config) { c.Backend.URL = "" }},
		{"bad port", func(c *Config) { c.Dashboard.Port = 70000 }},
		{"unknown driver", func(c *Config) { c.Session.Driver = "etcd" }},
		{"redis without url", func(c *Config) { c.Session.Driver = "redis" }},
		{"sqlite without path", func(c *Config) { c.Session.Path = "" }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"bad timezone", func(c *Config) { c.Display.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("%s should be invalid", tt.name)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Defaults()
	cfg.Poll.IntervalMS = 1234
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Poll.IntervalMS != 1234 {
		t.Errorf("interval = %d, want 1234", loaded.Poll.IntervalMS)
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "localesdash.yaml")
	if err := os.WriteFile(path, []byte("poll:\n  interval_ms: 1000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	got := make(chan int, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, path, logger, func(c *Config) {
			select {
			case got <- c.Poll.IntervalMS:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("poll:\n  interval_ms: 2000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	// A single write can surface as several events, the first of which may
	// observe a truncated file.
	deadline := time.After(5 * time.Second)
	for seen := false; !seen; {
		select {
		case ms := <-got:
			seen = ms == 2000
		case <-deadline:
			t.Fatal("no reload with interval 2000 observed")
		}
	}

	cancel()
	<-done
}

func TestWatch_CoalescesBurstOfWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "localesdash.yaml")
	if err := os.WriteFile(path, []byte("poll:\n  interval_ms: 1000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	got := make(chan int, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, path, logger, func(c *Config) {
			select {
			case got <- c.Poll.IntervalMS:
			default:
			}
		})
	}()

	time.Sleep(100 * time.Millisecond)
	for _, ms := range []int{2000, 3000, 4000, 5000} {
		content := []byte("poll:\n  interval_ms: " + strconv.Itoa(ms) + "\n")
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case ms := <-got:
		if ms != 5000 {
			t.Fatalf("first reload interval = %d, want 5000", ms)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	select {
	case ms := <-got:
		t.Errorf("burst produced a second reload (interval %d)", ms)
	case <-time.After(3 * reloadDebounce):
	}

	cancel()
	<-done
}
