package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file. They let the
// deploy environment set the poll interval and backend without editing YAML.
const (
	EnvPollIntervalMS = "LOCALESDASH_POLL_INTERVAL_MS"
	EnvBackendURL     = "LOCALESDASH_BACKEND_URL"
)

// DefaultPollIntervalMS is the refresh period used when nothing else is set.
const DefaultPollIntervalMS = 30000

// maxConfigBytes caps the size of a config file we are willing to parse.
const maxConfigBytes = 1 << 20

// Config is the top-level localesdash configuration.
type Config struct {
	Backend   BackendConfig   `yaml:"backend"`
	Poll      PollConfig      `yaml:"poll"`
	Session   SessionConfig   `yaml:"session"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Display   DisplayConfig   `yaml:"display"`
	LogLevel  string          `yaml:"log_level"`
	LogFile   string          `yaml:"log_file"` // used by the terminal client only
}

// BackendConfig locates the emitters API.
type BackendConfig struct {
	URL          string        `yaml:"url"`
	EmittersPath string        `yaml:"emitters_path"`
	UsersPath    string        `yaml:"users_path"`
	Timeout      time.Duration `yaml:"timeout"` // 0 = no timeout
}

// PollConfig controls the refresh loop.
type PollConfig struct {
	IntervalMS int `yaml:"interval_ms"`
}

// SessionConfig selects where the logged-in username is persisted.
type SessionConfig struct {
	Driver   string `yaml:"driver"` // sqlite, redis, memory
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url"`
	Key      string `yaml:"key"`
}

// DashboardConfig holds the browser dashboard listener settings.
type DashboardConfig struct {
	Port int    `yaml:"port"`
	Bind string `yaml:"bind"` // Address to bind (default: 127.0.0.1)
}

// TelemetryConfig enables metrics and tracing.
type TelemetryConfig struct {
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
	Tracing     bool   `yaml:"tracing"`
}

// DisplayConfig controls how dates are rendered and how date filters are
// interpreted.
type DisplayConfig struct {
	Timezone string `yaml:"timezone,omitempty"` // IANA name, empty = local
}

// PollInterval returns the poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Poll.IntervalMS) * time.Millisecond
}

// Location resolves the display timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Display.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Display.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Display.Timezone, err)
	}
	return loc, nil
}

// Load reads and parses a localesdash config file, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	data, err := readFileMax(path, maxConfigBytes)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Apply zero-value defaults after unmarshal
	cfg.fillDefaults()

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns a config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:          "http://127.0.0.1:3000/api",
			EmittersPath: "/emitters-last-seen",
			UsersPath:    "/users",
		},
		Poll: PollConfig{IntervalMS: DefaultPollIntervalMS},
		Session: SessionConfig{
			Driver: "sqlite",
			Path:   "localesdash.db",
			Key:    "user",
		},
		Dashboard: DashboardConfig{
			Port: 8090,
		},
		LogLevel: "info",
		LogFile:  "localesdash.log",
	}
}

func (c *Config) fillDefaults() {
	d := Defaults()
	if c.Backend.EmittersPath == "" {
		c.Backend.EmittersPath = d.Backend.EmittersPath
	}
	if c.Backend.UsersPath == "" {
		c.Backend.UsersPath = d.Backend.UsersPath
	}
	if c.Poll.IntervalMS == 0 {
		c.Poll.IntervalMS = d.Poll.IntervalMS
	}
	if c.Session.Driver == "" {
		c.Session.Driver = d.Session.Driver
	}
	if c.Session.Key == "" {
		c.Session.Key = d.Session.Key
	}
	if c.Session.Driver == "sqlite" && c.Session.Path == "" {
		c.Session.Path = d.Session.Path
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// ApplyEnv overrides settings from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPollIntervalMS); ok && v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid interval %q: %w", EnvPollIntervalMS, v, err)
		}
		c.Poll.IntervalMS = ms
	}
	if v, ok := lookup(EnvBackendURL); ok && v != "" {
		c.Backend.URL = v
	}
	return nil
}

// Save writes the config to a YAML file at the given path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks that the config is consistent.
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url is required")
	}
	if c.Poll.IntervalMS <= 0 {
		return fmt.Errorf("invalid poll interval: %dms", c.Poll.IntervalMS)
	}
	if c.Dashboard.Port < 0 || c.Dashboard.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Dashboard.Port)
	}
	switch c.Session.Driver {
	case "sqlite":
		if c.Session.Path == "" {
			return fmt.Errorf("session.path is required for the sqlite driver")
		}
	case "redis":
		if c.Session.RedisURL == "" {
			return fmt.Errorf("session.redis_url is required for the redis driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown session driver %q", c.Session.Driver)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// readFileMax reads path after verifying it is not a symlink and is no
// larger than maxBytes.
func readFileMax(path string, maxBytes int64) ([]byte, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("%s is a symbolic link", path)
	}
	if info.Size() > maxBytes {
		return nil, fmt.Errorf("%s is too large (%d bytes, max %d)", path, info.Size(), maxBytes)
	}
	return os.ReadFile(path)
}
