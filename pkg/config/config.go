// Package config loads the bridge configuration from YAML or TOML files
// with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata" // zone names on hosts without a zoneinfo database

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/hakuna-bridge/hakuna-go/pkg/coordinator"
	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna"
)

// Environment variables that override file values.
const (
	EnvToken        = "HAKUNA_API_TOKEN"
	EnvBaseURL      = "HAKUNA_BASE_URL"
	EnvScanInterval = "HAKUNA_SCAN_INTERVAL"
)

// Format is a configuration file syntax.
type Format uint8

const (
	FormatYAML Format = iota
	FormatTOML
)

// FormatOf picks the format from a file extension. Anything but .toml is
// read as YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return FormatTOML
	}
	return FormatYAML
}

// Config is the complete bridge configuration.
type Config struct {
	API       APIConfig       `yaml:"api" toml:"api"`
	Polling   PollingConfig   `yaml:"polling" toml:"polling"`
	HTTP      HTTPConfig      `yaml:"http" toml:"http"`
	Discovery DiscoveryConfig `yaml:"discovery" toml:"discovery"`
	Log       LogConfig       `yaml:"log" toml:"log"`
}

// APIConfig configures the Hakuna API client.
type APIConfig struct {
	Token     string   `yaml:"token" toml:"token"`
	BaseURL   string   `yaml:"base_url" toml:"base_url"`
	Timeout   Duration `yaml:"timeout" toml:"timeout"`
	Location  string   `yaml:"location" toml:"location"`
	UserAgent string   `yaml:"user_agent" toml:"user_agent"`
}

// PollingConfig configures the coordinator.
type PollingConfig struct {
	Interval          Duration `yaml:"interval" toml:"interval"`
	RequestsPerMinute int      `yaml:"requests_per_minute" toml:"requests_per_minute"`
	Burst             int      `yaml:"burst" toml:"burst"`
	CatalogTTL        Duration `yaml:"catalog_ttl" toml:"catalog_ttl"`
}

// HTTPConfig configures the host adapter.
type HTTPConfig struct {
	Listen string `yaml:"listen" toml:"listen"`
}

// DiscoveryConfig configures mDNS advertisement of the HTTP adapter.
type DiscoveryConfig struct {
	Enabled  bool   `yaml:"enabled" toml:"enabled"`
	Instance string `yaml:"instance" toml:"instance"`
}

// LogConfig configures operational logging and protocol capture.
type LogConfig struct {
	Level       string `yaml:"level" toml:"level"`
	Format      string `yaml:"format" toml:"format"`
	CaptureFile string `yaml:"capture_file" toml:"capture_file"`
}

// Default returns the default configuration. It has no token.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:  hakuna.DefaultBaseURL,
			Timeout:  Duration{hakuna.DefaultTimeout},
			Location: "Local",
		},
		Polling: PollingConfig{
			Interval:          Duration{coordinator.DefaultInterval},
			RequestsPerMinute: coordinator.DefaultRequestsPerMinute,
			Burst:             coordinator.DefaultBurst,
			CatalogTTL:        Duration{time.Hour},
		},
		HTTP: HTTPConfig{
			Listen: "127.0.0.1:8765",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path, applies environment overrides and returns the result.
// An empty path yields the defaults plus environment overrides. The
// result is not validated.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := Default()
		if err := applyEnv(cfg, os.LookupEnv); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes data on top of the defaults.
func Parse(data []byte, format Format) (*Config, error) {
	cfg := Default()
	switch format {
	case FormatTOML:
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse TOML: %w", err)
		}
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvToken); ok && v != "" {
		cfg.API.Token = v
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		cfg.API.BaseURL = v
	}
	if v, ok := lookup(EnvScanInterval); ok && v != "" {
		if err := cfg.Polling.Interval.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: %w", EnvScanInterval, err)
		}
	}
	return nil
}

// Validate checks the configuration. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.API.Token) == "" {
		errs = append(errs, fmt.Errorf("api.token: %w (set it or %s)", hakuna.ErrMissingToken, EnvToken))
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url: invalid URL %q", c.API.BaseURL))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("api.location: %w", err))
	}
	if c.Polling.Interval.Duration < coordinator.MinInterval {
		errs = append(errs, fmt.Errorf("polling.interval: %w: got %s", coordinator.ErrInvalidInterval, c.Polling.Interval.Duration))
	}
	if c.Polling.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("polling.requests_per_minute: must be positive"))
	}
	if c.Polling.Burst < 2 {
		errs = append(errs, errors.New("polling.burst: must be at least 2"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Location resolves API.Location. Empty and "Local" select time.Local.
func (c *Config) Location() (*time.Location, error) {
	switch c.API.Location {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.API.Location)
	}
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// Settings returns the coordinator settings.
func (c *Config) Settings() coordinator.Settings {
	return coordinator.Settings{
		Token:    c.API.Token,
		Interval: c.Polling.Interval.Duration,
	}
}

// Options returns coordinator options for c. Scheduler, sink and loggers
// are left for the caller.
func (c *Config) Options() (coordinator.Options, error) {
	loc, err := c.Location()
	if err != nil {
		return coordinator.Options{}, err
	}
	opts := coordinator.DefaultOptions()
	opts.Client.BaseURL = c.API.BaseURL
	opts.Client.Location = loc
	opts.Client.UserAgent = c.API.UserAgent
	opts.Timeout = c.API.Timeout.Duration
	opts.RequestsPerMinute = c.Polling.RequestsPerMinute
	opts.Burst = c.Polling.Burst
	opts.CatalogTTL = c.Polling.CatalogTTL.Duration
	return opts, nil
}
