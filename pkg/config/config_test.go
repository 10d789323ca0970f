package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hakuna-bridge/hakuna-go/pkg/coordinator"
	"github.com/hakuna-bridge/hakuna-go/pkg/hakuna"
)

const sampleYAML = `
api:
  token: secret
  base_url: https://example.test/api/v1
  timeout: 15s
  location: Europe/Zurich
polling:
  interval: 10m
  burst: 10
http:
  listen: ":9000"
discovery:
  enabled: true
  instance: office
log:
  level: debug
  format: json
  capture_file: /tmp/bridge.hlog
`

const sampleTOML = `
[api]
token = "secret"
location = "UTC"

[polling]
interval = "120"
catalog_ttl = "30m"

[log]
level = "warn"
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "bridge.yaml", sampleYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "secret", cfg.API.Token)
	assert.Equal(t, "https://example.test/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout.Duration)
	assert.Equal(t, 10*time.Minute, cfg.Polling.Interval.Duration)
	assert.Equal(t, 10, cfg.Polling.Burst)
	assert.Equal(t, coordinator.DefaultRequestsPerMinute, cfg.Polling.RequestsPerMinute, "defaults survive")
	assert.Equal(t, ":9000", cfg.HTTP.Listen)
	assert.True(t, cfg.Discovery.Enabled)
	assert.Equal(t, "office", cfg.Discovery.Instance)
	assert.Equal(t, "/tmp/bridge.hlog", cfg.Log.CaptureFile)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Zurich", loc.String())
}

func TestLoadTOML(t *testing.T) {
	cfg, err := Load(writeFile(t, "bridge.toml", sampleTOML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "secret", cfg.API.Token)
	assert.Equal(t, hakuna.DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 2*time.Minute, cfg.Polling.Interval.Duration)
	assert.Equal(t, 30*time.Minute, cfg.Polling.CatalogTTL.Duration)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "bad.yaml", "api:\n  tokn: x\n"))
	assert.Error(t, err, "unknown keys are rejected")

	_, err = Load(writeFile(t, "bad.toml", "[polling]\ninterval = \"soon\"\n"))
	assert.Error(t, err)
}

func TestEmptyFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default().Polling, cfg.Polling)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvToken, "from-env")
	t.Setenv(EnvBaseURL, "http://localhost:9999/api/v1")
	t.Setenv(EnvScanInterval, "90")

	cfg, err := Load(writeFile(t, "bridge.yaml", sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.API.Token)
	assert.Equal(t, "http://localhost:9999/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 90*time.Second, cfg.Polling.Interval.Duration)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.API.Token)

	t.Setenv(EnvScanInterval, "often")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing token", func(c *Config) { c.API.Token = "" }, "api.token"},
		{"interval too short", func(c *Config) { c.Polling.Interval = Duration{59 * time.Second} }, "polling.interval"},
		{"bad url", func(c *Config) { c.API.BaseURL = "ftp:/x" }, "api.base_url"},
		{"bad location", func(c *Config) { c.API.Location = "Mars/Olympus" }, "api.location"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"tiny burst", func(c *Config) { c.Polling.Burst = 1 }, "polling.burst"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.API.Token = "secret"
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInvalidIntervalMatchesCoordinator(t *testing.T) {
	cfg := Default()
	cfg.API.Token = "secret"
	cfg.Polling.Interval = Duration{30 * time.Second}
	assert.ErrorIs(t, cfg.Validate(), coordinator.ErrInvalidInterval)
	assert.ErrorIs(t, cfg.Settings().Validate(), coordinator.ErrInvalidInterval)
}

func TestOptions(t *testing.T) {
	cfg, err := Parse([]byte(sampleYAML), FormatYAML)
	require.NoError(t, err)

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/api/v1", opts.Client.BaseURL)
	assert.Equal(t, "Europe/Zurich", opts.Client.Location.String())
	assert.Equal(t, 15*time.Second, opts.Timeout)
	assert.Equal(t, 10, opts.Burst)

	s := cfg.Settings()
	assert.Equal(t, "secret", s.Token)
	assert.Equal(t, 10*time.Minute, s.Interval)
}

func TestDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"300", 5 * time.Minute, false},
		{"1m30s", 90 * time.Second, false},
		{"-5", 0, true},
		{"-1m", 0, true},
		{"later", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.in))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Duration)
		})
	}

	text, err := Duration{5 * time.Minute}.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "5m0s", string(text))
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatTOML, FormatOf("a/b.TOML"))
	assert.Equal(t, FormatYAML, FormatOf("a/b.yml"))
	assert.Equal(t, FormatYAML, FormatOf("noext"))
}
