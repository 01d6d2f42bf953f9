package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "intel.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "anthropic", cfg.Server.Summarizer)
	assert.Equal(t, 60, cfg.Credibility.MinConfidence)
	assert.Equal(t, 10, cfg.Credibility.MaxResults)
	assert.Equal(t, []string{"businesswire.com", "prnewswire.com", "globenewswire.com"}, cfg.Query.PressWires)
	assert.Len(t, cfg.Query.Verbs, 5)
	assert.Equal(t, 6, cfg.Search.Concurrency)
	assert.Equal(t, 3, cfg.Search.MaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL())
	assert.Equal(t, 10, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 3, cfg.RateLimit.Burst)
	assert.Equal(t, "https://s.jina.ai", cfg.Jina.SearchBaseURL)
	assert.True(t, cfg.GoogleNews.Enabled)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.EqualValues(t, 1024, cfg.Anthropic.MaxTokens)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/intel
log:
  level: debug
  format: console
credibility:
  min_confidence: 70
  debug: true
query:
  press_wires:
    - businesswire.com
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 70, cfg.Credibility.MinConfidence)
	assert.True(t, cfg.Credibility.Debug)
	assert.Equal(t, []string{"businesswire.com"}, cfg.Query.PressWires)
	// Defaults still apply for unset values
	assert.Equal(t, 10, cfg.Credibility.MaxResults)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("INTEL_STORE_DRIVER", "postgres")
	t.Setenv("INTEL_LOG_LEVEL", "warn")
	t.Setenv("INTEL_ANTHROPIC_KEY", "sk-ant-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.Key)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("INTEL_SERVER_PORT", "3000")
	t.Setenv("INTEL_RATELIMIT_BURST", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 7, cfg.RateLimit.Burst)
}

func TestLoadFrom(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "intel.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\ncache:\n  ttl_hours: 6\n"), 0o644))

	tests := []struct {
		name    string
		path    string
		level   string
		wantErr bool
	}{
		{name: "explicit file", path: path, level: "warn"},
		{name: "empty path uses defaults", path: "", level: "info"},
		{name: "missing file", path: filepath.Join(dir, "nope.yaml"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.level, cfg.Log.Level)
		})
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config that passes validation in every mode.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "intel.db"
	cfg.Jina.Key = "jina-key"
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Server.Summarizer = "anthropic"
	cfg.Server.Port = 8080
	cfg.Auth.JWTSecret = "secret"
	cfg.RateLimit.RequestsPerMinute = 10
	cfg.Credibility.MinConfidence = 60
	return cfg
}

func TestValidate_AllModesPass(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"analyze", "serve", "migrate"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mode   string
		mutate func(*Config)
		want   string
	}{
		{"postgres without url", "migrate", func(c *Config) { c.Store.Driver = "postgres"; c.Store.DatabaseURL = "" }, "store.database_url is required"},
		{"unknown driver", "migrate", func(c *Config) { c.Store.Driver = "mysql" }, `unknown store.driver "mysql"`},
		{"no search provider", "analyze", func(c *Config) { c.Jina.Key = "" }, "jina.key is required"},
		{"missing anthropic key", "analyze", func(c *Config) { c.Anthropic.Key = "" }, "anthropic.key is required"},
		{"missing perplexity key", "analyze", func(c *Config) { c.Server.Summarizer = "perplexity" }, "perplexity.key is required"},
		{"unknown summarizer", "analyze", func(c *Config) { c.Server.Summarizer = "gpt" }, "unknown server.summarizer"},
		{"threshold out of range", "analyze", func(c *Config) { c.Credibility.MinConfidence = -1 }, "min_confidence"},
		{"invalid port", "serve", func(c *Config) { c.Server.Port = 0 }, "server.port must be > 0"},
		{"missing jwt secret", "serve", func(c *Config) { c.Auth.JWTSecret = "" }, "auth.jwt_secret is required"},
		{"zero rate", "serve", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }, "requests_per_minute"},
		{"unknown mode", "bogus", func(*Config) {}, "unknown mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate(tt.mode)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_GoogleNewsAloneIsEnough(t *testing.T) {
	cfg := validDefaults()
	cfg.Jina.Key = ""
	cfg.GoogleNews.Enabled = true
	cfg.Server.Summarizer = "none"
	cfg.Anthropic.Key = ""
	assert.NoError(t, cfg.Validate("analyze"))
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Key = ""
	cfg.Auth.JWTSecret = ""

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic.key is required")
	assert.Contains(t, err.Error(), "auth.jwt_secret is required")
}
