package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultRequestKey, cfg.API.RequestKey)
	assert.Empty(t, cfg.API.AccessToken)
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1, cfg.RateLimit.MaxConcurrent)
	assert.Equal(t, "q_and_a", cfg.Backup.OutputDir)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SEBACKUP_REQUEST_KEY", "env-key")
	t.Setenv("SEBACKUP_ACCESS_TOKEN", "env-token")
	t.Setenv("SEBACKUP_RPS", "7")
	t.Setenv("SEBACKUP_OUT_DIR", "/tmp/backup")
	t.Setenv("SEBACKUP_WORKERS", "2")
	t.Setenv("SEBACKUP_TIMEOUT", "5s")
	t.Setenv("SEBACKUP_METRICS_ADDR", ":9000")
	t.Setenv("SEBACKUP_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "env-key", cfg.API.RequestKey)
	assert.Equal(t, "env-token", cfg.API.AccessToken)
	assert.Equal(t, 7, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "/tmp/backup", cfg.Backup.OutputDir)
	assert.Equal(t, 2, cfg.Backup.Workers)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9000", cfg.Metrics.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvReportsBadNumbers(t *testing.T) {
	t.Setenv("SEBACKUP_RPS", "fast")
	t.Setenv("SEBACKUP_WORKERS", "many")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SEBACKUP_RPS")
	assert.Contains(t, err.Error(), "SEBACKUP_WORKERS")
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerSecond)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  request_key: file-key
  timeout: 10s
rate_limit:
  requests_per_second: 12
backup:
  output_dir: ./archive
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "file-key", cfg.API.RequestKey)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 12, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "./archive", cfg.Backup.OutputDir)
	assert.Equal(t, "warn", cfg.Logging.Level)
	// untouched sections keep their defaults
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 4, cfg.Backup.Workers)
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0o600))

	err := DefaultConfig().LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero rps", func(c *Config) { c.RateLimit.RequestsPerSecond = 0 }, "requests per second must be positive"},
		{"rps above server cap", func(c *Config) { c.RateLimit.RequestsPerSecond = 31 }, "must not exceed 30"},
		{"zero concurrency", func(c *Config) { c.RateLimit.MaxConcurrent = 0 }, "max concurrent"},
		{"bad base url", func(c *Config) { c.API.BaseURL = "not a url" }, "invalid API base URL"},
		{"empty output dir", func(c *Config) { c.Backup.OutputDir = "" }, "output directory is required"},
		{"no workers", func(c *Config) { c.Backup.Workers = 0 }, "workers must be positive"},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"metrics without addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" }, "metrics address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"request-key":  "flag-key",
		"rps":          15,
		"out-dir":      "flag-dir",
		"workers":      0, // ignored
		"metrics-addr": ":9100",
	})

	assert.Equal(t, "flag-key", cfg.API.RequestKey)
	assert.Equal(t, 15, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "flag-dir", cfg.Backup.OutputDir)
	assert.Equal(t, 4, cfg.Backup.Workers)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rate_limit:\n  requests_per_second: 5\nbackup:\n  output_dir: from-file\n"), 0o600))
	t.Setenv("SEBACKUP_RPS", "8")

	cfg, err := Load(path, map[string]interface{}{"out-dir": "from-flag"})
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "from-flag", cfg.Backup.OutputDir)
}

func TestSaveOmitsAccessToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.API.AccessToken = "secret-token"

	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret-token")
	assert.Equal(t, "secret-token", cfg.API.AccessToken)

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, cfg.RateLimit, loaded.RateLimit)
}
