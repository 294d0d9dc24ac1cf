package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultBaseURL is the versioned API root every request is sent to
	DefaultBaseURL = "https://api.stackexchange.com/2.3"
	// DefaultRequestKey is the application key registered for this tool.
	// Request keys raise the daily quota from 300 to 10,000 and allow paging
	// past page 25.
	DefaultRequestKey = "YLTVFmHkeJbm7ZIOoXstag(("
	// MaxRequestsPerSecond is the per-IP cap enforced by the server; requests
	// above it are dropped.
	MaxRequestsPerSecond = 30

	envPrefix = "SEBACKUP_"
)

// Config holds all configuration options for the backup tool
type Config struct {
	API       APIConfig       `yaml:"api" json:"api"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Retry     RetryConfig     `yaml:"retry" json:"retry"`
	Backup    BackupConfig    `yaml:"backup" json:"backup"`
	Metrics   MetricsConfig   `yaml:"metrics" json:"metrics"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// APIConfig holds the API endpoint and credentials
type APIConfig struct {
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	RequestKey  string        `yaml:"request_key" json:"request_key"`
	AccessToken string        `yaml:"access_token,omitempty" json:"access_token,omitempty"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds the client-side request gate settings
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second" json:"requests_per_second"`
	MaxConcurrent     int `yaml:"max_concurrent" json:"max_concurrent"`
}

// RetryConfig governs retries of transport-level failures
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// BackupConfig holds output settings
type BackupConfig struct {
	OutputDir string `yaml:"output_dir" json:"output_dir"`
	Workers   int    `yaml:"workers" json:"workers"`
	Notify    bool   `yaml:"notify" json:"notify"`
}

// MetricsConfig controls the prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:    DefaultBaseURL,
			RequestKey: DefaultRequestKey,
			Timeout:    60 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			MaxConcurrent:     1,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   time.Second,
			MaxDelay:    30 * time.Second,
		},
		Backup: BackupConfig{
			OutputDir: "q_and_a",
			Workers:   4,
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9464",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from SEBACKUP_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv(envPrefix + "BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(envPrefix + "REQUEST_KEY"); v != "" {
		c.API.RequestKey = v
	}
	if v := os.Getenv(envPrefix + "ACCESS_TOKEN"); v != "" {
		c.API.AccessToken = v
	}
	if v := os.Getenv(envPrefix + "TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTIMEOUT: %w", envPrefix, err))
		} else {
			c.API.Timeout = d
		}
	}
	if v := os.Getenv(envPrefix + "RPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sRPS: %w", envPrefix, err))
		} else {
			c.RateLimit.RequestsPerSecond = n
		}
	}
	if v := os.Getenv(envPrefix + "OUT_DIR"); v != "" {
		c.Backup.OutputDir = v
	}
	if v := os.Getenv(envPrefix + "WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sWORKERS: %w", envPrefix, err))
		} else {
			c.Backup.Workers = n
		}
	}
	if v := os.Getenv(envPrefix + "NOTIFY"); v != "" {
		c.Backup.Notify = strings.EqualFold(v, "true")
	}
	if v := os.Getenv(envPrefix + "METRICS_ADDR"); v != "" {
		c.Metrics.Enabled = true
		c.Metrics.Addr = v
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(envPrefix + "LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// DefaultPath returns the per-user config file location
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sebackup", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sebackup.yaml"
	}
	return filepath.Join(home, ".config", "sebackup", "config.yaml")
}

func findConfigFile() string {
	locations := []string{
		".sebackup.yaml",
		".sebackup.yml",
		DefaultPath(),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid API base URL %q", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("API timeout must be positive"))
	}

	if c.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("requests per second must be positive"))
	}
	if c.RateLimit.RequestsPerSecond > MaxRequestsPerSecond {
		errs = append(errs, fmt.Errorf("requests per second must not exceed %d", MaxRequestsPerSecond))
	}
	if c.RateLimit.MaxConcurrent <= 0 {
		errs = append(errs, errors.New("max concurrent requests must be positive"))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry max attempts must be at least 1"))
	}
	if c.Retry.BaseDelay < 0 || c.Retry.MaxDelay < c.Retry.BaseDelay {
		errs = append(errs, errors.New("retry delays must satisfy 0 <= base_delay <= max_delay"))
	}

	if c.Backup.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Backup.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, errors.New("metrics address is required when metrics are enabled"))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error", "disabled":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save writes the configuration to path as YAML. The access token is never
// persisted; it belongs in the credential store.
func (c *Config) Save(path string) error {
	out := *c
	out.API.AccessToken = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only flags the user actually set should be present in the map.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["request-key"].(string); ok && v != "" {
		c.API.RequestKey = v
	}
	if v, ok := flags["access-token"].(string); ok && v != "" {
		c.API.AccessToken = v
	}
	if v, ok := flags["base-url"].(string); ok && v != "" {
		c.API.BaseURL = v
	}
	if v, ok := flags["rps"].(int); ok && v > 0 {
		c.RateLimit.RequestsPerSecond = v
	}
	if v, ok := flags["out-dir"].(string); ok && v != "" {
		c.Backup.OutputDir = v
	}
	if v, ok := flags["workers"].(int); ok && v > 0 {
		c.Backup.Workers = v
	}
	if v, ok := flags["notify"].(bool); ok {
		c.Backup.Notify = v
	}
	if v, ok := flags["metrics-addr"].(string); ok && v != "" {
		c.Metrics.Enabled = true
		c.Metrics.Addr = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment (including .env) > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
