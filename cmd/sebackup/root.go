package main

import (
	"fmt"
	"net/http"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/auth"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/config"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/logger"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/metrics"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/retry"
	se "github.com/9ao9ai9ar/stack-exchange-backup/pkg/stackexchange"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/ui"
)

var (
	// Version information
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile  string
	logLevel    string
	logFile     string
	noColor     bool
	verbose     bool
	profile     string
	requestKey  string
	accessToken string
	baseURL     string
	rps         int
)

var rootCmd = &cobra.Command{
	Use:   "sebackup",
	Short: "Back up your Stack Exchange questions and answers as Markdown",
	Long: `sebackup downloads every question you asked and every question you answered
on the Stack Exchange network and writes each one, with all answers and
comments, to a Markdown file.

Files are laid out as <out-dir>/<site>/questions/<id>.md and
<out-dir>/<site>/answers/<id>.md. Existing files are never rewritten, so a
backup can be repeated to pick up new posts.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		console().Error("Error", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file (default .sebackup.yaml or "+config.DefaultPath()+")")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "also write logs to this file")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.BoolVarP(&verbose, "verbose", "v", false, "show logs, rate limiting notices and per-site counts")
	pf.StringVarP(&profile, "profile", "p", "", "stored credential profile to use")
	pf.StringVar(&requestKey, "request-key", "", "API request key")
	pf.StringVar(&accessToken, "access-token", "", "API access token")
	pf.StringVar(&baseURL, "base-url", "", "API root URL")
	pf.IntVar(&rps, "rps", 0, "requests per second limit (at most 30)")

	rootCmd.SetVersionTemplate(`sebackup {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func console() *ui.Console {
	return ui.NewConsole(os.Stdout, !noColor)
}

// loadConfig merges the global flags and any command flags in extra into
// the configuration and initializes logging
func loadConfig(cmd *cobra.Command, extra map[string]interface{}) (*config.Config, error) {
	flags := make(map[string]interface{}, len(extra)+8)
	for k, v := range extra {
		flags[k] = v
	}

	changed := cmd.Flags().Changed
	if changed("request-key") {
		flags["request-key"] = requestKey
	}
	if changed("access-token") {
		flags["access-token"] = accessToken
	}
	if changed("base-url") {
		flags["base-url"] = baseURL
	}
	if changed("rps") {
		flags["rps"] = rps
	}
	if changed("log-file") {
		flags["log-file"] = logFile
	}
	switch {
	case changed("log-level"):
		flags["log-level"] = logLevel
	case verbose:
		flags["log-level"] = "debug"
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if !verbose && !changed("log-level") && cfg.Logging.Level == "info" {
		// progress lines replace info logs on the console
		cfg.Logging.Level = "warn"
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := applyProfile(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyProfile fills credentials the flags did not set from the stored
// profile. A missing default profile is not an error.
func applyProfile(cmd *cobra.Command, cfg *config.Config) error {
	manager, err := auth.NewManager()
	if err != nil {
		if profile != "" {
			return fmt.Errorf("failed to initialize credential manager: %w", err)
		}
		logger.WithError(err).Debug("credential store unavailable")
		return nil
	}

	account, err := manager.Retrieve(profile)
	if err != nil {
		if profile != "" {
			return err
		}
		return nil
	}

	if account.RequestKey != "" && !cmd.Flags().Changed("request-key") {
		cfg.API.RequestKey = account.RequestKey
	}
	if account.AccessToken != "" && !cmd.Flags().Changed("access-token") {
		cfg.API.AccessToken = account.AccessToken
	}
	logger.WithField("profile", account.Name).Debug("using stored credentials")
	return nil
}

// clientConfig is the identity of the API client for cfg
func clientConfig(cfg *config.Config) se.Config {
	return se.Config{
		RequestKey:        cfg.API.RequestKey,
		AccessToken:       cfg.API.AccessToken,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		MaxConcurrent:     cfg.RateLimit.MaxConcurrent,
		BaseURL:           cfg.API.BaseURL,
	}
}

// newClient configures the default registry for cfg and returns its client
func newClient(cfg *config.Config, m *metrics.Metrics, notify func(se.Notice)) (*se.Client, error) {
	opts := []se.Option{
		se.WithLogger(logger.GetLogger()),
		se.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		se.WithMetrics(m),
		se.WithRetry(&retry.Config{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Backoff: &retry.ExponentialBackoff{
				BaseDelay:    cfg.Retry.BaseDelay,
				MaxDelay:     cfg.Retry.MaxDelay,
				Multiplier:   2,
				JitterFactor: 0.1,
			},
			RetryIf: retry.DefaultRetryIf,
		}),
	}
	if notify != nil {
		opts = append(opts, se.WithNotifier(notify))
	}
	se.DefaultRegistry.SetOptions(opts...)
	return se.DefaultRegistry.Get(clientConfig(cfg))
}
