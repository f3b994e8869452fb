package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/s22625/execmon/internal/config"
	"github.com/s22625/execmon/internal/logging"
	"github.com/s22625/execmon/internal/status"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	ExitOK            = 0
	ExitFetchError    = 2
	ExitConfigError   = 3
	ExitInternalError = 10
)

// GlobalOptions holds options shared across all commands
type GlobalOptions struct {
	URL       string
	Timeout   string
	LogLevel  string
	LogFile   string
	LogFormat string
	JSON      bool
}

var globalOpts = &GlobalOptions{}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "execmon",
	Short: "Monitor live and past executions of a backend",
	Long: `execmon polls <base>/api/status and shows the live and past executions it
reports, together with the remaining execution capacity.

Failed refreshes are shown as an alert that keeps the last good data on
screen until the next successful refresh.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&globalOpts.URL, "url", "", "Base URL of the monitored page (or set EXECMON_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.Timeout, "timeout", "", "Request timeout, e.g. 5s (0 disables)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.LogLevel, "log-level", "", "Log level (error|warn|info|debug)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.LogFile, "log-file", "", "Log file path (stderr for standard error)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.LogFormat, "log-format", "console", "Log encoding (console|json)")
	rootCmd.PersistentFlags().BoolVar(&globalOpts.JSON, "json", false, "Output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newMonitorCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newServeCmd())
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitCode(err))
	}
}

// exitError carries the process exit code for a command failure.
type exitError struct {
	err  error
	code int
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return &exitError{err: err, code: code}
}

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return ExitInternalError
}

// loadConfig loads configuration and applies global flags on top.
// Precedence: flags > local .execmon/config.yaml > parent .execmon/config.yaml > EXECMON_* env > ~/.config/execmon/config.yaml
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, withExitCode(err, ExitConfigError)
	}
	if err := applyGlobalFlags(cfg); err != nil {
		return nil, withExitCode(err, ExitConfigError)
	}
	return cfg, nil
}

func applyGlobalFlags(cfg *config.Config) error {
	if globalOpts.URL != "" {
		cfg.BaseURL = globalOpts.URL
	}
	if globalOpts.Timeout != "" {
		d, err := time.ParseDuration(globalOpts.Timeout)
		if err != nil || d < 0 {
			return invalidFlag("--timeout", globalOpts.Timeout)
		}
		cfg.Timeout = d
	}
	if globalOpts.LogLevel != "" {
		cfg.LogLevel = globalOpts.LogLevel
	}
	if globalOpts.LogFile != "" {
		cfg.LogFile = config.ExpandPath(globalOpts.LogFile, "")
	}
	return nil
}

// newLogger builds the process logger. fallback is used when no log file is
// configured: the dashboard owns the terminal, so it passes a file path.
func newLogger(cfg *config.Config, fallback string) (*logging.Logger, error) {
	path := cfg.LogFile
	if path == "" {
		path = fallback
	}
	logger, err := logging.New(cfg.LogLevel, globalOpts.LogFormat, path)
	if err != nil {
		return nil, withExitCode(err, ExitConfigError)
	}
	return logger, nil
}

func invalidFlag(name, value string) error {
	return fmt.Errorf("invalid %s %q: want a non-negative duration such as 5s", name, value)
}

func newStatusClient(cfg *config.Config, logger *logging.Logger) *status.Client {
	opts := []status.Option{status.WithLogger(logger)}
	if cfg.Timeout > 0 {
		opts = append(opts, status.WithTimeout(cfg.Timeout))
	}
	return status.New(cfg.BaseURL, opts...)
}
