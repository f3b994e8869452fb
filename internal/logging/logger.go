package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const appName = "execmon"

// Logger wraps a zap logger so packages share one construction path.
type Logger struct {
	*zap.Logger
}

// New builds a logger. level is one of debug|info|warn|error, encoding is
// console or json, and path is a file to append to ("" or "stderr" logs to
// stderr).
func New(level, encoding, path string) (*Logger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(normalizeLevel(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if encoding == "" {
		encoding = "console"
	}
	if encoding != "console" && encoding != "json" {
		return nil, fmt.Errorf("invalid log encoding %q (want console or json)", encoding)
	}

	output := "stderr"
	if path != "" && path != "stderr" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		output = path
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = atomicLevel
	cfg.Encoding = encoding
	cfg.Sampling = nil
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{output}
	cfg.ErrorOutputPaths = []string{output}

	zl, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return &Logger{Logger: zl.Named(appName)}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	if l == nil {
		return Nop()
	}
	return &Logger{Logger: l.Logger.Named(name)}
}

// Field is shorthand for zap.Any.
func Field(key string, value any) zap.Field {
	return zap.Any(key, value)
}

// ErrorField is shorthand for zap.Error.
func ErrorField(err error) zap.Field {
	return zap.Error(err)
}

// DefaultLogFile is where the dashboard logs when nothing is configured,
// since the terminal belongs to the UI.
func DefaultLogFile() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName, appName+".log")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName+".log")
	}
	return filepath.Join(home, ".local", "state", appName, appName+".log")
}

func normalizeLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "":
		return "warn"
	case "warning":
		return "warn"
	default:
		return level
	}
}
