package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// MonitorConfig holds configuration for the monitor dashboard.
type MonitorConfig struct {
	// Columns lists top-level execution fields shown as table columns, in
	// order. An entry may carry a width: "status:12".
	Columns []string `yaml:"columns,omitempty"`
}

// ServeConfig holds configuration for the bundled status server.
type ServeConfig struct {
	Listen   string `yaml:"listen,omitempty"`
	BasePath string `yaml:"base_path,omitempty"`
	Snapshot string `yaml:"snapshot,omitempty"`
}

// Config holds execmon configuration
type Config struct {
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	LogLevel        string        `yaml:"log_level"`
	LogFile         string        `yaml:"log_file"`
	Monitor         MonitorConfig `yaml:"monitor"`
	Serve           ServeConfig   `yaml:"serve"`
}

type fileConfig struct {
	BaseURL         string        `yaml:"base_url"`
	BaseURLLegacy   string        `yaml:"url"`
	Timeout         string        `yaml:"timeout"`
	RefreshInterval string        `yaml:"refresh_interval"`
	LogLevel        string        `yaml:"log_level"`
	LogFile         string        `yaml:"log_file"`
	Monitor         MonitorConfig `yaml:"monitor"`
	Serve           ServeConfig   `yaml:"serve"`
}

// configFile is the name of the config file
const configFile = "config.yaml"

// repoConfigDir is the per-directory config folder name
const repoConfigDir = ".execmon"

// Defaults applied before any config source.
const (
	DefaultBaseURL  = "http://127.0.0.1:8080"
	DefaultListen   = "127.0.0.1:8080"
	DefaultLogLevel = "warn"
)

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		BaseURL:  DefaultBaseURL,
		LogLevel: DefaultLogLevel,
		Serve: ServeConfig{
			Listen: DefaultListen,
		},
	}
}

// Load loads configuration with the following precedence (highest first):
// 1. Repo-local .execmon/config.yaml in the current directory
// 2. Parent .execmon/config.yaml files (searched upward from cwd)
// 3. Environment variables
// 4. Global ~/.config/execmon/config.yaml
func Load() (*Config, error) {
	cfg := Default()

	globalPath := globalConfigPath()
	if globalPath != "" {
		if err := loadFromFile(globalPath, cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	repoPaths, err := findRepoConfigs()
	if err != nil {
		return nil, err
	}
	for _, repoPath := range repoPaths {
		if err := loadFromFile(repoPath, cfg); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}

	return cfg, nil
}

// RepoConfigDir returns the path to the closest .execmon directory, or "".
func RepoConfigDir() string {
	paths, _ := findRepoConfigs()
	if len(paths) == 0 {
		return ""
	}
	return filepath.Dir(paths[len(paths)-1])
}

// findRepoConfigs searches upward from cwd for .execmon/config.yaml files.
// Returned paths are ordered from furthest ancestor to closest (highest precedence last).
func findRepoConfigs() ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	dir := cwd
	var paths []string
	for {
		configPath := filepath.Join(dir, repoConfigDir, configFile)
		if _, err := os.Stat(configPath); err == nil {
			paths = append(paths, configPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	for i, j := 0, len(paths)-1; i < j; i, j = i+1, j-1 {
		paths[i], paths[j] = paths[j], paths[i]
	}

	return paths, nil
}

// globalConfigPath returns the path to global config
func globalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "execmon", configFile)
}

// loadFromFile loads config from a YAML file, merging into existing cfg.
// Relative log_file and serve.snapshot paths are resolved against the
// directory holding .execmon (or the global config directory).
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fileCfg fileConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	configDir := filepath.Dir(path)
	baseDir := configDir
	if filepath.Base(configDir) == repoConfigDir {
		baseDir = filepath.Dir(configDir)
	}

	baseURL := fileCfg.BaseURL
	if baseURL == "" {
		baseURL = fileCfg.BaseURLLegacy
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if fileCfg.Timeout != "" {
		d, err := parseDuration("timeout", fileCfg.Timeout)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		cfg.Timeout = d
	}
	if fileCfg.RefreshInterval != "" {
		d, err := parseDuration("refresh_interval", fileCfg.RefreshInterval)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		cfg.RefreshInterval = d
	}
	if fileCfg.LogLevel != "" {
		cfg.LogLevel = fileCfg.LogLevel
	}
	if fileCfg.LogFile != "" {
		cfg.LogFile = ExpandPath(fileCfg.LogFile, baseDir)
	}
	if len(fileCfg.Monitor.Columns) > 0 {
		cfg.Monitor.Columns = fileCfg.Monitor.Columns
	}
	if fileCfg.Serve.Listen != "" {
		cfg.Serve.Listen = fileCfg.Serve.Listen
	}
	if fileCfg.Serve.BasePath != "" {
		cfg.Serve.BasePath = fileCfg.Serve.BasePath
	}
	if fileCfg.Serve.Snapshot != "" {
		cfg.Serve.Snapshot = ExpandPath(fileCfg.Serve.Snapshot, baseDir)
	}

	return nil
}

// applyEnv applies environment variables to config
func applyEnv(cfg *Config) error {
	if v := os.Getenv("EXECMON_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("EXECMON_TIMEOUT"); v != "" {
		d, err := parseDuration("EXECMON_TIMEOUT", v)
		if err != nil {
			return err
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("EXECMON_REFRESH_INTERVAL"); v != "" {
		d, err := parseDuration("EXECMON_REFRESH_INTERVAL", v)
		if err != nil {
			return err
		}
		cfg.RefreshInterval = d
	}
	if v := os.Getenv("EXECMON_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("EXECMON_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	return nil
}

func parseDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", name, value)
	}
	return d, nil
}

// ExpandPath expands ~ and makes path absolute relative to base
func ExpandPath(path, base string) string {
	if path == "" {
		return ""
	}

	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[1:])
	}

	if !filepath.IsAbs(path) && base != "" {
		path = filepath.Join(base, path)
	}

	return path
}
