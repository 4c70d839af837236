package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all hub configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Python environment bootstrap
	Python PythonConfig `yaml:"python"`

	// SQLite storage
	Storage StorageConfig `yaml:"storage"`

	// Job scheduler
	Scheduler SchedulerConfig `yaml:"scheduler"`

	// Process execution
	Execution ExecutionConfig `yaml:"execution"`

	// Extraction export
	Export ExportConfig `yaml:"export"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// PythonConfig configures interpreter discovery and environment bootstrap.
type PythonConfig struct {
	// Explicit interpreter path; empty means discover on PATH
	Interpreter string `yaml:"interpreter"`

	// Virtual environment directory (4.1 variant)
	EnvDir string `yaml:"env_dir"`

	// Requirements manifest, relative to the project directory
	Requirements string `yaml:"requirements"`

	// Application entry point
	EntryPoint string `yaml:"entry_point"`

	// Named Conda environment (4.2 variant)
	CondaEnvName string `yaml:"conda_env_name"`

	// Interpreter version pinned at Conda env creation
	CondaPythonVersion string `yaml:"conda_python_version"`

	// Timeout for environment creation and dependency install
	InstallTimeout string `yaml:"install_timeout"`
}

// StorageConfig configures the SQLite store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// SchedulerConfig configures the job scheduler.
type SchedulerConfig struct {
	// How often the dispatch loop checks for due jobs
	TickInterval string `yaml:"tick_interval"`

	// Hard cap on a single job run
	RunTimeout string `yaml:"run_timeout"`

	// Captured output cap per run
	MaxOutputKB int `yaml:"max_output_kb"`
}

// ExecutionConfig configures external process execution.
type ExecutionConfig struct {
	// Default timeout for commands
	DefaultTimeout string `yaml:"default_timeout"`

	// Working directory
	WorkingDirectory string `yaml:"working_directory"`

	// Environment variables to pass through to children
	AllowedEnvVars []string `yaml:"allowed_env_vars"`
}

// ExportConfig configures XLSX/CSV export.
type ExportConfig struct {
	SheetName string `yaml:"sheet_name"`
}

// LoggingConfig configures categorized file logging.
// Keys match what internal/logging reads back from .hub/config.yaml.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"` // debug, info, warn, error
	JSONFormat bool            `yaml:"json_format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "Automation Hub",
		Version: "1.0.0",

		Python: PythonConfig{
			EnvDir:             "venv",
			Requirements:       "requirements.txt",
			EntryPoint:         "main.py",
			CondaEnvName:       "automation_hub",
			CondaPythonVersion: "3.11",
			InstallTimeout:     "10m",
		},

		Storage: StorageConfig{
			DatabasePath: ".hub/hub.db",
		},

		Scheduler: SchedulerConfig{
			TickInterval: "1s",
			RunTimeout:   "1h",
			MaxOutputKB:  256,
		},

		Execution: ExecutionConfig{
			DefaultTimeout:   "30s",
			WorkingDirectory: ".",
			AllowedEnvVars:   []string{"PATH", "HOME", "USERPROFILE", "TEMP", "TMP", "SYSTEMROOT"},
		},

		Export: ExportConfig{
			SheetName: "Extraction",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default path to .hub/config.yaml.
func DefaultConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.Join(".hub", "config.yaml")
	}
	return filepath.Join(cwd, ".hub", "config.yaml")
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("HUB_PYTHON"); v != "" {
		c.Python.Interpreter = v
	}
	if v := os.Getenv("HUB_ENV_DIR"); v != "" {
		c.Python.EnvDir = v
	}
	if v := os.Getenv("HUB_REQUIREMENTS"); v != "" {
		c.Python.Requirements = v
	}
	if v := os.Getenv("HUB_ENTRY_POINT"); v != "" {
		c.Python.EntryPoint = v
	}
	if v := os.Getenv("HUB_CONDA_ENV"); v != "" {
		c.Python.CondaEnvName = v
	}
	if v := os.Getenv("HUB_DB"); v != "" {
		c.Storage.DatabasePath = v
	}
	if v := os.Getenv("HUB_DEBUG"); v == "1" || v == "true" {
		c.Logging.DebugMode = true
	}
}

// GetInstallTimeout returns the env creation/install timeout as a duration.
func (c *Config) GetInstallTimeout() time.Duration {
	d, err := time.ParseDuration(c.Python.InstallTimeout)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// GetExecutionTimeout returns the default execution timeout as a duration.
func (c *Config) GetExecutionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Execution.DefaultTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetTickInterval returns the scheduler tick interval as a duration.
func (c *Config) GetTickInterval() time.Duration {
	d, err := time.ParseDuration(c.Scheduler.TickInterval)
	if err != nil {
		return time.Second
	}
	return d
}

// GetRunTimeout returns the per-run timeout as a duration.
func (c *Config) GetRunTimeout() time.Duration {
	d, err := time.ParseDuration(c.Scheduler.RunTimeout)
	if err != nil {
		return time.Hour
	}
	return d
}

var pinnedVersionRe = regexp.MustCompile(`^\d+(\.\d+){0,2}$`)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Python.EntryPoint == "" {
		return fmt.Errorf("python.entry_point not configured")
	}
	if c.Python.EnvDir == "" {
		return fmt.Errorf("python.env_dir not configured")
	}
	if c.Python.CondaEnvName == "" {
		return fmt.Errorf("python.conda_env_name not configured")
	}
	if !pinnedVersionRe.MatchString(c.Python.CondaPythonVersion) {
		return fmt.Errorf("invalid python.conda_python_version: %q (want e.g. 3.11)", c.Python.CondaPythonVersion)
	}
	if c.Scheduler.MaxOutputKB <= 0 {
		return fmt.Errorf("scheduler.max_output_kb must be positive")
	}
	return nil
}
