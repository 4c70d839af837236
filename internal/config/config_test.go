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

	assert.Equal(t, "venv", cfg.Python.EnvDir)
	assert.Equal(t, "requirements.txt", cfg.Python.Requirements)
	assert.Equal(t, "main.py", cfg.Python.EntryPoint)
	assert.Equal(t, "automation_hub", cfg.Python.CondaEnvName)
	assert.Equal(t, "3.11", cfg.Python.CondaPythonVersion)
	assert.Equal(t, ".hub/hub.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "Extraction", cfg.Export.SheetName)

	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Python.EnvDir, cfg.Python.EnvDir)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
python:
  env_dir: .venv
  conda_env_name: lab
scheduler:
  tick_interval: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Overridden keys take the file's values.
	assert.Equal(t, ".venv", cfg.Python.EnvDir)
	assert.Equal(t, "lab", cfg.Python.CondaEnvName)
	assert.Equal(t, 2*time.Second, cfg.GetTickInterval())

	// Untouched keys keep their defaults.
	assert.Equal(t, "main.py", cfg.Python.EntryPoint)
	assert.Equal(t, time.Hour, cfg.GetRunTimeout())
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("python: [broken"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".hub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Python.EnvDir = "custom-env"
	cfg.Scheduler.MaxOutputKB = 512
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom-env", loaded.Python.EnvDir)
	assert.Equal(t, 512, loaded.Scheduler.MaxOutputKB)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("HUB_PYTHON sets interpreter", func(t *testing.T) {
		t.Setenv("HUB_PYTHON", "/usr/local/bin/python3.12")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "/usr/local/bin/python3.12", cfg.Python.Interpreter)
	})

	t.Run("HUB_ENV_DIR and HUB_REQUIREMENTS", func(t *testing.T) {
		t.Setenv("HUB_ENV_DIR", ".venv")
		t.Setenv("HUB_REQUIREMENTS", "reqs/dev.txt")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, ".venv", cfg.Python.EnvDir)
		assert.Equal(t, "reqs/dev.txt", cfg.Python.Requirements)
	})

	t.Run("HUB_CONDA_ENV", func(t *testing.T) {
		t.Setenv("HUB_CONDA_ENV", "data_lab")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "data_lab", cfg.Python.CondaEnvName)
	})

	t.Run("HUB_DB", func(t *testing.T) {
		t.Setenv("HUB_DB", "/tmp/hub-test.db")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "/tmp/hub-test.db", cfg.Storage.DatabasePath)
	})

	t.Run("HUB_DEBUG accepts 1 and true", func(t *testing.T) {
		t.Setenv("HUB_DEBUG", "1")
		cfg := &Config{}
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Logging.DebugMode)

		t.Setenv("HUB_DEBUG", "true")
		cfg = &Config{}
		cfg.applyEnvOverrides()
		assert.True(t, cfg.Logging.DebugMode)

		t.Setenv("HUB_DEBUG", "no")
		cfg = &Config{}
		cfg.applyEnvOverrides()
		assert.False(t, cfg.Logging.DebugMode)
	})

	t.Run("empty values leave config untouched", func(t *testing.T) {
		t.Setenv("HUB_PYTHON", "")
		t.Setenv("HUB_ENV_DIR", "")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "", cfg.Python.Interpreter)
		assert.Equal(t, "venv", cfg.Python.EnvDir)
	})
}

func TestDurationGetterFallbacks(t *testing.T) {
	cfg := &Config{}

	assert.Equal(t, 10*time.Minute, cfg.GetInstallTimeout())
	assert.Equal(t, 30*time.Second, cfg.GetExecutionTimeout())
	assert.Equal(t, time.Second, cfg.GetTickInterval())
	assert.Equal(t, time.Hour, cfg.GetRunTimeout())

	cfg.Python.InstallTimeout = "90s"
	assert.Equal(t, 90*time.Second, cfg.GetInstallTimeout())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults pass", func(*Config) {}, ""},
		{"missing entry point", func(c *Config) { c.Python.EntryPoint = "" }, "entry_point"},
		{"missing env dir", func(c *Config) { c.Python.EnvDir = "" }, "env_dir"},
		{"missing conda env name", func(c *Config) { c.Python.CondaEnvName = "" }, "conda_env_name"},
		{"bad conda version", func(c *Config) { c.Python.CondaPythonVersion = "latest" }, "conda_python_version"},
		{"version with wildcard", func(c *Config) { c.Python.CondaPythonVersion = "3.11.x" }, "conda_python_version"},
		{"zero output cap", func(c *Config) { c.Scheduler.MaxOutputKB = 0 }, "max_output_kb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
