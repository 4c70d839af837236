package launcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"automationhub/internal/config"
	"automationhub/internal/execute"
	"automationhub/internal/logging"
)

// ErrCondaNotFound is the documented hard failure for the Conda variant,
// including the download guidance shown to the user.
var ErrCondaNotFound = fmt.Errorf("conda not found on PATH. Install Miniconda or Anaconda from https://www.anaconda.com/download and re-run")

// CondaBootstrapper ensures a named Conda environment exists (creating it
// with a pinned interpreter version only when missing), installs the
// requirements manifest into it, and runs the entry point under
// `conda run`.
//
// Activation is process-scoped: `conda run -n <name>` activates the
// environment for exactly one child, so it is implicitly deactivated the
// moment the child exits. An existing environment is never recreated.
type CondaBootstrapper struct {
	mu sync.RWMutex

	cfg        config.PythonConfig
	executor   execute.Executor
	projectDir string
	timeout    time.Duration

	// LookPath resolves binaries on the search path. Overridable in tests.
	LookPath LookPathFunc

	state     State
	lastError error
}

// NewCondaBootstrapper creates the Conda variant bootstrapper.
func NewCondaBootstrapper(cfg *config.Config, executor execute.Executor, projectDir string) *CondaBootstrapper {
	return &CondaBootstrapper{
		cfg:        cfg.Python,
		executor:   executor,
		projectDir: projectDir,
		timeout:    cfg.GetInstallTimeout(),
		LookPath:   exec.LookPath,
		state:      StateChecking,
	}
}

// Variant identifies this bootstrapper.
func (b *CondaBootstrapper) Variant() Variant { return VariantConda }

// State returns the current bootstrap state.
func (b *CondaBootstrapper) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// LastError returns the error recorded by the most recent hard failure.
func (b *CondaBootstrapper) LastError() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastError
}

func (b *CondaBootstrapper) setState(state State) {
	b.mu.Lock()
	b.state = state
	b.mu.Unlock()
}

func (b *CondaBootstrapper) setError(err error) error {
	b.mu.Lock()
	b.lastError = err
	b.state = StateError
	b.mu.Unlock()
	return err
}

// EnvName returns the configured environment name.
func (b *CondaBootstrapper) EnvName() string { return b.cfg.CondaEnvName }

// RequirementsPath returns the absolute manifest path.
func (b *CondaBootstrapper) RequirementsPath() string {
	if filepath.IsAbs(b.cfg.Requirements) {
		return b.cfg.Requirements
	}
	return filepath.Join(b.projectDir, b.cfg.Requirements)
}

// findConda resolves the conda executable or returns the documented
// guided failure.
func (b *CondaBootstrapper) findConda() (string, error) {
	path, err := b.LookPath("conda")
	if err != nil {
		return "", ErrCondaNotFound
	}
	return path, nil
}

// condaEnvList is the shape of `conda env list --json`.
type condaEnvList struct {
	Envs []string `json:"envs"`
}

// EnvExists asks conda for its environment list and matches the
// configured name against each environment path's basename.
func (b *CondaBootstrapper) EnvExists(ctx context.Context) (bool, error) {
	conda, err := b.findConda()
	if err != nil {
		return false, err
	}

	result, err := b.executor.Execute(ctx, execute.Command{
		Binary:    conda,
		Arguments: []string{"env", "list", "--json"},
		Timeout:   time.Minute,
	})
	if err != nil {
		return false, fmt.Errorf("conda env list failed: %w", err)
	}
	if result.IsError() {
		return false, fmt.Errorf("conda env list failed: %s", result.Error)
	}
	if result.ExitCode != 0 {
		return false, fmt.Errorf("conda env list exited %d: %s", result.ExitCode, tail(result.Stderr))
	}

	var list condaEnvList
	if err := json.Unmarshal([]byte(result.Stdout), &list); err != nil {
		return false, fmt.Errorf("conda env list returned invalid JSON: %w", err)
	}

	for _, envPath := range list.Envs {
		if filepath.Base(envPath) == b.cfg.CondaEnvName {
			return true, nil
		}
	}
	return false, nil
}

// Ensure verifies conda is installed and creates the named environment
// with the pinned interpreter version only if it does not already exist.
func (b *CondaBootstrapper) Ensure(ctx context.Context) error {
	b.setState(StateChecking)

	conda, err := b.findConda()
	if err != nil {
		return b.setError(err)
	}

	exists, err := b.EnvExists(ctx)
	if err != nil {
		return b.setError(err)
	}
	if exists {
		logging.Env("Conda environment %q present, skipping creation", b.cfg.CondaEnvName)
		b.setState(StateReady)
		return nil
	}

	logging.Env("Creating Conda environment %q (python=%s)", b.cfg.CondaEnvName, b.cfg.CondaPythonVersion)
	b.setState(StateCreating)

	result, err := b.executor.Execute(ctx, execute.Command{
		Binary: conda,
		Arguments: []string{
			"create", "-y", "-n", b.cfg.CondaEnvName,
			"python=" + b.cfg.CondaPythonVersion,
		},
		Timeout: b.timeout,
	})
	if err != nil {
		return b.setError(fmt.Errorf("conda env creation failed: %w", err))
	}
	if result.IsError() {
		return b.setError(fmt.Errorf("conda env creation failed: %s", result.Error))
	}
	if result.ExitCode != 0 {
		return b.setError(fmt.Errorf("conda env creation failed (exit %d): %s", result.ExitCode, tail(result.Output())))
	}

	logging.Env("Conda environment %q created", b.cfg.CondaEnvName)
	b.setState(StateReady)
	return nil
}

// Install installs the requirements manifest inside the named environment.
// The caller decides whether an install failure is fatal; the launch
// sequence treats it as not.
func (b *CondaBootstrapper) Install(ctx context.Context) error {
	reqPath := b.RequirementsPath()
	if info := InspectRequirements(reqPath); !info.Present {
		logging.EnvWarn("Requirements manifest %s not found, skipping install", reqPath)
		return nil
	}

	conda, err := b.findConda()
	if err != nil {
		return err
	}

	logging.Env("Installing dependencies from %s into %q", reqPath, b.cfg.CondaEnvName)
	b.setState(StateInstalling)

	result, err := b.executor.Execute(ctx, execute.Command{
		Binary: conda,
		Arguments: []string{
			"run", "-n", b.cfg.CondaEnvName,
			"python", "-m", "pip", "install", "-r", reqPath,
			"--quiet", "--disable-pip-version-check",
		},
		WorkingDirectory: b.projectDir,
		Timeout:          b.timeout,
	})
	b.setState(StateReady)
	if err != nil {
		return fmt.Errorf("pip install failed: %w", err)
	}
	if result.IsError() {
		return fmt.Errorf("pip install failed: %s", result.Error)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("pip install exited %d: %s", result.ExitCode, tail(result.Stderr))
	}

	logging.Env("Dependencies installed into %q", b.cfg.CondaEnvName)
	return nil
}

// Run invokes the entry point once under `conda run` and blocks until it
// exits. The activation ends with the child, which is the deactivate step.
func (b *CondaBootstrapper) Run(ctx context.Context) (*execute.ExecutionResult, error) {
	conda, err := b.findConda()
	if err != nil {
		return nil, b.setError(err)
	}

	logging.Launch("Launching %s in Conda environment %q", b.cfg.EntryPoint, b.cfg.CondaEnvName)
	b.setState(StateLaunching)

	result, err := b.executor.Execute(ctx, execute.Command{
		Binary: conda,
		Arguments: []string{
			"run", "--no-capture-output", "-n", b.cfg.CondaEnvName,
			"python", b.cfg.EntryPoint,
		},
		WorkingDirectory: b.projectDir,
		Timeout:          execute.NoTimeout,
		Interactive:      true,
	})
	if err != nil {
		return nil, b.setError(fmt.Errorf("entry point launch failed: %w", err))
	}

	logging.Env("Conda run finished; environment deactivated with the child")
	b.setState(StateComplete)
	return result, nil
}

// Status collects what `hub env status --conda` and the dashboard display.
func (b *CondaBootstrapper) Status(ctx context.Context) EnvStatus {
	status := EnvStatus{
		Variant:      VariantConda,
		CondaEnvName: b.cfg.CondaEnvName,
		Requirements: InspectRequirements(b.RequirementsPath()),
		State:        b.State(),
	}

	conda, err := b.findConda()
	if err != nil {
		return status
	}
	status.Interpreter = conda
	status.InterpreterVersion = b.cfg.CondaPythonVersion

	if exists, err := b.EnvExists(ctx); err == nil {
		status.EnvPresent = exists
	}

	return status
}
