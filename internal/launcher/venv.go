package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"automationhub/internal/config"
	"automationhub/internal/execute"
	"automationhub/internal/logging"
)

// VenvBootstrapper ensures a local virtual environment exists, installs the
// requirements manifest into it, and runs the entry point with the
// environment's own interpreter.
//
// Activation is process-scoped: children get VIRTUAL_ENV, a PATH with the
// env's bin directory prepended, and user site-packages disabled. Nothing
// stays activated after a child exits.
type VenvBootstrapper struct {
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

// NewVenvBootstrapper creates the virtual-environment variant bootstrapper.
func NewVenvBootstrapper(cfg *config.Config, executor execute.Executor, projectDir string) *VenvBootstrapper {
	return &VenvBootstrapper{
		cfg:        cfg.Python,
		executor:   executor,
		projectDir: projectDir,
		timeout:    cfg.GetInstallTimeout(),
		LookPath:   exec.LookPath,
		state:      StateChecking,
	}
}

// Variant identifies this bootstrapper.
func (b *VenvBootstrapper) Variant() Variant { return VariantVenv }

// State returns the current bootstrap state.
func (b *VenvBootstrapper) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// LastError returns the error recorded by the most recent hard failure.
func (b *VenvBootstrapper) LastError() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastError
}

func (b *VenvBootstrapper) setState(state State) {
	b.mu.Lock()
	b.state = state
	b.mu.Unlock()
}

func (b *VenvBootstrapper) setError(err error) error {
	b.mu.Lock()
	b.lastError = err
	b.state = StateError
	b.mu.Unlock()
	return err
}

// EnvDir returns the absolute virtual environment directory.
func (b *VenvBootstrapper) EnvDir() string {
	if filepath.IsAbs(b.cfg.EnvDir) {
		return b.cfg.EnvDir
	}
	return filepath.Join(b.projectDir, b.cfg.EnvDir)
}

// EnvPresent reports whether a usable environment exists. A directory
// without pyvenv.cfg is treated as absent.
func (b *VenvBootstrapper) EnvPresent() bool {
	_, err := os.Stat(filepath.Join(b.EnvDir(), "pyvenv.cfg"))
	return err == nil
}

// RequirementsPath returns the absolute manifest path.
func (b *VenvBootstrapper) RequirementsPath() string {
	if filepath.IsAbs(b.cfg.Requirements) {
		return b.cfg.Requirements
	}
	return filepath.Join(b.projectDir, b.cfg.Requirements)
}

// venvBinDir is "bin" on Unix and "Scripts" on Windows.
func (b *VenvBootstrapper) venvBinDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(b.EnvDir(), "Scripts")
	}
	return filepath.Join(b.EnvDir(), "bin")
}

// venvPython is the environment's own interpreter binary.
func (b *VenvBootstrapper) venvPython() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(b.venvBinDir(), "python.exe")
	}
	return filepath.Join(b.venvBinDir(), "python")
}

// childEnv is the process-scoped activation: the env's interpreter wins
// PATH resolution and user site-packages stay out of the picture.
func (b *VenvBootstrapper) childEnv() []string {
	path := b.venvBinDir() + string(os.PathListSeparator) + os.Getenv("PATH")
	return []string{
		"VIRTUAL_ENV=" + b.EnvDir(),
		"PATH=" + path,
		"PYTHONNOUSERSITE=1",
	}
}

// Ensure creates the virtual environment if it is missing. The two hard
// failure paths are a missing system interpreter and a failed creation;
// an existing environment short-circuits without touching the interpreter.
func (b *VenvBootstrapper) Ensure(ctx context.Context) error {
	b.setState(StateChecking)

	if b.EnvPresent() {
		logging.Env("Virtual environment present at %s, skipping creation", b.EnvDir())
		b.setState(StateReady)
		return nil
	}

	python, err := findInterpreter(b.cfg.Interpreter, b.LookPath)
	if err != nil {
		return b.setError(err)
	}

	logging.Env("Creating virtual environment at %s using %s", b.EnvDir(), python)
	b.setState(StateCreating)

	result, err := b.executor.Execute(ctx, execute.Command{
		Binary:           python,
		Arguments:        []string{"-m", "venv", b.EnvDir()},
		WorkingDirectory: b.projectDir,
		Timeout:          b.timeout,
	})
	if err != nil {
		return b.setError(fmt.Errorf("venv creation failed: %w", err))
	}
	if result.IsError() {
		return b.setError(fmt.Errorf("venv creation failed: %s", result.Error))
	}
	if result.ExitCode != 0 {
		return b.setError(fmt.Errorf("venv creation failed (exit %d): %s", result.ExitCode, tail(result.Output())))
	}
	if !b.EnvPresent() {
		return b.setError(fmt.Errorf("venv creation reported success but %s is missing pyvenv.cfg", b.EnvDir()))
	}

	logging.Env("Virtual environment created at %s", b.EnvDir())
	b.setState(StateReady)
	return nil
}

// Install installs the requirements manifest with the environment's own
// interpreter, suppressing verbose pip output. The caller decides whether
// an install failure is fatal; the launch sequence treats it as not.
func (b *VenvBootstrapper) Install(ctx context.Context) error {
	reqPath := b.RequirementsPath()
	if _, err := os.Stat(reqPath); err != nil {
		logging.EnvWarn("Requirements manifest %s not found, skipping install", reqPath)
		return nil
	}

	logging.Env("Installing dependencies from %s", reqPath)
	b.setState(StateInstalling)

	result, err := b.executor.Execute(ctx, execute.Command{
		Binary:           b.venvPython(),
		Arguments:        []string{"-m", "pip", "install", "-r", reqPath, "--quiet", "--disable-pip-version-check"},
		WorkingDirectory: b.projectDir,
		Environment:      b.childEnv(),
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

	logging.Env("Dependencies installed")
	return nil
}

// Run invokes the entry point once with the environment's interpreter and
// blocks until it exits. The child owns the console.
func (b *VenvBootstrapper) Run(ctx context.Context) (*execute.ExecutionResult, error) {
	logging.Launch("Launching %s with %s", b.cfg.EntryPoint, b.venvPython())
	b.setState(StateLaunching)

	result, err := b.executor.Execute(ctx, execute.Command{
		Binary:           b.venvPython(),
		Arguments:        []string{b.cfg.EntryPoint},
		WorkingDirectory: b.projectDir,
		Environment:      b.childEnv(),
		Timeout:          execute.NoTimeout,
		Interactive:      true,
	})
	if err != nil {
		return nil, b.setError(fmt.Errorf("entry point launch failed: %w", err))
	}

	b.setState(StateComplete)
	return result, nil
}

// Status collects what `hub env status` and the dashboard display.
func (b *VenvBootstrapper) Status(ctx context.Context) EnvStatus {
	status := EnvStatus{
		Variant:      VariantVenv,
		EnvPath:      b.EnvDir(),
		EnvPresent:   b.EnvPresent(),
		Requirements: InspectRequirements(b.RequirementsPath()),
		State:        b.State(),
	}

	python, err := findInterpreter(b.cfg.Interpreter, b.LookPath)
	if err != nil {
		return status
	}
	status.Interpreter = python

	if v, err := probeVersion(ctx, b.executor, python); err == nil {
		status.InterpreterVersion = v.String()
	}

	return status
}

// tail returns the last non-empty line of output for compact error text.
func tail(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return output
}
