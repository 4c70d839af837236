// Package launcher bootstraps the Python runtime that hub's automation
// scripts execute in, then launches the project entry point exactly once.
//
// Two interchangeable bootstrappers implement the same sequence with
// different environment managers:
//
//   - VenvBootstrapper creates and uses a project-local virtual
//     environment built with the system interpreter.
//   - CondaBootstrapper uses a named Conda environment with a pinned
//     interpreter version.
//
// Both follow ensure (hard failure), install (tolerated failure), run
// (exactly once, blocking). A missing system interpreter or a missing
// conda binary aborts the sequence before anything else happens.
package launcher

import (
	"context"
	"time"

	"automationhub/internal/config"
	"automationhub/internal/execute"
	"automationhub/internal/logging"
)

// State tracks where a bootstrapper is in its lifecycle.
type State string

const (
	StateChecking   State = "checking"
	StateCreating   State = "creating"
	StateInstalling State = "installing"
	StateReady      State = "ready"
	StateLaunching  State = "launching"
	StateError      State = "error"
	StateComplete   State = "complete"
)

// Variant selects which environment manager backs the launch.
type Variant string

const (
	VariantVenv  Variant = "venv"
	VariantConda Variant = "conda"
)

// EnvStatus is a point-in-time snapshot of the managed environment,
// rendered by `hub env status` and the dashboard.
type EnvStatus struct {
	Variant            Variant          `json:"variant"`
	Interpreter        string           `json:"interpreter,omitempty"`
	InterpreterVersion string           `json:"interpreter_version,omitempty"`
	EnvPath            string           `json:"env_path,omitempty"`
	EnvPresent         bool             `json:"env_present"`
	CondaEnvName       string           `json:"conda_env_name,omitempty"`
	Requirements       RequirementsInfo `json:"requirements"`
	State              State            `json:"state"`
}

// Bootstrapper is the common surface of the venv and Conda variants.
type Bootstrapper interface {
	// Ensure makes the environment exist, creating it only when missing.
	// Failure here aborts the launch.
	Ensure(ctx context.Context) error

	// Install installs the requirements manifest into the environment.
	// The launch sequence logs a failure and proceeds regardless.
	Install(ctx context.Context) error

	// Run launches the entry point once and blocks until it exits.
	Run(ctx context.Context) (*execute.ExecutionResult, error)

	// Status reports the current environment snapshot.
	Status(ctx context.Context) EnvStatus

	State() State
	Variant() Variant
}

// Result summarizes a completed launch for the caller to surface.
type Result struct {
	Variant  Variant
	ExitCode int
	Duration time.Duration
}

// Launcher drives a Bootstrapper through the full launch sequence.
type Launcher struct {
	bootstrapper Bootstrapper
}

// New builds a Launcher for the requested variant.
func New(cfg *config.Config, executor execute.Executor, projectDir string, variant Variant) *Launcher {
	var b Bootstrapper
	switch variant {
	case VariantConda:
		b = NewCondaBootstrapper(cfg, executor, projectDir)
	default:
		b = NewVenvBootstrapper(cfg, executor, projectDir)
	}
	return &Launcher{bootstrapper: b}
}

// NewWithBootstrapper wires a prebuilt bootstrapper, used by tests and
// the watcher.
func NewWithBootstrapper(b Bootstrapper) *Launcher {
	return &Launcher{bootstrapper: b}
}

// Bootstrapper exposes the underlying variant.
func (l *Launcher) Bootstrapper() Bootstrapper { return l.bootstrapper }

// Launch runs the full sequence: ensure the environment (hard failure),
// install dependencies (failure logged, sequence proceeds), then run the
// entry point exactly once and block until it exits.
func (l *Launcher) Launch(ctx context.Context) (*Result, error) {
	timer := logging.StartTimer(logging.CategoryLaunch, "launch")

	if err := l.bootstrapper.Ensure(ctx); err != nil {
		logging.LaunchError("Environment setup failed: %v", err)
		logging.RecordAudit(logging.AuditEvent{EventType: logging.AuditEnvEnsure, Error: err.Error()})
		return nil, err
	}
	logging.RecordAudit(logging.AuditEvent{EventType: logging.AuditEnvEnsure, Success: true})

	if err := l.bootstrapper.Install(ctx); err != nil {
		// Installs are best-effort. A stale or partial environment still
		// gets its chance to run, matching how the entry point is used.
		logging.EnvWarn("Dependency install failed, launching anyway: %v", err)
		logging.RecordAudit(logging.AuditEvent{EventType: logging.AuditEnvInstall, Error: err.Error()})
	} else {
		logging.RecordAudit(logging.AuditEvent{EventType: logging.AuditEnvInstall, Success: true})
	}

	result, err := l.bootstrapper.Run(ctx)
	if err != nil {
		return nil, err
	}
	logging.Launch("Launch finished: variant=%s exit=%d", l.bootstrapper.Variant(), result.ExitCode)
	logging.RecordAudit(logging.AuditEvent{
		EventType:  logging.AuditAppLaunch,
		ExitCode:   result.ExitCode,
		Success:    result.ExitCode == 0,
		DurationMs: result.Duration.Milliseconds(),
	})
	timer.StopWithInfo()

	return &Result{
		Variant:  l.bootstrapper.Variant(),
		ExitCode: result.ExitCode,
		Duration: result.Duration,
	}, nil
}

// EnsureOnly prepares the environment and installs dependencies without
// launching. `hub env ensure` and the requirements watcher use this.
func (l *Launcher) EnsureOnly(ctx context.Context) error {
	if err := l.bootstrapper.Ensure(ctx); err != nil {
		return err
	}
	if err := l.bootstrapper.Install(ctx); err != nil {
		logging.EnvWarn("Dependency install failed: %v", err)
	}
	return nil
}

// Status reports the current environment snapshot.
func (l *Launcher) Status(ctx context.Context) EnvStatus {
	return l.bootstrapper.Status(ctx)
}
