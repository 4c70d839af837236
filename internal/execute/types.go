// Package execute is the lowest-level execution layer of hub. Every external
// process the launcher or the scheduler starts goes through this package:
// interpreter probes, environment creation, dependency installs, entry-point
// launches, and scheduled shell jobs.
//
// Design principles:
//   - Minimal logic: policy (what to run, how to react) lives in the callers
//   - Structured output: comprehensive execution results for logging and run history
//   - Cross-platform: Windows and Unix support
//   - Audit trail: execution events surfaced via callback
package execute

import (
	"time"
)

// NoTimeout disables the execution deadline for a command. Used for the
// application entry point, which runs until the user closes it.
const NoTimeout = time.Duration(-1)

// Command represents a command to be executed.
// This is the input specification for all executor types.
type Command struct {
	// Binary is the executable to run (e.g., "python3", "conda", "sh").
	Binary string `json:"binary"`

	// Arguments are the command-line arguments.
	Arguments []string `json:"arguments"`

	// WorkingDirectory is the directory to execute in.
	// If empty, uses the executor's default working directory.
	WorkingDirectory string `json:"working_directory,omitempty"`

	// Environment variables to set (in KEY=VALUE format).
	// These are merged with the executor's allowed environment.
	Environment []string `json:"environment,omitempty"`

	// Stdin provides input to the command's standard input.
	Stdin string `json:"stdin,omitempty"`

	// Timeout is the maximum execution time.
	// Zero means use the executor's default timeout; NoTimeout disables
	// the deadline entirely (the context still cancels).
	Timeout time.Duration `json:"timeout,omitempty"`

	// MaxOutputBytes limits captured stdout+stderr size.
	// Zero means use the executor's default.
	MaxOutputBytes int64 `json:"max_output_bytes,omitempty"`

	// Interactive hands the parent's stdio to the child instead of
	// capturing it. Used for the application entry point, which owns
	// the console for its lifetime.
	Interactive bool `json:"interactive,omitempty"`

	// RunID links this execution to a scheduler run or launch (for audit).
	RunID string `json:"run_id,omitempty"`
}

// CommandString returns the full command as a string (for display/logging).
func (c Command) CommandString() string {
	if len(c.Arguments) == 0 {
		return c.Binary
	}
	result := c.Binary
	for _, arg := range c.Arguments {
		result += " " + arg
	}
	return result
}

// ExecutionResult is the comprehensive output of command execution.
type ExecutionResult struct {
	// Success indicates whether the command completed without error.
	// Note: A command that runs but returns non-zero exit code has Success=true.
	// Success=false means the execution infrastructure failed.
	Success bool `json:"success"`

	// ExitCode is the command's exit code (-1 if not available).
	ExitCode int `json:"exit_code"`

	// Stdout is the captured standard output.
	Stdout string `json:"stdout"`

	// Stderr is the captured standard error.
	Stderr string `json:"stderr"`

	// Combined is stdout followed by stderr.
	Combined string `json:"combined"`

	// Duration is how long the command ran.
	Duration time.Duration `json:"duration"`

	// StartedAt is when execution began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when execution completed.
	FinishedAt time.Time `json:"finished_at"`

	// Killed indicates the command was forcibly terminated.
	Killed bool `json:"killed"`

	// KillReason explains why the command was killed.
	KillReason string `json:"kill_reason,omitempty"`

	// Truncated indicates output was truncated due to size limits.
	Truncated bool `json:"truncated"`

	// TruncatedBytes is how many bytes were discarded.
	TruncatedBytes int64 `json:"truncated_bytes,omitempty"`

	// Error contains any infrastructure-level error message.
	Error string `json:"error,omitempty"`

	// Command is a copy of the command that was executed (for audit).
	Command *Command `json:"command,omitempty"`
}

// IsError returns true if the execution failed (infrastructure error).
func (r *ExecutionResult) IsError() bool {
	return !r.Success || r.Error != ""
}

// IsNonZeroExit returns true if the command ran but returned non-zero.
func (r *ExecutionResult) IsNonZeroExit() bool {
	return r.Success && r.ExitCode != 0
}

// Output returns Combined if available, otherwise Stdout+Stderr.
func (r *ExecutionResult) Output() string {
	if r.Combined != "" {
		return r.Combined
	}
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// ExecutorCapabilities describes what an executor can do.
type ExecutorCapabilities struct {
	// Name is the executor implementation name.
	Name string `json:"name"`

	// Platform is the operating system (e.g., "windows", "linux", "darwin").
	Platform string `json:"platform"`

	// SupportsStdin indicates stdin input is supported.
	SupportsStdin bool `json:"supports_stdin"`

	// SupportsInteractive indicates pass-through stdio is supported.
	SupportsInteractive bool `json:"supports_interactive"`

	// MaxTimeout is the maximum allowed timeout (0 = unlimited).
	MaxTimeout time.Duration `json:"max_timeout"`

	// DefaultTimeout is used when no timeout is specified.
	DefaultTimeout time.Duration `json:"default_timeout"`
}

// AuditEventType categorizes audit events.
type AuditEventType string

const (
	AuditEventStart    AuditEventType = "start"
	AuditEventComplete AuditEventType = "complete"
	AuditEventKilled   AuditEventType = "killed"
	AuditEventError    AuditEventType = "error"
)

// AuditEvent represents an execution event.
type AuditEvent struct {
	// Type is the event category.
	Type AuditEventType `json:"type"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Command is the command being executed.
	Command Command `json:"command"`

	// Result is the execution result (for complete/killed/error events).
	Result *ExecutionResult `json:"result,omitempty"`

	// RunID links to the scheduler run or launch.
	RunID string `json:"run_id,omitempty"`

	// ExecutorName is which executor handled this.
	ExecutorName string `json:"executor_name"`
}

// ExecutorConfig is the configuration for creating executors.
type ExecutorConfig struct {
	// DefaultWorkingDir is used when Command.WorkingDirectory is empty.
	DefaultWorkingDir string `json:"default_working_dir"`

	// DefaultTimeout is used when no timeout is specified.
	DefaultTimeout time.Duration `json:"default_timeout"`

	// MaxTimeout caps all timeout values.
	MaxTimeout time.Duration `json:"max_timeout"`

	// AllowedEnvironment lists environment variables to pass through.
	AllowedEnvironment []string `json:"allowed_environment"`

	// MaxOutputBytes caps output capture (default 10MB).
	MaxOutputBytes int64 `json:"max_output_bytes"`

	// AuditCallback is called for each execution event (optional).
	AuditCallback func(AuditEvent) `json:"-"`
}

// DefaultExecutorConfig returns sensible defaults.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		DefaultWorkingDir: ".",
		DefaultTimeout:    30 * time.Second,
		MaxTimeout:        2 * time.Hour,
		MaxOutputBytes:    10 * 1024 * 1024, // 10MB
		AllowedEnvironment: []string{
			"PATH", "HOME", "USER", "LANG", "LC_ALL", "TMPDIR",
			"USERPROFILE", "TEMP", "TMP", "SYSTEMROOT", "COMSPEC",
		},
	}
}

// Merge combines this config with command-specific settings.
// Command settings override config defaults.
func (c ExecutorConfig) Merge(cmd Command) Command {
	result := cmd

	if result.WorkingDirectory == "" {
		result.WorkingDirectory = c.DefaultWorkingDir
	}
	if result.Timeout == 0 {
		result.Timeout = c.DefaultTimeout
	}
	// NoTimeout passes through uncapped
	if c.MaxTimeout > 0 && result.Timeout > c.MaxTimeout {
		result.Timeout = c.MaxTimeout
	}
	if result.MaxOutputBytes == 0 {
		result.MaxOutputBytes = c.MaxOutputBytes
	}

	return result
}
