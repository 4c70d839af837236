package execute

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"automationhub/internal/logging"
)

// DirectExecutor executes commands directly on the host using os/exec.
type DirectExecutor struct {
	mu     sync.RWMutex
	config ExecutorConfig

	// auditCallback is called for execution events
	auditCallback func(AuditEvent)
}

// NewDirectExecutor creates a new direct executor with default config.
func NewDirectExecutor() *DirectExecutor {
	logging.ExecDebug("Creating new DirectExecutor with default config")
	return NewDirectExecutorWithConfig(DefaultExecutorConfig())
}

// NewDirectExecutorWithConfig creates a new direct executor with custom config.
func NewDirectExecutorWithConfig(config ExecutorConfig) *DirectExecutor {
	logging.ExecDebug("Creating DirectExecutor with config: timeout=%s, maxOutput=%d bytes",
		config.DefaultTimeout, config.MaxOutputBytes)
	return &DirectExecutor{
		config: config,
	}
}

// SetAuditCallback sets the callback for audit events.
func (e *DirectExecutor) SetAuditCallback(callback func(AuditEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.auditCallback = callback
}

// emitAudit emits an audit event if a callback is registered.
func (e *DirectExecutor) emitAudit(event AuditEvent) {
	e.mu.RLock()
	callback := e.auditCallback
	e.mu.RUnlock()

	if callback != nil {
		callback(event)
	}
}

// Capabilities returns what this executor supports.
func (e *DirectExecutor) Capabilities() ExecutorCapabilities {
	return ExecutorCapabilities{
		Name:                "direct",
		Platform:            runtime.GOOS,
		SupportsStdin:       true,
		SupportsInteractive: true,
		MaxTimeout:          e.config.MaxTimeout,
		DefaultTimeout:      e.config.DefaultTimeout,
	}
}

// Validate checks if a command can be executed.
func (e *DirectExecutor) Validate(cmd Command) error {
	if cmd.Binary == "" {
		return fmt.Errorf("binary is required")
	}
	if cmd.Interactive && cmd.Stdin != "" {
		return fmt.Errorf("interactive commands cannot take scripted stdin")
	}
	return nil
}

// Execute runs a command directly on the host.
func (e *DirectExecutor) Execute(ctx context.Context, cmd Command) (*ExecutionResult, error) {
	timer := logging.StartTimer(logging.CategoryExec, "Direct command execution")
	defer timer.Stop()

	logging.Exec("Executing command: %s", cmd.CommandString())

	if err := e.Validate(cmd); err != nil {
		logging.ExecWarn("Command validation failed: %s %v - %v", cmd.Binary, cmd.Arguments, err)
		return nil, err
	}

	// Merge config defaults
	cmd = e.config.Merge(cmd)

	logging.ExecDebug("Executing: %s %v (dir=%s, timeout=%s)",
		cmd.Binary, cmd.Arguments, cmd.WorkingDirectory, cmd.Timeout)

	result := &ExecutionResult{
		ExitCode: -1,
		Command:  &cmd,
	}

	e.emitAudit(AuditEvent{
		Type:         AuditEventStart,
		Timestamp:    time.Now(),
		Command:      cmd,
		RunID:        cmd.RunID,
		ExecutorName: "direct",
	})

	var execCtx context.Context
	var cancel context.CancelFunc
	if cmd.Timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
	} else {
		execCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	execCmd := exec.CommandContext(execCtx, cmd.Binary, cmd.Arguments...)
	execCmd.Dir = cmd.WorkingDirectory
	execCmd.Env = e.buildEnvironment(cmd.Environment)

	var stdoutBuf, stderrBuf bytes.Buffer
	var stdoutLimited, stderrLimited *limitedWriter
	if cmd.Interactive {
		// The child owns the console: no capture, no scripted stdin.
		execCmd.Stdin = os.Stdin
		execCmd.Stdout = os.Stdout
		execCmd.Stderr = os.Stderr
	} else {
		if cmd.Stdin != "" {
			logging.ExecDebug("Providing stdin input (%d bytes)", len(cmd.Stdin))
			execCmd.Stdin = strings.NewReader(cmd.Stdin)
		}

		stdoutLimited = &limitedWriter{w: &stdoutBuf, max: cmd.MaxOutputBytes}
		stderrLimited = &limitedWriter{w: &stderrBuf, max: cmd.MaxOutputBytes}
		execCmd.Stdout = stdoutLimited
		execCmd.Stderr = stderrLimited
	}

	result.StartedAt = time.Now()
	logging.ExecDebug("Starting process: %s", cmd.Binary)

	err := execCmd.Run()

	result.FinishedAt = time.Now()
	result.Duration = result.FinishedAt.Sub(result.StartedAt)

	result.Stdout = stdoutBuf.String()
	result.Stderr = stderrBuf.String()
	result.Combined = result.Stdout
	if result.Stderr != "" {
		if result.Combined != "" {
			result.Combined += "\n"
		}
		result.Combined += result.Stderr
	}

	if stdoutLimited != nil && (stdoutLimited.truncated || stderrLimited.truncated) {
		result.Truncated = true
		result.TruncatedBytes = stdoutLimited.discarded + stderrLimited.discarded
		logging.ExecWarn("Command output truncated: %d bytes discarded", result.TruncatedBytes)
	}

	if err != nil {
		if execCtx.Err() == context.DeadlineExceeded {
			result.Killed = true
			result.KillReason = fmt.Sprintf("timeout after %s", cmd.Timeout)
			result.Success = true // Infrastructure worked, command was killed
			logging.ExecWarn("Command killed (timeout): %s after %s", cmd.Binary, cmd.Timeout)
			e.emitAudit(AuditEvent{
				Type:         AuditEventKilled,
				Timestamp:    time.Now(),
				Command:      cmd,
				Result:       result,
				RunID:        cmd.RunID,
				ExecutorName: "direct",
			})
		} else if execCtx.Err() == context.Canceled {
			result.Killed = true
			result.KillReason = "context canceled"
			result.Success = true
			logging.ExecDebug("Command canceled: %s", cmd.Binary)
			e.emitAudit(AuditEvent{
				Type:         AuditEventKilled,
				Timestamp:    time.Now(),
				Command:      cmd,
				Result:       result,
				RunID:        cmd.RunID,
				ExecutorName: "direct",
			})
		} else if exitErr, ok := err.(*exec.ExitError); ok {
			result.Success = true // Command ran, just returned non-zero
			result.ExitCode = exitErr.ExitCode()
			logging.ExecDebug("Command exited non-zero: %s -> %d", cmd.Binary, result.ExitCode)
		} else {
			result.Success = false
			result.Error = err.Error()
			logging.ExecError("Command failed: %s - %v", cmd.Binary, err)
			e.emitAudit(AuditEvent{
				Type:         AuditEventError,
				Timestamp:    time.Now(),
				Command:      cmd,
				Result:       result,
				RunID:        cmd.RunID,
				ExecutorName: "direct",
			})
			return result, nil
		}
	} else {
		result.Success = true
		result.ExitCode = 0
		logging.ExecDebug("Command succeeded with exit code 0")
	}

	e.emitAudit(AuditEvent{
		Type:         AuditEventComplete,
		Timestamp:    time.Now(),
		Command:      cmd,
		Result:       result,
		RunID:        cmd.RunID,
		ExecutorName: "direct",
	})

	logging.Exec("Command completed: %s -> exit=%d, duration=%s",
		cmd.Binary, result.ExitCode, result.Duration)

	return result, nil
}

// buildEnvironment creates the environment variable list.
func (e *DirectExecutor) buildEnvironment(cmdEnv []string) []string {
	env := make([]string, 0)

	// Get allowed variables from current environment
	for _, key := range e.config.AllowedEnvironment {
		if val := os.Getenv(key); val != "" {
			env = append(env, fmt.Sprintf("%s=%s", key, val))
		}
	}

	// Command-specific variables win over pass-through ones
	env = append(env, cmdEnv...)

	return env
}

// limitedWriter is an io.Writer that limits total bytes written.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
	discarded int64
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)

	if lw.written >= lw.max {
		lw.truncated = true
		lw.discarded += int64(n)
		return n, nil // Pretend we wrote it
	}

	remaining := lw.max - lw.written
	if int64(n) > remaining {
		// Partial write
		lw.truncated = true
		toWrite := p[:remaining]
		lw.discarded += int64(n) - remaining
		written, err := lw.w.Write(toWrite)
		lw.written += int64(written)
		return n, err // Return original length to avoid "short write" errors
	}

	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}
