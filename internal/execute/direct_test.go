package execute

import (
	"bytes"
	"context"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestDirectExecutor_Execute(t *testing.T) {
	executor := NewDirectExecutor()

	var cmd Command
	if runtime.GOOS == "windows" {
		cmd = Command{
			Binary:    "cmd",
			Arguments: []string{"/c", "echo", "hello"},
		}
	} else {
		cmd = Command{
			Binary:    "echo",
			Arguments: []string{"hello"},
		}
	}

	result, err := executor.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !result.Success {
		t.Errorf("Expected success, got failure: %s", result.Error)
	}

	if result.ExitCode != 0 {
		t.Errorf("Expected exit code 0, got %d", result.ExitCode)
	}

	if !strings.Contains(result.Output(), "hello") {
		t.Errorf("Expected output to contain 'hello', got: %s", result.Output())
	}
}

func TestDirectExecutor_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("Timeout test unreliable on Windows")
	}

	executor := NewDirectExecutor()

	cmd := Command{
		Binary:    "sleep",
		Arguments: []string{"10"},
		Timeout:   500 * time.Millisecond,
	}

	start := time.Now()
	result, err := executor.Execute(context.Background(), cmd)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !result.Killed {
		t.Errorf("Expected command to be killed")
	}

	if !strings.Contains(result.KillReason, "timeout") {
		t.Errorf("Expected kill reason to mention timeout, got: %s", result.KillReason)
	}

	if elapsed > 2*time.Second {
		t.Errorf("Timeout didn't work, elapsed: %v", elapsed)
	}
}

func TestDirectExecutor_NonZeroExit(t *testing.T) {
	executor := NewDirectExecutor()

	var cmd Command
	if runtime.GOOS == "windows" {
		cmd = Command{
			Binary:    "cmd",
			Arguments: []string{"/c", "exit", "1"},
		}
	} else {
		cmd = Command{
			Binary:    "sh",
			Arguments: []string{"-c", "exit 1"},
		}
	}

	result, err := executor.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	// Success should be true (command ran)
	if !result.Success {
		t.Errorf("Expected success=true for non-zero exit, got: %s", result.Error)
	}

	if result.ExitCode != 1 {
		t.Errorf("Expected exit code 1, got %d", result.ExitCode)
	}

	if !result.IsNonZeroExit() {
		t.Errorf("Expected IsNonZeroExit to report true")
	}
}

func TestDirectExecutor_MissingBinary(t *testing.T) {
	executor := NewDirectExecutor()

	cmd := Command{
		Binary: "definitely-not-a-real-binary-xyz",
	}

	result, err := executor.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Success {
		t.Errorf("Expected infrastructure failure for missing binary")
	}
	if result.Error == "" {
		t.Errorf("Expected error message for missing binary")
	}
}

func TestDirectExecutor_ValidateEmptyBinary(t *testing.T) {
	executor := NewDirectExecutor()

	if err := executor.Validate(Command{}); err == nil {
		t.Errorf("Expected validation error for empty binary")
	}

	if err := executor.Validate(Command{Binary: "echo", Interactive: true, Stdin: "x"}); err == nil {
		t.Errorf("Expected validation error for interactive command with stdin")
	}
}

func TestDirectExecutor_AuditEvents(t *testing.T) {
	executor := NewDirectExecutor()

	var events []AuditEvent
	executor.SetAuditCallback(func(ev AuditEvent) {
		events = append(events, ev)
	})

	var cmd Command
	if runtime.GOOS == "windows" {
		cmd = Command{Binary: "cmd", Arguments: []string{"/c", "echo", "x"}, RunID: "run-1"}
	} else {
		cmd = Command{Binary: "echo", Arguments: []string{"x"}, RunID: "run-1"}
	}

	if _, err := executor.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("Expected start+complete events, got %d", len(events))
	}
	if events[0].Type != AuditEventStart {
		t.Errorf("Expected first event to be start, got %s", events[0].Type)
	}
	if events[1].Type != AuditEventComplete {
		t.Errorf("Expected second event to be complete, got %s", events[1].Type)
	}
	if events[1].RunID != "run-1" {
		t.Errorf("Expected run ID to be carried, got %q", events[1].RunID)
	}
}

func TestLimitedWriter_Truncation(t *testing.T) {
	var buf bytes.Buffer
	lw := &limitedWriter{w: &buf, max: 5}

	n, err := lw.Write([]byte("hello world"))
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != 11 {
		t.Errorf("Expected reported write of 11 bytes, got %d", n)
	}
	if buf.String() != "hello" {
		t.Errorf("Expected buffer to hold 'hello', got %q", buf.String())
	}
	if !lw.truncated {
		t.Errorf("Expected truncation flag")
	}
	if lw.discarded != 6 {
		t.Errorf("Expected 6 discarded bytes, got %d", lw.discarded)
	}

	// Further writes are discarded entirely
	if _, err := lw.Write([]byte("more")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if buf.String() != "hello" {
		t.Errorf("Expected buffer unchanged, got %q", buf.String())
	}
}

func TestExecutorConfig_Merge(t *testing.T) {
	cfg := DefaultExecutorConfig()
	cfg.DefaultTimeout = 10 * time.Second
	cfg.MaxTimeout = 20 * time.Second

	merged := cfg.Merge(Command{Binary: "x"})
	if merged.Timeout != 10*time.Second {
		t.Errorf("Expected default timeout applied, got %s", merged.Timeout)
	}
	if merged.WorkingDirectory != cfg.DefaultWorkingDir {
		t.Errorf("Expected default working dir applied, got %q", merged.WorkingDirectory)
	}
	if merged.MaxOutputBytes != cfg.MaxOutputBytes {
		t.Errorf("Expected default output cap applied, got %d", merged.MaxOutputBytes)
	}

	// Explicit timeout over the max gets capped
	merged = cfg.Merge(Command{Binary: "x", Timeout: time.Hour})
	if merged.Timeout != 20*time.Second {
		t.Errorf("Expected timeout capped at max, got %s", merged.Timeout)
	}

	// NoTimeout passes through uncapped so launches can run indefinitely
	merged = cfg.Merge(Command{Binary: "x", Timeout: NoTimeout})
	if merged.Timeout != NoTimeout {
		t.Errorf("Expected NoTimeout to pass through, got %s", merged.Timeout)
	}
}

func TestCommandString(t *testing.T) {
	cmd := Command{Binary: "python3", Arguments: []string{"-m", "venv", "venv"}}
	if got := cmd.CommandString(); got != "python3 -m venv venv" {
		t.Errorf("Unexpected command string: %q", got)
	}
	if got := (Command{Binary: "conda"}).CommandString(); got != "conda" {
		t.Errorf("Unexpected bare command string: %q", got)
	}
}
