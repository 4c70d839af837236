package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEventType classifies a process-execution audit event.
type AuditEventType string

const (
	// Process lifecycle
	AuditExecStart    AuditEventType = "exec_start"
	AuditExecComplete AuditEventType = "exec_complete"
	AuditExecKilled   AuditEventType = "exec_killed"
	AuditExecError    AuditEventType = "exec_error"

	// Launcher milestones
	AuditEnvEnsure  AuditEventType = "env_ensure"
	AuditEnvInstall AuditEventType = "env_install"
	AuditAppLaunch  AuditEventType = "app_launch"
)

// AuditEvent is one line of the audit trail: every external process hub
// starts, with enough context to reconstruct what ran and why.
type AuditEvent struct {
	Timestamp  int64          `json:"ts"` // Unix milliseconds
	EventType  AuditEventType `json:"event"`
	RunID      string         `json:"run,omitempty"` // scheduler run / launch correlation
	Command    string         `json:"cmd,omitempty"`
	WorkingDir string         `json:"dir,omitempty"`
	ExitCode   int            `json:"exit"`
	Success    bool           `json:"success"`
	DurationMs int64          `json:"dur_ms,omitempty"`
	Error      string         `json:"error,omitempty"`
}

var (
	auditFile *os.File
	auditMu   sync.Mutex
)

// InitAudit opens the audit trail. Like the category logs it is a no-op
// outside debug mode, so production runs leave no files behind.
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil
	}

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(logsDir, fmt.Sprintf("%s_audit.log", date))

	file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file

	fmt.Fprintf(auditFile, "# Audit log started at %s\n", time.Now().Format(time.RFC3339))
	return nil
}

// CloseAudit closes the audit log file.
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// RecordAudit appends one event. Safe to call before InitAudit or with
// auditing disabled; the event is dropped.
func RecordAudit(event AuditEvent) {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile == nil {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	auditFile.Write(append(data, '\n'))
}
