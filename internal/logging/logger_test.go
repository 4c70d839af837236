package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig drops a .hub/config.yaml into dir and returns its path.
func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	configDir := filepath.Join(dir, ".hub")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("Failed to create config dir: %v", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return configPath
}

// resetState clears package globals so each test initializes from scratch.
func resetState() {
	CloseAll()
	CloseAudit()
	loggersMu.Lock()
	loggers = make(map[Category]*Logger)
	loggersMu.Unlock()
	configMu.Lock()
	config = loggingConfig{}
	configLoaded = false
	configMu.Unlock()
	logsDir = ""
	workspace = ""
	logLevel = LevelDebug
}

// TestAllCategoriesLog tests that all categories create log files when debug_mode is true
func TestAllCategoriesLog(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, `logging:
  level: debug
  debug_mode: true
  categories:
    boot: true
    env: true
    launch: true
    exec: true
    store: true
    sched: true
    pdf: true
    extract: true
    export: true
    watch: true
    tui: true
`)

	resetState()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	if !IsDebugMode() {
		t.Error("Expected debug mode to be enabled")
	}

	categories := []Category{
		CategoryBoot,
		CategoryEnv,
		CategoryLaunch,
		CategoryExec,
		CategoryStore,
		CategorySched,
		CategoryPDF,
		CategoryExtract,
		CategoryExport,
		CategoryWatch,
		CategoryTUI,
	}

	for _, cat := range categories {
		if !IsCategoryEnabled(cat) {
			t.Errorf("Category %s should be enabled", cat)
		}

		logger := Get(cat)
		logger.Info("Test info message for %s", cat)
		logger.Debug("Test debug message for %s", cat)
		logger.Warn("Test warn message for %s", cat)
		logger.Error("Test error message for %s", cat)
	}

	// Also test convenience functions
	Boot("Convenience boot log")
	Env("Convenience env log")
	Launch("Convenience launch log")
	Exec("Convenience exec log")
	Store("Convenience store log")
	Sched("Convenience sched log")
	PDF("Convenience pdf log")
	Extract("Convenience extract log")
	Export("Convenience export log")
	Watch("Convenience watch log")
	TUI("Convenience tui log")

	// Close all loggers to flush
	CloseAll()

	logsPath := filepath.Join(tempDir, ".hub", "logs")
	entries, err := os.ReadDir(logsPath)
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}

	t.Logf("Created %d log files in %s", len(entries), logsPath)

	for _, cat := range categories {
		found := false
		for _, entry := range entries {
			if strings.Contains(entry.Name(), string(cat)+".log") {
				found = true
				content, err := os.ReadFile(filepath.Join(logsPath, entry.Name()))
				if err != nil {
					t.Errorf("Failed to read log file for %s: %v", cat, err)
					continue
				}
				if len(content) == 0 {
					t.Errorf("Log file for %s is empty", cat)
				} else {
					t.Logf("✓ %s: %d bytes", cat, len(content))
				}
				break
			}
		}
		if !found {
			t.Errorf("No log file found for category: %s", cat)
		}
	}
}

// TestProductionModeNoLogs tests that no logs are created when debug_mode is false
func TestProductionModeNoLogs(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, `logging:
  level: debug
  debug_mode: false
  categories:
    boot: true
    launch: true
`)

	resetState()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}

	if IsDebugMode() {
		t.Error("Expected debug mode to be DISABLED (production mode)")
	}

	for _, cat := range []Category{CategoryBoot, CategoryLaunch, CategorySched} {
		if IsCategoryEnabled(cat) {
			t.Errorf("Category %s should be DISABLED when debug_mode=false", cat)
		}
	}

	// All of these should be no-ops
	Boot("This should NOT be logged")
	Launch("This should NOT be logged")
	Sched("This should NOT be logged")

	logger := Get(CategoryBoot)
	logger.Info("This should NOT be logged")
	logger.Debug("This should NOT be logged")
	logger.Error("This should NOT be logged")

	CloseAll()

	logsPath := filepath.Join(tempDir, ".hub", "logs")
	if _, err := os.Stat(logsPath); err == nil {
		entries, _ := os.ReadDir(logsPath)
		if len(entries) > 0 {
			t.Errorf("Expected NO log files in production mode, but found %d files", len(entries))
		}
	} else if os.IsNotExist(err) {
		t.Log("✓ Logs directory was not created (correct for production mode)")
	}
}

// TestMissingConfigIsProduction tests that an absent config.yaml means no logging.
// A fresh project directory has no .hub/ yet and must stay clean.
func TestMissingConfigIsProduction(t *testing.T) {
	tempDir := t.TempDir()

	resetState()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Initialize should tolerate a missing config: %v", err)
	}

	if IsDebugMode() {
		t.Error("Expected production mode when config.yaml is absent")
	}

	Boot("This should NOT be logged")
	CloseAll()

	if _, err := os.Stat(filepath.Join(tempDir, ".hub", "logs")); !os.IsNotExist(err) {
		t.Error("No logs directory should exist without a config")
	}
}

// TestCategoryToggle tests individual category enable/disable
func TestCategoryToggle(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, `logging:
  level: debug
  debug_mode: true
  categories:
    boot: true
    launch: true
    sched: false
    pdf: false
`)

	resetState()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	if !IsCategoryEnabled(CategoryBoot) {
		t.Error("boot should be enabled")
	}
	if !IsCategoryEnabled(CategoryLaunch) {
		t.Error("launch should be enabled")
	}
	if IsCategoryEnabled(CategorySched) {
		t.Error("sched should be DISABLED")
	}
	if IsCategoryEnabled(CategoryPDF) {
		t.Error("pdf should be DISABLED")
	}

	// Categories missing from the config default to enabled in debug mode
	if !IsCategoryEnabled(CategoryExtract) {
		t.Error("extract (not in config) should default to enabled")
	}

	Boot("This SHOULD be logged")
	Launch("This SHOULD be logged")
	Sched("This should NOT be logged")
	PDF("This should NOT be logged")
	Extract("This SHOULD be logged (default enabled)")

	CloseAll()

	logsPath := filepath.Join(tempDir, ".hub", "logs")
	entries, _ := os.ReadDir(logsPath)

	var hasBoot, hasLaunch, hasSched, hasPDF bool
	for _, e := range entries {
		name := e.Name()
		if strings.Contains(name, "boot.log") {
			hasBoot = true
		}
		if strings.Contains(name, "launch.log") {
			hasLaunch = true
		}
		if strings.Contains(name, "sched.log") {
			hasSched = true
		}
		if strings.Contains(name, "pdf.log") {
			hasPDF = true
		}
	}

	if !hasBoot {
		t.Error("Expected boot log file")
	}
	if !hasLaunch {
		t.Error("Expected launch log file")
	}
	if hasSched {
		t.Error("Should NOT have sched log file (disabled)")
	}
	if hasPDF {
		t.Error("Should NOT have pdf log file (disabled)")
	}

	t.Logf("✓ Category toggle test passed - %d files created", len(entries))
}

// TestRunLoggerCorrelation tests that run-scoped log lines carry the run ID
func TestRunLoggerCorrelation(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, `logging:
  level: debug
  debug_mode: true
`)

	resetState()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	rl := WithRunID(CategorySched, "run-42").WithField("job", "nightly")
	rl.Info("starting step %d", 1)
	rl.Warn("retrying step %d", 1)

	CloseAll()

	logsPath := filepath.Join(tempDir, ".hub", "logs")
	entries, err := os.ReadDir(logsPath)
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}

	var content []byte
	for _, e := range entries {
		if strings.Contains(e.Name(), "sched.log") {
			content, err = os.ReadFile(filepath.Join(logsPath, e.Name()))
			if err != nil {
				t.Fatalf("Failed to read sched log: %v", err)
			}
		}
	}
	if len(content) == 0 {
		t.Fatal("No sched log file written")
	}

	text := string(content)
	if !strings.Contains(text, "[run:run-42]") {
		t.Errorf("Expected run ID prefix in log lines, got:\n%s", text)
	}
	if !strings.Contains(text, "starting step 1") {
		t.Errorf("Expected formatted message in log lines, got:\n%s", text)
	}
	if !strings.Contains(text, "nightly") {
		t.Errorf("Expected run logger fields in log lines, got:\n%s", text)
	}
}

// TestJSONFormat tests the structured line format
func TestJSONFormat(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, `logging:
  level: debug
  debug_mode: true
  json_format: true
`)

	resetState()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	Launch("launching entry point %s", "main.py")
	CloseAll()

	logsPath := filepath.Join(tempDir, ".hub", "logs")
	entries, err := os.ReadDir(logsPath)
	if err != nil {
		t.Fatalf("Failed to read logs dir: %v", err)
	}

	var raw []byte
	for _, e := range entries {
		if strings.Contains(e.Name(), "launch.log") {
			raw, err = os.ReadFile(filepath.Join(logsPath, e.Name()))
			if err != nil {
				t.Fatalf("Failed to read launch log: %v", err)
			}
		}
	}
	if len(raw) == 0 {
		t.Fatal("No launch log file written")
	}

	// Each line is "<date> <time> <json>"; pull the payload off the first line
	line := strings.SplitN(strings.TrimSpace(string(raw)), "\n", 2)[0]
	idx := strings.Index(line, "{")
	if idx < 0 {
		t.Fatalf("Expected JSON payload in line: %s", line)
	}

	var entry StructuredLogEntry
	if err := json.Unmarshal([]byte(line[idx:]), &entry); err != nil {
		t.Fatalf("Failed to parse structured entry: %v", err)
	}
	if entry.Category != "launch" {
		t.Errorf("Category = %q, want launch", entry.Category)
	}
	if entry.Level != "info" {
		t.Errorf("Level = %q, want info", entry.Level)
	}
	if !strings.Contains(entry.Message, "main.py") {
		t.Errorf("Message = %q, want it to mention main.py", entry.Message)
	}
	if entry.Timestamp == 0 {
		t.Error("Timestamp should be set")
	}
}

// TestTimerLogging tests the timing helper
func TestTimerLogging(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, `logging:
  level: debug
  debug_mode: true
`)

	resetState()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	timer := StartTimer(CategoryExec, "TestOperation")
	time.Sleep(time.Millisecond)
	elapsed := timer.Stop()

	if elapsed <= 0 {
		t.Error("Timer should have recorded non-zero duration")
	}

	timer = StartTimer(CategoryExec, "SlowOperation")
	time.Sleep(2 * time.Millisecond)
	elapsed = timer.StopWithThreshold(time.Nanosecond)
	if elapsed <= time.Nanosecond {
		t.Error("Threshold timer should have recorded the elapsed time")
	}

	t.Logf("✓ Timer recorded: %v", elapsed)

	CloseAll()
}

// TestAuditTrail tests that audit events land in the dated audit log as JSON lines
func TestAuditTrail(t *testing.T) {
	tempDir := t.TempDir()

	writeConfig(t, tempDir, `logging:
  level: debug
  debug_mode: true
`)

	resetState()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	if err := InitAudit(); err != nil {
		t.Fatalf("Failed to init audit: %v", err)
	}

	RecordAudit(AuditEvent{
		EventType: AuditExecStart,
		RunID:     "r1",
		Command:   "python --version",
	})
	RecordAudit(AuditEvent{
		EventType:  AuditExecComplete,
		RunID:      "r1",
		Command:    "python --version",
		Success:    true,
		DurationMs: 12,
	})

	CloseAudit()
	CloseAll()

	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(tempDir, ".hub", "logs", date+"_audit.log")
	raw, err := os.ReadFile(auditPath)
	if err != nil {
		t.Fatalf("Failed to read audit log: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected header + 2 events, got %d lines:\n%s", len(lines), raw)
	}
	if !strings.HasPrefix(lines[0], "# Audit log started") {
		t.Errorf("Expected header comment, got: %s", lines[0])
	}

	var start, complete AuditEvent
	if err := json.Unmarshal([]byte(lines[1]), &start); err != nil {
		t.Fatalf("Failed to parse start event: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[2]), &complete); err != nil {
		t.Fatalf("Failed to parse complete event: %v", err)
	}

	if start.EventType != AuditExecStart {
		t.Errorf("start.EventType = %q, want %q", start.EventType, AuditExecStart)
	}
	if start.Timestamp == 0 {
		t.Error("start.Timestamp should be filled in")
	}
	if complete.EventType != AuditExecComplete {
		t.Errorf("complete.EventType = %q, want %q", complete.EventType, AuditExecComplete)
	}
	if !complete.Success {
		t.Error("complete.Success should be true")
	}
	if complete.DurationMs != 12 {
		t.Errorf("complete.DurationMs = %d, want 12", complete.DurationMs)
	}

	// Events after close are dropped, not a panic
	RecordAudit(AuditEvent{EventType: AuditExecError})
}

// TestAuditDisabledInProduction tests that auditing stays off without debug mode
func TestAuditDisabledInProduction(t *testing.T) {
	tempDir := t.TempDir()

	resetState()
	if err := Initialize(tempDir); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}
	if err := InitAudit(); err != nil {
		t.Fatalf("InitAudit should be a no-op in production: %v", err)
	}

	RecordAudit(AuditEvent{EventType: AuditAppLaunch, ExitCode: 0, Success: true})
	CloseAudit()

	if _, err := os.Stat(filepath.Join(tempDir, ".hub", "logs")); !os.IsNotExist(err) {
		t.Error("No logs directory should exist when auditing is disabled")
	}
}
