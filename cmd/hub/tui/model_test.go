package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"automationhub/internal/launcher"
	"automationhub/internal/store"
)

var errTest = errors.New("store offline")

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

func newTestModel() Model {
	m := NewModel(Deps{AppName: "Automation Hub", Version: "1.0.0"})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return updated.(Model)
}

func TestUpdate_WindowSize(t *testing.T) {
	t.Parallel()
	m := NewModel(Deps{Version: "1.0.0"})

	newModel, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	result := newModel.(Model)

	if result.width != 120 {
		t.Errorf("Expected width 120, got %d", result.width)
	}
	if result.height != 40 {
		t.Errorf("Expected height 40, got %d", result.height)
	}
}

func TestUpdate_WindowSize_Tiny(t *testing.T) {
	t.Parallel()
	m := NewModel(Deps{Version: "1.0.0"})

	// Should not panic when the terminal is smaller than the layout
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Panic on tiny window size: %v", r)
		}
	}()

	newModel, _ := m.Update(tea.WindowSizeMsg{Width: 0, Height: 0})
	_ = newModel.(Model).View()
}

func TestUpdate_Navigation(t *testing.T) {
	t.Parallel()
	m := newTestModel()

	if m.active != SectionEnvironment {
		t.Fatalf("Expected initial section Environment, got %d", m.active)
	}

	down := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}}
	up := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}}

	newModel, _ := m.Update(down)
	m = newModel.(Model)
	if m.active != SectionPDF {
		t.Errorf("Expected PDF Tools after j, got %d", m.active)
	}

	// k moves back up
	newModel, _ = m.Update(up)
	m = newModel.(Model)
	if m.active != SectionEnvironment {
		t.Errorf("Expected Environment after k, got %d", m.active)
	}

	// up at the top is a no-op
	newModel, _ = m.Update(up)
	m = newModel.(Model)
	if m.active != SectionEnvironment {
		t.Errorf("Expected Environment to stay selected at the top, got %d", m.active)
	}

	// j stops at the last section
	for i := 0; i < 10; i++ {
		newModel, _ = m.Update(down)
		m = newModel.(Model)
	}
	if m.active != SectionHelp {
		t.Errorf("Expected Help at the bottom, got %d", m.active)
	}
}

func TestUpdate_QuitKeys(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"q", "ctrl+c"} {
		m := newTestModel()

		var msg tea.KeyMsg
		if key == "ctrl+c" {
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}

		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("Expected quit command for %q", key)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("Expected tea.QuitMsg for %q, got %T", key, cmd())
		}
	}
}

func TestUpdate_TickReArmsAndRefreshes(t *testing.T) {
	t.Parallel()
	m := newTestModel()

	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("Expected tick to re-arm the refresh timer")
	}
}

func TestUpdate_EnvStatus(t *testing.T) {
	t.Parallel()
	m := newTestModel()

	status := launcher.EnvStatus{
		Variant:            launcher.VariantVenv,
		Interpreter:        "/usr/bin/python3",
		InterpreterVersion: "3.11.4",
		EnvPath:            "/proj/venv",
		EnvPresent:         true,
		State:              launcher.StateReady,
	}

	newModel, _ := m.Update(envStatusMsg(status))
	m = newModel.(Model)

	if !m.env.loaded {
		t.Fatal("Expected env page to be marked loaded")
	}
	view := m.env.View()
	if !contains(view, "/usr/bin/python3") {
		t.Errorf("Expected interpreter path in env view, got:\n%s", view)
	}
	if !contains(view, "3.11.4") {
		t.Errorf("Expected interpreter version in env view, got:\n%s", view)
	}
}

func TestUpdate_TemplatesRows(t *testing.T) {
	t.Parallel()
	m := newTestModel()

	created := time.Date(2025, 3, 10, 9, 30, 0, 0, time.Local)
	templates := []store.Template{
		{
			Name:       "invoice",
			BaseWidth:  612,
			BaseHeight: 792,
			CreatedAt:  created,
			Fields:     []store.TemplateField{{Name: "total"}, {Name: "date"}},
		},
	}

	newModel, _ := m.Update(templatesMsg(templates))
	m = newModel.(Model)

	want := []table.Row{
		{"invoice", "612x792", "2", "2025-03-10 09:30"},
	}
	if diff := cmp.Diff(want, m.templates.table.Rows()); diff != "" {
		t.Errorf("Template rows mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdate_JobsRows(t *testing.T) {
	t.Parallel()
	m := newTestModel()

	lastRun := time.Date(2025, 3, 10, 14, 0, 0, 0, time.Local)
	jobs := []store.Job{
		{
			ID:              "job-1",
			Name:            "backup",
			ScheduleType:    store.ScheduleInterval,
			IntervalSeconds: 300,
			Enabled:         true,
			LastRunAt:       &lastRun,
		},
		{
			ID:           "job-2",
			Name:         "report",
			ScheduleType: store.ScheduleCron,
			CronExpr:     "*/5 * * * *",
			Enabled:      false,
		},
	}
	latest := map[string]store.JobRun{
		"job-1": {JobID: "job-1", Success: false, ExitCode: 2},
	}

	newModel, _ := m.Update(jobsMsg{jobs: jobs, latest: latest})
	m = newModel.(Model)

	want := []table.Row{
		{"backup", "every 300s", "enabled", "2025-03-10 14:00", "exit 2"},
		{"report", "cron */5 * * * *", "disabled", "never", "-"},
	}
	if diff := cmp.Diff(want, m.jobs.table.Rows()); diff != "" {
		t.Errorf("Job rows mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdate_DataError(t *testing.T) {
	t.Parallel()
	m := newTestModel()

	newModel, _ := m.Update(dataErrMsg{err: errTest})
	m = newModel.(Model)

	if m.lastErr == nil {
		t.Fatal("Expected lastErr to be recorded")
	}
	if !contains(m.View(), "error:") {
		t.Error("Expected the footer to surface the error")
	}

	// r clears the error
	newModel, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = newModel.(Model)
	if m.lastErr != nil {
		t.Error("Expected refresh to clear the error")
	}
}

func TestView_SidebarMarksActiveSection(t *testing.T) {
	t.Parallel()
	m := newTestModel()

	view := m.View()
	for _, title := range sectionTitles {
		if !contains(view, title) {
			t.Errorf("Expected sidebar to list %q", title)
		}
	}
	if !contains(view, "> Environment") {
		t.Error("Expected the active section to be marked")
	}
	if !contains(view, "v1.0.0") {
		t.Error("Expected the footer to carry the version")
	}
}

func TestScheduleLabel(t *testing.T) {
	t.Parallel()

	interval := &store.Job{ScheduleType: store.ScheduleInterval, IntervalSeconds: 60}
	if got := scheduleLabel(interval); got != "every 60s" {
		t.Errorf("Expected 'every 60s', got %q", got)
	}

	cron := &store.Job{ScheduleType: store.ScheduleCron, CronExpr: "0 2 * * *"}
	if got := scheduleLabel(cron); got != "cron 0 2 * * *" {
		t.Errorf("Expected 'cron 0 2 * * *', got %q", got)
	}
}
