package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"automationhub/internal/launcher"
)

// EnvPageModel renders the environment status snapshot.
type EnvPageModel struct {
	width  int
	height int
	status launcher.EnvStatus
	loaded bool
	styles Styles
}

// NewEnvPageModel creates the environment pane.
func NewEnvPageModel(styles Styles) EnvPageModel {
	return EnvPageModel{styles: styles}
}

// Init initializes the model.
func (m EnvPageModel) Init() tea.Cmd {
	return nil
}

// Update handles messages. The pane is read-only.
func (m EnvPageModel) Update(msg tea.Msg) (EnvPageModel, tea.Cmd) {
	return m, nil
}

// UpdateContent replaces the snapshot.
func (m *EnvPageModel) UpdateContent(status launcher.EnvStatus) {
	m.status = status
	m.loaded = true
}

// SetSize updates the size.
func (m *EnvPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// View renders the page.
func (m EnvPageModel) View() string {
	var sb strings.Builder
	sb.WriteString(m.styles.Title.Render("Environment") + "\n\n")

	if !m.loaded {
		sb.WriteString(m.styles.Muted.Render("Probing environment..."))
		return sb.String()
	}

	st := m.status
	sb.WriteString(m.row("Variant", string(st.Variant)))

	if st.Interpreter != "" {
		value := st.Interpreter
		if st.InterpreterVersion != "" {
			value = fmt.Sprintf("%s (%s)", st.Interpreter, st.InterpreterVersion)
		}
		sb.WriteString(m.row("Interpreter", value))
	} else {
		sb.WriteString(m.rowStyled("Interpreter", "not found", m.styles.Error))
	}

	switch st.Variant {
	case launcher.VariantConda:
		sb.WriteString(m.rowPresence("Conda env", st.CondaEnvName, st.EnvPresent))
	default:
		sb.WriteString(m.rowPresence("Env dir", st.EnvPath, st.EnvPresent))
	}

	req := st.Requirements
	if req.Present {
		sb.WriteString(m.row("Requirements", fmt.Sprintf("%s (%d packages)", req.Path, req.Packages)))
		sb.WriteString(m.row("Modified", req.ModTime.Format("2006-01-02 15:04:05")))
	} else {
		sb.WriteString(m.rowStyled("Requirements", req.Path+" (missing)", m.styles.Warning))
	}

	sb.WriteString(m.row("State", string(st.State)))

	sb.WriteString("\n")
	sb.WriteString(m.styles.Muted.Render("r refreshes the probe. 'hub env ensure' creates a missing environment."))
	return sb.String()
}

func (m EnvPageModel) row(label, value string) string {
	return fmt.Sprintf("%s %s\n",
		m.styles.Bold.Render(fmt.Sprintf("%-14s", label)),
		m.styles.Body.Render(value))
}

func (m EnvPageModel) rowStyled(label, value string, style lipgloss.Style) string {
	return fmt.Sprintf("%s %s\n",
		m.styles.Bold.Render(fmt.Sprintf("%-14s", label)),
		style.Render(value))
}

func (m EnvPageModel) rowPresence(label, value string, present bool) string {
	if present {
		return m.rowStyled(label, value+" (present)", m.styles.Success)
	}
	return m.rowStyled(label, value+" (missing)", m.styles.Warning)
}
