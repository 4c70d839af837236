package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# Automation Hub

Launches the project's Python application inside a managed environment
and carries the automation toolbox around it.

## Launching

- ` + "`hub launch`" + ` creates the venv if missing, installs
  requirements, and runs the entry point. Add ` + "`--conda`" + ` for a
  named Conda environment.
- ` + "`hub env ensure`" + ` prepares the environment without launching.
- ` + "`hub env watch`" + ` reinstalls dependencies whenever the
  requirements file changes.

A missing interpreter or a failed environment creation aborts with the
documented message. Dependency install failures are logged and the
launch proceeds.

## Scheduler

- ` + "`hub job add nightly \"python report.py\" --every 300`" + `
- ` + "`hub job add backup \"tar -czf b.tgz data\" --cron \"0 2 * * *\"`" + `
- ` + "`hub schedule run`" + ` executes due jobs once per second.

## Extraction

Trace field regions once with ` + "`hub template add`" + ` and
` + "`hub template field add`" + `, then pull those fields out of any
number of PDFs with ` + "`hub extract`" + ` into CSV or XLSX.

## Keys

- up/down or j/k: switch module
- r: refresh
- q or Ctrl+C: quit
`

// HelpPageModel renders the markdown help text.
type HelpPageModel struct {
	width    int
	height   int
	rendered string
	styles   Styles
}

// NewHelpPageModel creates the help pane, rendering the markdown once.
func NewHelpPageModel(styles Styles) HelpPageModel {
	m := HelpPageModel{styles: styles}
	m.render(80)
	return m
}

// render re-renders the markdown at the given wrap width. Falls back to
// the raw markdown if the renderer cannot be built.
func (m *HelpPageModel) render(width int) {
	if width < 20 {
		width = 20
	}
	if width > 100 {
		width = 100
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.rendered = helpMarkdown
		return
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		m.rendered = helpMarkdown
		return
	}
	m.rendered = strings.TrimRight(out, "\n")
}

// Init initializes the model.
func (m HelpPageModel) Init() tea.Cmd {
	return nil
}

// Update handles messages. The pane is read-only.
func (m HelpPageModel) Update(msg tea.Msg) (HelpPageModel, tea.Cmd) {
	return m, nil
}

// SetSize updates the size and re-wraps the markdown.
func (m *HelpPageModel) SetSize(w, h int) {
	if w != m.width {
		m.render(w)
	}
	m.width = w
	m.height = h
}

// View renders the page.
func (m HelpPageModel) View() string {
	return m.rendered
}
